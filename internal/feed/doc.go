// Package feed renders the ordered record set into output documents.
//
// The primary format is RSS 2.0, built as a pure function of channel
// metadata and records so it can always be produced; an empty channel
// document is still a valid build result. A Markdown build summary is
// available alongside it for humans reviewing what a run collected.
package feed
