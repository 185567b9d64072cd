// Package database provides SQLite-based archival of feed items and
// build runs. The archive is optional: the feed pipeline never reads
// from it, it only appends, so a missing or corrupt archive can never
// change the generated feed.
package database
