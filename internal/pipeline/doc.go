// Package pipeline orchestrates feed builds as an ordered sequence of
// steps sharing one build result: discover item links across all
// sources, pull pre-built feed sources, extract records from item
// pages, aggregate them into a deduplicated newest-first sequence,
// archive, and write the output documents.
//
// Listing walks run concurrently, but their links merge into the global
// discovery set only after every walk has finished, in source order, so
// a build's discovery ordinals do not depend on network timing.
package pipeline
