// Package model defines the core data types shared across the wirefeed
// pipeline: discovered item links, extracted feed records, and the
// per-build run state.
//
// The types here are plain data structures with small derivation helpers.
// All business logic (crawling, extraction, aggregation, serialization)
// lives in the packages that consume these types.
package model
