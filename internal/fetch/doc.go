// Package fetch provides the HTTP page fetcher shared by every pipeline
// stage. It retrieves a document as UTF-8 text with a fixed client
// identity, a per-request timeout, and a response-size cap.
//
// The fetcher deliberately has no retry logic: "not found" and "transient"
// must be distinguished by callers, and retrying a permanent error inside
// the fetcher would turn pagination probing into an infinite loop.
package fetch
