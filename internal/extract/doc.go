// Package extract fetches individual press-release pages and derives
// normalized feed records from them.
//
// Upstream markup is inconsistent: most items carry a structured-data
// block, some only meta tags, some only visible markup. Each record field
// is therefore resolved through an ordered chain of sources, first
// non-empty wins. Missing metadata never discards an item; the only
// reason a fetched document is dropped is failing the relevance check.
package extract
