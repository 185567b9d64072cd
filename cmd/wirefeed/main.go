// Package main provides the entry point for the wirefeed CLI.
//
// Wirefeed turns paginated press-release listings into a single merged,
// deduplicated RSS feed ordered newest first.
//
// Usage:
//
//	wirefeed build
//	wirefeed build -c wirefeed.yaml -o docs/rss.xml
//
// See --help for all available options.
package main

// main is the entry point for wirefeed.
func main() {
	Execute()
}
