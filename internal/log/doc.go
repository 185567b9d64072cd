// Package log provides slog handlers for feed builds. Build logs quote
// source and item URLs on nearly every line, and source URLs sometimes
// carry API keys or tokens in their query strings, so the handlers here
// redact credential-bearing values before they reach the output.
package log
