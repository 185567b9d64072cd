package feed

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/wirefeed-dev/wirefeed/internal/model"
)

// Writer outputs a build's aggregated records in some format.
//
// The interface mirrors io-style writers but takes the build result,
// which lets the same API serve files, stdout, and test buffers.
type Writer interface {
	// Write outputs the records for the given channel.
	// Returns the number of bytes written and any error encountered.
	Write(ch Channel, result *model.BuildResult) (int, error)
}

// RSSWriter writes the RSS 2.0 feed document.
type RSSWriter struct {
	output io.Writer

	// now supplies the build timestamp; overridable in tests.
	now func() time.Time
}

// NewRSSWriter creates an RSSWriter that outputs to the given writer.
func NewRSSWriter(output io.Writer) *RSSWriter {
	return &RSSWriter{output: output, now: time.Now}
}

// Write serializes result.Ordered and writes the document.
func (w *RSSWriter) Write(ch Channel, result *model.BuildResult) (int, error) {
	body, err := BuildRSS(ch, result.Ordered, w.now())
	if err != nil {
		return 0, err
	}
	return w.output.Write(body)
}

// MultiWriter writes to several Writers in turn, stopping on the first
// error. Useful for emitting the feed and a summary in one pass.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs to all configured Writers and sums the bytes written.
func (m *MultiWriter) Write(ch Channel, result *model.BuildResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(ch, result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// CreateFile opens path for writing, creating parent directories as
// needed. An output-write failure is one of the few fatal conditions in
// a build, so errors here propagate to the caller unchanged.
func CreateFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // Destination path comes from the user's config
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}
