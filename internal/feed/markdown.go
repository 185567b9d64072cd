package feed

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/wirefeed-dev/wirefeed/internal/model"
)

// MarkdownWriter outputs a human-readable build summary in Markdown:
// what was walked, what was collected, what was dropped and why.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write outputs the build summary.
func (w *MarkdownWriter) Write(ch Channel, result *model.BuildResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Feed Build Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Channel", ch.Title},
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Links discovered", strconv.Itoa(len(result.Links))},
			{"Items in feed", strconv.Itoa(len(result.Ordered))},
			{"Skipped (irrelevant)", strconv.Itoa(result.Skipped)},
			{"Failed (fetch/extract)", strconv.Itoa(result.Failed)},
		},
	})
	md.PlainText("")

	w.writeSources(md, result)

	return len(md.String()), md.Build()
}

// writeSources writes the per-source breakdown table.
func (w *MarkdownWriter) writeSources(md *markdown.Markdown, result *model.BuildResult) {
	if len(result.Sources) == 0 {
		return
	}

	md.H2("Sources")
	md.PlainText("")

	rows := make([][]string, 0, len(result.Sources))
	for _, s := range result.Sources {
		status := "ok"
		if s.Err != "" {
			status = s.Err
		}
		rows = append(rows, []string{
			"`" + s.Source + "`",
			strconv.Itoa(s.PagesWalked),
			strconv.Itoa(s.LinksFound),
			status,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Source", "Pages", "New links", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}
