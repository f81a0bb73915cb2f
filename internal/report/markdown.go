package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/backcheck/backcheck/internal/model"
)

// MarkdownWriter renders project statistics as Markdown. The output is
// meant for terminals and for pasting into issue trackers.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter writing to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// WriteStats renders the project's progress and category counters.
func (w *MarkdownWriter) WriteStats(projectName string, state model.ProjectState) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Backcheck Statistics")
	md.PlainText("")

	rows := [][]string{
		{"Project", "`" + projectName + "`"},
		{"Last row", strconv.Itoa(state.LastRow)},
	}
	if !state.LastProcessed.IsZero() {
		rows = append(rows, []string{"Last processed", state.LastProcessed.Format("2006-01-02 15:04:05 MST")})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	md.H2("Results")
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Count"},
		Rows: [][]string{
			{"Dofollow", strconv.Itoa(state.Stats.Dofollow)},
			{"Nofollow", strconv.Itoa(state.Stats.Nofollow)},
			{"Text", strconv.Itoa(state.Stats.Text)},
			{"Not found", strconv.Itoa(state.Stats.NotFound)},
			{"Errors", strconv.Itoa(state.Stats.Errors)},
			{"Total processed", strconv.Itoa(state.Stats.TotalProcessed)},
		},
	})

	return md.Build()
}
