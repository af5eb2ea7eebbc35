package layout

import (
	"strings"
)

// Text returns the runs of doc, one line per trace line, runs separated by
// a single space and pages separated by a blank line.
func Text(doc *Document) string {
	var sb strings.Builder
	for i, page := range doc.Pages {
		if i > 0 {
			sb.WriteString("\n")
		}
		for _, line := range page.Lines {
			for j, run := range line.Runs {
				if j > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(run.Text)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Find returns every run whose text contains substr, with the number of the
// page it was drawn on.
func Find(doc *Document, substr string) []Match {
	var out []Match
	for _, page := range doc.Pages {
		for _, line := range page.Lines {
			for _, run := range line.Runs {
				if strings.Contains(run.Text, substr) {
					out = append(out, Match{Page: page.Number, Run: run})
				}
			}
		}
	}
	return out
}

// Match is a run located by Find.
type Match struct {
	Page int
	Run  Run
}
