package layout

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"text/template"
)

//go:embed templates/layout.tmpl
var templateFS embed.FS

// Generate renders doc as an hOCR HTML document.
func Generate(doc *Document) (string, error) {
	tmpl, err := template.New("layout.tmpl").Funcs(template.FuncMap{
		"num":  formatNum,
		"bbox": formatBBox,
	}).ParseFS(templateFS, "templates/layout.tmpl")
	if err != nil {
		return "", fmt.Errorf("error parsing layout template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("error rendering layout template: %w", err)
	}
	return buf.String(), nil
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatBBox(b BoundingBox) string {
	return fmt.Sprintf("%s %s %s %s", formatNum(b.X1), formatNum(b.Y1), formatNum(b.X2), formatNum(b.Y2))
}
