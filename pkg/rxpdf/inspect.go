package rxpdf

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ChromeGroupPrefix starts the name of every page decoration group. The page
// number follows it.
const ChromeGroupPrefix = "Page Chrome - Page "

func chromeGroupName(page int) string {
	return ChromeGroupPrefix + strconv.Itoa(page)
}

var (
	pagePattern = regexp.MustCompile(`/Type\s*/Page\b`)
	ocgPattern  = regexp.MustCompile(`(?s)/Type\s*/OCG\s*/Name\s*\(((?:[^\\)]|\\.)*)\)`)
)

// Inspection summarises a rendered document.
type Inspection struct {
	Pages  int
	Layers []string // optional content group names, in file order

	// Chrome counts decoration groups per page number.
	Chrome map[int]int
}

// InspectPDF scans raw PDF bytes for pages and optional content groups.
// It understands uncompressed object dictionaries as written by fpdf.
func InspectPDF(data []byte) (Inspection, error) {
	if len(data) == 0 {
		return Inspection{}, errors.New("empty PDF data")
	}
	if !strings.HasPrefix(string(data[:min(len(data), 8)]), "%PDF-") {
		return Inspection{}, errors.New("missing PDF header")
	}

	content := string(data)
	in := Inspection{
		Pages:  len(pagePattern.FindAllStringIndex(content, -1)),
		Chrome: make(map[int]int),
	}
	for _, m := range ocgPattern.FindAllStringSubmatch(content, -1) {
		name := decodePDFString(unescapePDFString(m[1]))
		in.Layers = append(in.Layers, name)
		if rest, ok := strings.CutPrefix(name, ChromeGroupPrefix); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil {
				in.Chrome[n]++
			}
		}
	}
	return in, nil
}

// Verify reports pages without exactly one decoration group.
func (in Inspection) Verify() error {
	if in.Pages == 0 {
		return errors.New("document has no pages")
	}
	var errs []error
	for p := 1; p <= in.Pages; p++ {
		switch n := in.Chrome[p]; {
		case n == 0:
			errs = append(errs, fmt.Errorf("page %d: no decoration group", p))
		case n > 1:
			errs = append(errs, fmt.Errorf("page %d: %d decoration groups", p, n))
		}
	}
	for _, p := range slices.Sorted(maps.Keys(in.Chrome)) {
		if p < 1 || p > in.Pages {
			errs = append(errs, fmt.Errorf("decoration group for missing page %d", p))
		}
	}
	return errors.Join(errs...)
}

func unescapePDFString(s string) string {
	r := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\r`, "\r", `\n`, "\n")
	return r.Replace(s)
}

// decodePDFString decodes a text string: UTF-16BE when it carries a byte
// order mark, PDFDocEncoding (approximated by Windows-1252) otherwise.
func decodePDFString(s string) string {
	if strings.HasPrefix(s, "\xfe\xff") {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.String(s); err == nil {
			return out
		}
	}
	if out, err := charmap.Windows1252.NewDecoder().String(s); err == nil {
		return out
	}
	return s
}
