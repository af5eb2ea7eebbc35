package layout

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

// Parse reads hOCR HTML produced by Generate, or any hOCR file using the
// ocr_page, ocr_line and ocrx_word classes.
func Parse(data []byte) (Document, error) {
	doc := Document{Metadata: make(map[string]string)}

	// anything not declared as UTF-8 is read as Latin-1
	if cs := declaredCharset(data); cs != "" && cs != "utf-8" && cs != "utf8" {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return doc, fmt.Errorf("failed to decode %s: %w", cs, err)
		}
		data = decoded
	}

	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return doc, err
	}
	readHead(&doc, root)

	walk(root, func(n *html.Node) bool {
		if !hasClass(n, "ocr_page") {
			return true
		}
		doc.Pages = append(doc.Pages, readPage(n))
		return false
	})

	if len(doc.Pages) == 0 {
		return doc, errors.New("no ocr_page elements found in layout data")
	}
	return doc, nil
}

// ParseTitle splits an hOCR title attribute into its properties.
// Example input: "bbox 100 200 300 400; x_size 10".
func ParseTitle(title string) map[string][]string {
	props := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			props[items[0]] = items[1:]
		}
	}
	return props
}

// ParseBoundingBox extracts the bbox property of a title attribute.
func ParseBoundingBox(title string) (BoundingBox, bool) {
	v, ok := ParseTitle(title)["bbox"]
	if !ok || len(v) < 4 {
		return BoundingBox{}, false
	}
	var c [4]float64
	for i := range c {
		f, err := strconv.ParseFloat(v[i], 64)
		if err != nil {
			return BoundingBox{}, false
		}
		c[i] = f
	}
	return NewBoundingBox(c[0], c[1], c[2], c[3]), true
}

func declaredCharset(data []byte) string {
	s := string(data)
	i := strings.Index(strings.ToLower(s), "charset=")
	if i < 0 {
		return ""
	}
	rest := s[i+len("charset="):]
	f := strings.FieldsFunc(rest, func(r rune) bool {
		return r == '"' || r == ';' || r == '\'' || r == '>' || r == '/' || r == ' '
	})
	if len(f) == 0 {
		return ""
	}
	return strings.ToLower(f[0])
}

func readHead(doc *Document, root *html.Node) {
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "html":
			if lang := attr(n, "lang"); lang != "" {
				doc.Language = lang
			}
		case "title":
			doc.Title = textContent(n)
		case "meta":
			name, content := attr(n, "name"), attr(n, "content")
			if name != "" && !strings.HasPrefix(name, "ocr-") {
				doc.Metadata[name] = content
			}
		case "body":
			return false
		}
		return true
	})
}

func readPage(n *html.Node) Page {
	title := attr(n, "title")
	page := Page{ID: attr(n, "id")}
	page.BBox, _ = ParseBoundingBox(title)
	if v := ParseTitle(title)["ppageno"]; len(v) > 0 {
		page.Number, _ = strconv.Atoi(v[0])
	}
	walk(n, func(c *html.Node) bool {
		if c == n || !hasClass(c, "ocr_line") {
			return true
		}
		page.Lines = append(page.Lines, readLine(c))
		return false
	})
	return page
}

func readLine(n *html.Node) Line {
	title := attr(n, "title")
	line := Line{ID: attr(n, "id")}
	line.BBox, _ = ParseBoundingBox(title)
	line.Size = titleFloat(title, "x_size")
	walk(n, func(c *html.Node) bool {
		if c == n || !hasClass(c, "ocrx_word") {
			return true
		}
		line.Runs = append(line.Runs, readRun(c))
		return false
	})
	return line
}

func readRun(n *html.Node) Run {
	title := attr(n, "title")
	run := Run{
		ID:   attr(n, "id"),
		Text: textContent(n),
		Lang: attr(n, "lang"),
		Dir:  attr(n, "dir"),
		Size: titleFloat(title, "x_size"),
	}
	run.BBox, _ = ParseBoundingBox(title)
	if v := ParseTitle(title)["x_font"]; len(v) > 0 {
		run.Font = v[0]
	}
	return run
}

func titleFloat(title, key string) float64 {
	v := ParseTitle(title)[key]
	if len(v) == 0 {
		return 0
	}
	f, _ := strconv.ParseFloat(v[0], 64)
	return f
}

// walk visits n and its descendants depth first; fn returns false to skip
// the children of a node.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return strings.TrimSpace(sb.String())
}
