// Package layout records where text was drawn on each page of a generated
// document, in an hOCR-compatible HTML form.
//
// The trace follows the hOCR hierarchy, trimmed to what a composer emits:
// Document → Pages → Lines → Runs. Bounding boxes use image coordinates
// (origin at the top-left of the page, y growing downwards, points).
//
// Main Functions:
//
// - Generate: renders a Document as hOCR HTML
// - Parse: reads hOCR HTML back into a Document
// - Text: extracts the text of a Document, one line per row
package layout

// Document is the trace of one rendered document.
type Document struct {
	Title    string            // document title
	Language string            // primary language code
	Metadata map[string]string // additional meta elements
	Pages    []Page
}

// Page corresponds to the hOCR class 'ocr_page'.
type Page struct {
	ID     string
	Number int // 1-based physical page number
	BBox   BoundingBox
	Lines  []Line
}

func (Page) Class() string { return "ocr_page" }

// Line groups the runs sharing one baseline. It corresponds to the hOCR
// class 'ocr_line'.
type Line struct {
	ID   string
	BBox BoundingBox
	Size float64 // largest font size on the line
	Runs []Run
}

func (Line) Class() string { return "ocr_line" }

// Run is a single drawn string. It corresponds to the hOCR class
// 'ocrx_word'.
type Run struct {
	ID   string
	Text string // text as handed to the backend, in display order
	BBox BoundingBox
	Size float64
	Font string
	Lang string // "en" or "ar"
	Dir  string // "ltr" or "rtl"
}

func (Run) Class() string { return "ocrx_word" }

// BoundingBox is stored in hOCR 'bbox' properties.
type BoundingBox struct {
	X1 float64 // left
	Y1 float64 // top
	X2 float64 // right
	Y2 float64 // bottom
}

// NewBoundingBox creates a bounding box from its top-left and bottom-right
// corners.
func NewBoundingBox(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns X2 - X1.
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Union returns the smallest box containing b and o. A zero box is treated
// as empty.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	if b == (BoundingBox{}) {
		return o
	}
	if o == (BoundingBox{}) {
		return b
	}
	return BoundingBox{
		X1: min(b.X1, o.X1),
		Y1: min(b.Y1, o.Y1),
		X2: max(b.X2, o.X2),
		Y2: max(b.Y2, o.Y2),
	}
}
