package rxpdf

import (
	"io"
)

// Backend is the drawing surface a document is composed on. Coordinates are
// PDF user space: points, origin at the bottom-left corner, y growing
// upwards. Text is placed by its baseline origin and is drawn left to right
// exactly as given.
//
// Drawing methods record the first failure instead of returning it; callers
// check Err at safe points.
type Backend interface {
	PageSize() (w, h float64)
	RegisterFont(face Face, ttf []byte) error
	TextWidth(s string, face Face, size float64) float64
	DrawText(x, y float64, s string, st TextStyle)
	DrawImage(name string, x, y, w, h float64, png []byte)
	DrawRect(x, y, w, h float64, p Paint)
	DrawLine(x1, y1, x2, y2 float64, p Paint)
	DrawCircle(x, y, r float64, p Paint)
	DrawArc(x, y, r, startDeg, endDeg float64, p Paint)
	BeginGroup(name string)
	EndGroup()
	NewPage()
	PageNumber() int
	Save(w io.Writer) error
	Err() error
}

// Face names a registered font.
type Face string

const (
	FaceLatin     Face = "latin"
	FaceLatinBold Face = "latin-bold"
	FaceArabic    Face = "arabic"
)

// Color is an RGB colour.
type Color struct {
	R, G, B uint8
}

var (
	Black    = Color{0, 0, 0}
	DarkBlue = Color{0x1f, 0x2f, 0x6b}
	Grey     = Color{0x80, 0x80, 0x80}
)

// TextStyle selects the font and colour of a run.
type TextStyle struct {
	Face  Face
	Size  float64
	Color Color
}

// PaintMode selects which parts of a shape are painted.
type PaintMode int

const (
	Stroke PaintMode = iota
	Fill
	StrokeFill
)

// Paint describes how a shape is drawn.
type Paint struct {
	Mode   PaintMode
	Stroke Color
	Fill   Color
	Width  float64 // line width, points
}

// style returns the fpdf style string for the mode.
func (p Paint) style() string {
	switch p.Mode {
	case Fill:
		return "F"
	case StrokeFill:
		return "FD"
	default:
		return "D"
	}
}
