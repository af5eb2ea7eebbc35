package rxpdf

import (
	"bytes"
	"errors"
	"io"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
)

// FpdfOptions configures the document produced by an FpdfBackend.
type FpdfOptions struct {
	// Letterhead is a PDF whose first page is drawn under the content of
	// every page.
	Letterhead []byte

	Title   string
	Subject string
	Author  string
	Creator string
	// Created is written as both creation and modification date. The zero
	// value lets fpdf use the current time.
	Created time.Time
}

// FpdfBackend draws onto a US Letter fpdf document.
type FpdfBackend struct {
	pdf  *fpdf.Fpdf
	w, h float64

	letterhead []byte
	importer   *gofpdi.Importer
	template   int
	imported   bool

	images map[string]bool
}

// NewFpdfBackend starts an empty document.
func NewFpdfBackend(opts FpdfOptions) *FpdfBackend {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCatalogSort(true)
	if !opts.Created.IsZero() {
		pdf.SetCreationDate(opts.Created)
		pdf.SetModificationDate(opts.Created)
	}
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Subject != "" {
		pdf.SetSubject(opts.Subject, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	if opts.Creator != "" {
		pdf.SetCreator(opts.Creator, true)
	}

	w, h := pdf.GetPageSize()
	return &FpdfBackend{
		pdf:        pdf,
		w:          w,
		h:          h,
		letterhead: opts.Letterhead,
		images:     make(map[string]bool),
	}
}

func (b *FpdfBackend) PageSize() (float64, float64) {
	return b.w, b.h
}

func (b *FpdfBackend) RegisterFont(face Face, ttf []byte) error {
	if len(ttf) == 0 {
		return &BackendDrawError{Op: "RegisterFont", Err: errors.New("empty font data for " + string(face))}
	}
	b.pdf.AddUTF8FontFromBytes(string(face), "", ttf)
	if err := b.pdf.Error(); err != nil {
		return &BackendDrawError{Op: "RegisterFont", Err: err}
	}
	return nil
}

func (b *FpdfBackend) TextWidth(s string, face Face, size float64) float64 {
	b.pdf.SetFont(string(face), "", size)
	return b.pdf.GetStringWidth(s)
}

func (b *FpdfBackend) DrawText(x, y float64, s string, st TextStyle) {
	b.pdf.SetFont(string(st.Face), "", st.Size)
	b.pdf.SetTextColor(int(st.Color.R), int(st.Color.G), int(st.Color.B))
	b.pdf.Text(x, b.h-y, s)
}

func (b *FpdfBackend) DrawImage(name string, x, y, w, h float64, png []byte) {
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	if !b.images[name] {
		b.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		b.images[name] = true
	}
	b.pdf.ImageOptions(name, x, b.h-y-h, w, h, false, opts, 0, "")
}

func (b *FpdfBackend) DrawRect(x, y, w, h float64, p Paint) {
	b.paint(p)
	b.pdf.Rect(x, b.h-y-h, w, h, p.style())
}

func (b *FpdfBackend) DrawLine(x1, y1, x2, y2 float64, p Paint) {
	b.paint(p)
	b.pdf.Line(x1, b.h-y1, x2, b.h-y2)
}

func (b *FpdfBackend) DrawCircle(x, y, r float64, p Paint) {
	b.paint(p)
	b.pdf.Circle(x, b.h-y, r, p.style())
}

// DrawArc draws a circular arc. Angles are in degrees, counter-clockwise
// from the positive x axis.
func (b *FpdfBackend) DrawArc(x, y, r, startDeg, endDeg float64, p Paint) {
	b.paint(p)
	b.pdf.Arc(x, b.h-y, r, r, 0, startDeg, endDeg, p.style())
}

// BeginGroup opens an optional content group that viewers list as a layer.
func (b *FpdfBackend) BeginGroup(name string) {
	b.pdf.BeginLayer(b.pdf.AddLayer(name, true))
}

func (b *FpdfBackend) EndGroup() {
	b.pdf.EndLayer()
}

// NewPage starts a page and, when a letterhead is configured, stamps its
// first page as the background.
func (b *FpdfBackend) NewPage() {
	b.pdf.AddPage()
	if len(b.letterhead) == 0 || b.pdf.Err() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.pdf.SetErrorf("letterhead: %v", r)
		}
	}()
	if !b.imported {
		b.importer = gofpdi.NewImporter()
		rs := io.ReadSeeker(bytes.NewReader(b.letterhead))
		b.template = b.importer.ImportPageFromStream(b.pdf, &rs, 1, "/MediaBox")
		b.imported = true
	}
	b.importer.UseImportedTemplate(b.pdf, b.template, 0, 0, b.w, 0)
}

func (b *FpdfBackend) PageNumber() int {
	return b.pdf.PageNo()
}

func (b *FpdfBackend) Save(w io.Writer) error {
	if err := b.pdf.Output(w); err != nil {
		return &BackendDrawError{Op: "Save", Err: err}
	}
	return nil
}

func (b *FpdfBackend) Err() error {
	return b.pdf.Error()
}

func (b *FpdfBackend) paint(p Paint) {
	b.pdf.SetDrawColor(int(p.Stroke.R), int(p.Stroke.G), int(p.Stroke.B))
	b.pdf.SetFillColor(int(p.Fill.R), int(p.Fill.G), int(p.Fill.B))
	if p.Width > 0 {
		b.pdf.SetLineWidth(p.Width)
	}
}
