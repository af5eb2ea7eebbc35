package rxpdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/gardar/rxscribe/pkg/arabic"
	"github.com/gardar/rxscribe/pkg/fonts"
	"github.com/gardar/rxscribe/pkg/layout"
)

// OpKind identifies a recorded drawing call.
type OpKind int

const (
	OpText OpKind = iota
	OpImage
	OpRect
	OpLine
	OpCircle
	OpArc
	OpBeginGroup
	OpEndGroup
	OpNewPage
)

var opNames = [...]string{"text", "image", "rect", "line", "circle", "arc", "begin-group", "end-group", "new-page"}

func (k OpKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is one drawing call captured by a Recorder.
type Op struct {
	Kind  OpKind
	Page  int
	Group string // innermost open group, if any

	X, Y   float64 // origin, or first end point of a line
	X2, Y2 float64 // second end point of a line
	W, H   float64 // rect and image size
	R      float64
	Start  float64 // arc angles, degrees
	End    float64

	Text  string // text content, image or group name
	Data  []byte // image bytes
	Width float64
	Style TextStyle
	Paint Paint
}

// Recorder is a Backend that keeps every call in memory. Text widths come
// from the registered font data when it parses.
type Recorder struct {
	W, H float64
	Ops  []Op

	faces  map[Face]*fonts.Handle
	page   int
	groups []string
	err    error
}

// NewRecorder returns a Recorder with a US Letter page.
func NewRecorder() *Recorder {
	return &Recorder{W: 612, H: 792, faces: make(map[Face]*fonts.Handle)}
}

func (r *Recorder) PageSize() (float64, float64) { return r.W, r.H }

func (r *Recorder) RegisterFont(face Face, ttf []byte) error {
	if len(ttf) == 0 {
		return &BackendDrawError{Op: "RegisterFont", Err: errors.New("empty font data for " + string(face))}
	}
	h, err := fonts.NewHandle(string(face), "", ttf)
	if err != nil {
		h = &fonts.Handle{Name: string(face), Data: ttf}
	}
	r.faces[face] = h
	return nil
}

func (r *Recorder) TextWidth(s string, face Face, size float64) float64 {
	return r.faces[face].Width(s, size)
}

func (r *Recorder) DrawText(x, y float64, s string, st TextStyle) {
	r.record(Op{Kind: OpText, X: x, Y: y, Text: s, Style: st, Width: r.TextWidth(s, st.Face, st.Size)})
}

func (r *Recorder) DrawImage(name string, x, y, w, h float64, png []byte) {
	r.record(Op{Kind: OpImage, Text: name, X: x, Y: y, W: w, H: h, Data: png})
}

func (r *Recorder) DrawRect(x, y, w, h float64, p Paint) {
	r.record(Op{Kind: OpRect, X: x, Y: y, W: w, H: h, Paint: p})
}

func (r *Recorder) DrawLine(x1, y1, x2, y2 float64, p Paint) {
	r.record(Op{Kind: OpLine, X: x1, Y: y1, X2: x2, Y2: y2, Paint: p})
}

func (r *Recorder) DrawCircle(x, y, radius float64, p Paint) {
	r.record(Op{Kind: OpCircle, X: x, Y: y, R: radius, Paint: p})
}

func (r *Recorder) DrawArc(x, y, radius, startDeg, endDeg float64, p Paint) {
	r.record(Op{Kind: OpArc, X: x, Y: y, R: radius, Start: startDeg, End: endDeg, Paint: p})
}

func (r *Recorder) BeginGroup(name string) {
	r.record(Op{Kind: OpBeginGroup, Text: name})
	r.groups = append(r.groups, name)
}

func (r *Recorder) EndGroup() {
	if len(r.groups) == 0 {
		r.fail("EndGroup", errors.New("no open group"))
		return
	}
	r.groups = r.groups[:len(r.groups)-1]
	r.record(Op{Kind: OpEndGroup})
}

func (r *Recorder) NewPage() {
	r.page++
	r.record(Op{Kind: OpNewPage})
}

func (r *Recorder) PageNumber() int { return r.page }

// Save writes a plain-text listing of the recorded calls.
func (r *Recorder) Save(w io.Writer) error {
	var buf bytes.Buffer
	for _, op := range r.Ops {
		fmt.Fprintf(&buf, "%d %s %.2f %.2f %q\n", op.Page, op.Kind, op.X, op.Y, op.Text)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (r *Recorder) Err() error { return r.err }

func (r *Recorder) record(op Op) {
	if r.page == 0 && op.Kind != OpNewPage {
		r.fail(op.Kind.String(), errors.New("drawing before the first page"))
		return
	}
	op.Page = r.page
	if n := len(r.groups); n > 0 {
		op.Group = r.groups[n-1]
	}
	r.Ops = append(r.Ops, op)
}

func (r *Recorder) fail(op string, err error) {
	if r.err == nil {
		r.err = &BackendDrawError{Op: op, Err: err}
	}
}

// Texts returns the text operations in drawing order.
func (r *Recorder) Texts() []Op {
	return r.Filter(func(op Op) bool { return op.Kind == OpText })
}

// Filter returns the operations for which keep reports true.
func (r *Recorder) Filter(keep func(Op) bool) []Op {
	var out []Op
	for _, op := range r.Ops {
		if keep(op) {
			out = append(out, op)
		}
	}
	return out
}

// Pages returns the number of pages started.
func (r *Recorder) Pages() int { return r.page }

// Layout converts the recorded text into a layout document. Runs drawn on
// nearly the same baseline share a line, and boxes use top-down
// coordinates.
func (r *Recorder) Layout(title string) *layout.Document {
	doc := &layout.Document{Title: title, Language: "en"}
	runID := 0
	for p := 1; p <= r.page; p++ {
		page := layout.Page{
			ID:     fmt.Sprintf("page_%d", p),
			Number: p,
			BBox:   layout.NewBoundingBox(0, 0, r.W, r.H),
		}
		var texts []Op
		for _, op := range r.Ops {
			if op.Page == p && op.Kind == OpText {
				texts = append(texts, op)
			}
		}
		sort.SliceStable(texts, func(i, j int) bool { return texts[i].Y > texts[j].Y })

		var baseline float64
		for _, op := range texts {
			runID++
			run := r.run(op, runID)
			n := len(page.Lines)
			if n > 0 && page.Lines[n-1].Size == op.Style.Size && baseline-op.Y <= lineTolerance {
				line := &page.Lines[n-1]
				line.Runs = append(line.Runs, run)
				line.BBox = line.BBox.Union(run.BBox)
				continue
			}
			baseline = op.Y
			page.Lines = append(page.Lines, layout.Line{
				ID:   fmt.Sprintf("line_%d_%d", p, n+1),
				BBox: run.BBox,
				Size: op.Style.Size,
				Runs: []layout.Run{run},
			})
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc
}

// lineTolerance absorbs the baseline offset applied to Eastern-Arabic digits.
const lineTolerance = 3

func (r *Recorder) run(op Op, id int) layout.Run {
	top := r.H - op.Y - op.Style.Size*0.8
	bottom := r.H - op.Y + op.Style.Size*0.2
	run := layout.Run{
		ID:   fmt.Sprintf("run_%d", id),
		Text: op.Text,
		BBox: layout.NewBoundingBox(op.X, top, op.X+op.Width, bottom),
		Size: op.Style.Size,
		Font: string(op.Style.Face),
		Lang: "en",
		Dir:  "ltr",
	}
	if arabic.ContainsArabic(op.Text) || arabic.ContainsEasternDigits(op.Text) {
		run.Lang, run.Dir = "ar", "rtl"
	}
	return run
}

// Tee returns a Backend that forwards every call to both primary and
// secondary. Measurements, page numbers and output come from primary.
func Tee(primary, secondary Backend) Backend {
	return &tee{a: primary, b: secondary}
}

type tee struct {
	a, b Backend
}

func (t *tee) PageSize() (float64, float64) { return t.a.PageSize() }

func (t *tee) RegisterFont(face Face, ttf []byte) error {
	return errors.Join(t.a.RegisterFont(face, ttf), t.b.RegisterFont(face, ttf))
}

func (t *tee) TextWidth(s string, face Face, size float64) float64 {
	return t.a.TextWidth(s, face, size)
}

func (t *tee) DrawText(x, y float64, s string, st TextStyle) {
	t.a.DrawText(x, y, s, st)
	t.b.DrawText(x, y, s, st)
}

func (t *tee) DrawImage(name string, x, y, w, h float64, png []byte) {
	t.a.DrawImage(name, x, y, w, h, png)
	t.b.DrawImage(name, x, y, w, h, png)
}

func (t *tee) DrawRect(x, y, w, h float64, p Paint) {
	t.a.DrawRect(x, y, w, h, p)
	t.b.DrawRect(x, y, w, h, p)
}

func (t *tee) DrawLine(x1, y1, x2, y2 float64, p Paint) {
	t.a.DrawLine(x1, y1, x2, y2, p)
	t.b.DrawLine(x1, y1, x2, y2, p)
}

func (t *tee) DrawCircle(x, y, r float64, p Paint) {
	t.a.DrawCircle(x, y, r, p)
	t.b.DrawCircle(x, y, r, p)
}

func (t *tee) DrawArc(x, y, r, startDeg, endDeg float64, p Paint) {
	t.a.DrawArc(x, y, r, startDeg, endDeg, p)
	t.b.DrawArc(x, y, r, startDeg, endDeg, p)
}

func (t *tee) BeginGroup(name string) {
	t.a.BeginGroup(name)
	t.b.BeginGroup(name)
}

func (t *tee) EndGroup() {
	t.a.EndGroup()
	t.b.EndGroup()
}

func (t *tee) NewPage() {
	t.a.NewPage()
	t.b.NewPage()
}

func (t *tee) PageNumber() int { return t.a.PageNumber() }

func (t *tee) Save(w io.Writer) error { return t.a.Save(w) }

func (t *tee) Err() error {
	if err := t.a.Err(); err != nil {
		return err
	}
	return t.b.Err()
}
