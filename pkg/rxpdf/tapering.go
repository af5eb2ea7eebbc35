package rxpdf

import (
	"strconv"
	"strings"

	"github.com/gardar/rxscribe/pkg/arabic"
)

// TaperingRenderer draws a tapering schedule as a mirrored two-column
// table: step and instructions in English from the left, their Arabic
// counterparts from the right, on shared baselines.
type TaperingRenderer struct {
	rc *renderContext

	englishLeft      float64
	englishInstrLeft float64
	arabicRight      float64
	arabicInstrRight float64
}

func newTaperingRenderer(rc *renderContext) *TaperingRenderer {
	g := rc.g
	t := &TaperingRenderer{rc: rc}
	t.englishLeft = rc.left + g.SmallIndent
	t.englishInstrLeft = t.englishLeft + g.StepColumnWidth
	t.arabicRight = rc.right - g.SmallInset
	t.arabicInstrRight = t.arabicRight - g.ArabicStepColumnWidth
	return t
}

// Render draws steps in order. A step that fits on a fresh page is never
// split; a longer one breaks between lines, and every continuation page
// repeats the header row. The header row is never left alone at the foot of
// a page.
func (t *TaperingRenderer) Render(steps []TaperStep) error {
	if len(steps) == 0 {
		return nil
	}
	rc := t.rc
	if err := rc.separator(rulePaint); err != nil {
		return err
	}

	first := t.lines(steps[0])
	if err := t.header(first.height(rc.g)); err != nil {
		return err
	}

	for i, step := range steps {
		if err := rc.checkCancel(); err != nil {
			return err
		}
		ls := first
		if i > 0 {
			ls = t.lines(step)
		}
		if err := t.step(i, step, ls); err != nil {
			return err
		}
	}
	return rc.separator(rulePaint)
}

// header draws the column headings, first breaking the page unless reserve
// more points fit below them.
func (t *TaperingRenderer) header(reserve float64) error {
	rc := t.rc
	if err := rc.ensure(rc.g.LineGap + min(reserve, t.freshCapacity())); err != nil {
		return err
	}
	size := rc.cfg.TableSize
	st := TextStyle{Face: FaceLatinBold, Size: size, Color: Black}
	rc.b.DrawText(t.englishLeft, rc.cursor, "Step", st)
	rc.b.DrawText(t.englishInstrLeft, rc.cursor, "Instructions", st)
	if rc.arabicOK {
		for _, col := range []struct {
			x     float64
			label string
		}{{t.arabicRight, "Step"}, {t.arabicInstrRight, "Instructions"}} {
			if ar := rc.translate(col.label); arabic.ContainsArabic(ar) {
				rc.drawArabicRight(col.x, rc.cursor, ar, size)
			}
		}
	}
	rc.advance(rc.g.LineGap)
	return nil
}

// breakPage starts a new page and repeats the header row on it.
func (t *TaperingRenderer) breakPage() error {
	if err := t.rc.newPage(); err != nil {
		return err
	}
	return t.header(0)
}

// stepLines holds the wrapped cells of one step.
type stepLines struct {
	en []string
	ar []string
	// translated is false when ar repeats the English source, which is then
	// drawn in the Latin face.
	translated bool
}

func (l stepLines) rows() int {
	return max(len(l.en), len(l.ar))
}

func (l stepLines) height(g Geometry) float64 {
	return float64(l.rows()) * g.SubLineGap
}

// lines wraps an instruction and its mirror. An instruction without an
// Arabic translation is mirrored as written.
func (t *TaperingRenderer) lines(step TaperStep) stepLines {
	rc := t.rc
	l := stepLines{en: wrap(step.InstructionText, rc.cfg.TaperWrapWidth)}
	if !rc.arabicOK {
		return l
	}
	tr := rc.translate(step.InstructionText)
	l.translated = arabic.ContainsArabic(tr)
	l.ar = wrap(tr, rc.cfg.TaperWrapWidth)
	return l
}

func (t *TaperingRenderer) step(i int, step TaperStep, ls stepLines) error {
	rc := t.rc
	g := rc.g
	size := rc.cfg.TableSize

	// Keep the step whole when a fresh page can hold it.
	need := ls.height(g)
	if rc.cursor-need < rc.bottom && need <= t.freshCapacity() {
		if err := t.breakPage(); err != nil {
			return err
		}
	}

	label := strings.TrimSpace(step.Label)
	if label == "" {
		label = strconv.Itoa(i + 1)
	}
	label += "."

	latin := TextStyle{Face: FaceLatin, Size: size, Color: Black}
	for j := range ls.rows() {
		if rc.cursor-g.SubLineGap < rc.bottom {
			if err := t.breakPage(); err != nil {
				return err
			}
		}
		y := rc.cursor
		if j == 0 {
			rc.b.DrawText(t.englishLeft, y, label, latin)
			if rc.arabicOK {
				rc.drawArabicRight(t.arabicRight, y, label, size)
			}
		}
		if j < len(ls.en) {
			rc.drawMixed(t.englishInstrLeft, y, ls.en[j], latin)
		}
		if j < len(ls.ar) {
			if ls.translated {
				rc.drawArabicRight(t.arabicInstrRight, y, ls.ar[j], size)
			} else {
				rc.drawRight(t.arabicInstrRight, y, ls.ar[j], latin)
			}
		}
		rc.advance(g.SubLineGap)
	}
	rc.advance(g.InterStepGap)
	return nil
}

// freshCapacity is the height available to steps below the header row of
// an empty page.
func (t *TaperingRenderer) freshCapacity() float64 {
	rc := t.rc
	return rc.top - rc.g.LineGap - rc.bottom
}
