package rxpdf

import (
	"strings"
	"unicode/utf8"

	"github.com/gardar/rxscribe/pkg/arabic"
)

// BilingualLine is one labelled row: English on the left, its Arabic mirror
// on the right.
type BilingualLine struct {
	LabelEN string
	ValueEN string
	// LabelAR and ValueAR replace the translated mirror parts when set.
	LabelAR string
	ValueAR string
	// Verbatim copies ValueEN into the mirror untranslated, with digits
	// still converted.
	Verbatim bool
	Bold     bool
	Size     float64 // zero uses Config.BodySize
}

// LineWriter places lines at the cursor and breaks pages as needed.
type LineWriter struct {
	rc *renderContext
}

// WriteBilingual draws "label: value" at the left margin and, when an
// Arabic mirror can be derived, the mirror ending at the right margin on
// the same baseline.
func (lw *LineWriter) WriteBilingual(l BilingualLine) error {
	rc := lw.rc
	size := l.Size
	if size == 0 {
		size = rc.cfg.BodySize
	}
	gap := max(rc.g.LineGap, size+4)
	if err := rc.ensure(gap); err != nil {
		return err
	}

	face := FaceLatin
	if l.Bold {
		face = FaceLatinBold
	}
	rc.drawMixed(rc.left, rc.cursor, joinLabel(l.LabelEN, l.ValueEN), TextStyle{Face: face, Size: size, Color: Black})

	if mirror := lw.mirror(l); mirror != "" {
		rc.drawArabicRight(rc.right, rc.cursor, mirror, size)
	}
	rc.advance(gap)
	return nil
}

// mirror returns the Arabic side of l in logical order, or "" when there
// is none to draw.
func (lw *LineWriter) mirror(l BilingualLine) string {
	rc := lw.rc
	if !rc.arabicOK {
		return ""
	}
	label := l.LabelAR
	if label == "" && l.LabelEN != "" {
		label = rc.translate(l.LabelEN)
	}
	value := l.ValueAR
	if value == "" && l.ValueEN != "" {
		if l.Verbatim {
			value = l.ValueEN
		} else {
			value = rc.translate(l.ValueEN)
		}
	}
	if !arabic.ContainsArabic(label) && !arabic.ContainsArabic(value) {
		return ""
	}
	return joinLabel(label, value)
}

func joinLabel(label, value string) string {
	switch {
	case value == "":
		return label
	case label == "":
		return value
	}
	return label + ": " + value
}

// WriteWrapped wraps text at width characters and draws each line in its
// own direction: primarily Arabic lines end at the right margin, the rest
// start at the left margin.
func (lw *LineWriter) WriteWrapped(text string, width int) error {
	for _, line := range wrap(text, width) {
		if err := lw.writeLine(line); err != nil {
			return err
		}
	}
	return nil
}

func (lw *LineWriter) writeLine(line string) error {
	rc := lw.rc
	if err := rc.ensure(rc.g.LineGap); err != nil {
		return err
	}
	size := rc.cfg.BodySize
	latin := TextStyle{Face: FaceLatin, Size: size, Color: Black}
	if arabic.IsPrimarilyArabic(line, arabic.DefaultPrimaryThreshold) {
		text, dy, err := rc.arabicRun(line)
		if err != nil {
			rc.warn(line, err)
			rc.b.DrawText(rc.left, rc.cursor, line, latin)
		} else {
			rc.drawRight(rc.right, rc.cursor+dy, text, TextStyle{Face: FaceArabic, Size: size, Color: Black})
		}
	} else {
		rc.drawMixed(rc.left, rc.cursor, line, latin)
	}
	rc.advance(rc.g.LineGap)
	return nil
}

// WriteMirrored writes text like WriteWrapped and follows non-Arabic text
// with its translation, right-aligned on the lines beneath. The mirror is
// omitted when translation leaves the text unchanged.
func (lw *LineWriter) WriteMirrored(text string, width int) error {
	rc := lw.rc
	if err := lw.WriteWrapped(text, width); err != nil {
		return err
	}
	if !rc.arabicOK || arabic.IsPrimarilyArabic(text, arabic.DefaultPrimaryThreshold) {
		return nil
	}
	mirror := rc.translate(text)
	if mirror == text || !arabic.ContainsArabic(mirror) {
		return nil
	}
	for _, line := range wrap(mirror, width) {
		if err := rc.ensure(rc.g.LineGap); err != nil {
			return err
		}
		rc.drawArabicRight(rc.right, rc.cursor, line, rc.cfg.BodySize)
		rc.advance(rc.g.LineGap)
	}
	return nil
}

// WriteCentred draws a single line centred on the page.
func (lw *LineWriter) WriteCentred(text string, size float64, bold bool) error {
	rc := lw.rc
	gap := max(rc.g.LineGap, size+4)
	if err := rc.ensure(gap); err != nil {
		return err
	}
	st := TextStyle{Face: FaceLatin, Size: size, Color: Black}
	if bold {
		st.Face = FaceLatinBold
	}
	if arabic.IsPrimarilyArabic(text, arabic.DefaultPrimaryThreshold) {
		shaped, dy, err := rc.arabicRun(text)
		if err == nil {
			st.Face = FaceArabic
			text = shaped
			rc.b.DrawText((rc.w-rc.b.TextWidth(text, st.Face, size))/2, rc.cursor+dy, text, st)
		} else {
			rc.warn(text, err)
			rc.b.DrawText((rc.w-rc.b.TextWidth(text, st.Face, size))/2, rc.cursor, text, st)
		}
		rc.advance(gap)
		return nil
	}
	segs := rc.segments(text, st)
	rc.drawSegments((rc.w-rc.segmentsWidth(segs, st))/2, rc.cursor, segs, st)
	rc.advance(gap)
	return nil
}

// wrap breaks text on whitespace into lines of at most width characters.
// Words longer than width get a line of their own.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}
	var (
		lines []string
		cur   strings.Builder
		n     int
	)
	for _, w := range words {
		wn := utf8.RuneCountInString(w)
		if n > 0 && n+1+wn > width {
			lines = append(lines, cur.String())
			cur.Reset()
			n = 0
		}
		if n > 0 {
			cur.WriteByte(' ')
			n++
		}
		cur.WriteString(w)
		n += wn
	}
	return append(lines, cur.String())
}
