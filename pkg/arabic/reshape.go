package arabic

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var errInvalidUTF8 = errors.New("invalid UTF-8")

// ShapeOptions fixes how the Shaper treats optional Arabic features. A
// document uses one set of options throughout.
type ShapeOptions struct {
	KeepHarakat bool // keep diacritical marks in the output
	KeepTatweel bool // keep kashida characters in the output
	Ligatures   bool // substitute lam-alef ligatures
	SupportZWJ  bool // let ZWJ force a joining form; the ZWJ itself is dropped
}

// DefaultShapeOptions enables every feature.
func DefaultShapeOptions() ShapeOptions {
	return ShapeOptions{
		KeepHarakat: true,
		KeepTatweel: true,
		Ligatures:   true,
		SupportZWJ:  true,
	}
}

// Shaper turns logical-order text into glyph sequences a left-to-right
// backend can draw.
type Shaper struct {
	opts ShapeOptions
}

// NewShaper returns a Shaper bound to opts.
func NewShaper(opts ShapeOptions) *Shaper {
	return &Shaper{opts: opts}
}

// ShapeForPDF selects contextual forms and reorders the result into display
// order. Text without Arabic characters is returned unchanged.
func (s *Shaper) ShapeForPDF(text string) (string, error) {
	if !ContainsArabic(text) {
		return text, nil
	}
	if !utf8.ValidString(text) {
		return "", &ShapingError{Text: text, Err: errInvalidUTF8}
	}
	return Reorder(s.Reshape(text)), nil
}

// ShapeForUI selects contextual forms but keeps logical order, for toolkits
// that run their own bidi algorithm.
func (s *Shaper) ShapeForUI(text string) (string, error) {
	if !ContainsArabic(text) {
		return text, nil
	}
	if !utf8.ValidString(text) {
		return "", &ShapingError{Text: text, Err: errInvalidUTF8}
	}
	return s.Reshape(text), nil
}

// Reshape replaces Arabic letters with the presentation form matching their
// joining context. Marks stay after the letter they belong to.
func (s *Shaper) Reshape(text string) string {
	runes := []rune(norm.NFC.String(text))
	out := make([]rune, 0, len(runes))

	types := make([]joining, len(runes))
	for i, r := range runes {
		types[i] = joiningOf(r)
		if r == zwj && !s.opts.SupportZWJ {
			types[i] = joinNone
		}
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		jt := types[i]

		switch jt {
		case joinTransparent:
			if s.opts.KeepHarakat {
				out = append(out, r)
			}
			continue
		case joinCausing:
			if r == tatweel && s.opts.KeepTatweel {
				out = append(out, r)
			}
			continue
		case joinNone:
			if forms, ok := presentationForms[r]; ok {
				out = append(out, forms[formIsolated])
			} else if r != zwj {
				out = append(out, r)
			}
			continue
		}

		prev := neighbour(types, i, -1)
		next := neighbour(types, i, +1)
		connPrev := prev >= 0 && types[prev].joinsForward() && jt.joinsBackward()

		if s.opts.Ligatures && r == lam && next >= 0 {
			if lig, ok := lamAlef[runes[next]]; ok {
				if connPrev {
					out = append(out, lig[1])
				} else {
					out = append(out, lig[0])
				}
				// marks between lam and alef ride on the ligature
				if s.opts.KeepHarakat {
					out = append(out, runes[i+1:next]...)
				}
				i = next
				continue
			}
		}

		connNext := next >= 0 && jt.joinsForward() && types[next].joinsBackward()
		out = append(out, formFor(r, connPrev, connNext))
	}
	return string(out)
}

// neighbour returns the index of the nearest non-transparent character in
// direction step, or -1.
func neighbour(types []joining, i, step int) int {
	for j := i + step; j >= 0 && j < len(types); j += step {
		if types[j] != joinTransparent {
			if types[j] == joinNone {
				return -1
			}
			return j
		}
	}
	return -1
}

func formFor(r rune, connPrev, connNext bool) rune {
	forms := presentationForms[r]
	var want int
	switch {
	case connPrev && connNext:
		want = formMedial
	case connPrev:
		want = formFinal
	case connNext:
		want = formInitial
	default:
		want = formIsolated
	}
	if forms[want] != 0 {
		return forms[want]
	}
	if forms[formIsolated] != 0 {
		return forms[formIsolated]
	}
	return r
}
