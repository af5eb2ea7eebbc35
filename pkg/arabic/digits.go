package arabic

import "strings"

// DefaultDigitOffset is the baseline correction for runs carrying
// Eastern-Arabic digits, in points, y axis pointing up. Common Naskh faces
// draw those digits slightly above Latin numerals.
const DefaultDigitOffset = -1.5

// DigitConverter substitutes Eastern-Arabic digits for ASCII digits.
type DigitConverter struct {
	// Offset is added to the baseline of any run that received substitutions.
	Offset float64
}

// NewDigitConverter returns a converter with the given baseline offset.
func NewDigitConverter(offset float64) DigitConverter {
	return DigitConverter{Offset: offset}
}

// ToEastern replaces '0'..'9' with U+0660..U+0669. The returned offset is
// d.Offset when at least one digit was replaced and zero otherwise.
func (d DigitConverter) ToEastern(s string) (string, float64) {
	if !strings.ContainsAny(s, "0123456789") {
		return s, 0
	}
	out := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return 0x0660 + (r - '0')
		}
		return r
	}, s)
	return out, d.Offset
}
