// Package arabic prepares Arabic text for drawing backends that place glyphs
// strictly left to right and do no shaping of their own.
//
// The package provides:
//
// - Script predicates used to decide whether a run needs shaping, right
// alignment or a digit baseline correction
// - Contextual form selection (isolated, initial, medial, final) onto the
// Arabic Presentation Forms blocks, including the mandatory lam-alef ligatures
// - A bidirectional reordering pass that turns logical order into display order
// - Eastern-Arabic digit substitution with a configurable baseline offset
//
// Main Types and Functions:
//
// - Shaper: ShapeForPDF (shape and reorder) and ShapeForUI (shape only)
// - Reshape, Reorder: the two halves of ShapeForPDF
// - DigitConverter: ToEastern
// - IsArabicChar, ContainsArabic, IsPrimarilyArabic, ContainsEasternDigits
package arabic

import (
	"fmt"
)

// ShapingError reports text that could not be shaped for display.
type ShapingError struct {
	Text string // offending fragment
	Err  error  // underlying cause
}

func (e *ShapingError) Error() string {
	return fmt.Sprintf("arabic: shaping %q: %v", e.Text, e.Err)
}

func (e *ShapingError) Unwrap() error {
	return e.Err
}
