package rxpdf

import (
	"errors"
	"fmt"

	"github.com/gardar/rxscribe/pkg/arabic"
	"github.com/gardar/rxscribe/pkg/fonts"
	"github.com/gardar/rxscribe/pkg/translate"
)

// ErrCancelled is matched by the error returned when the render context is
// cancelled. The same error also matches the context's own error.
var ErrCancelled = errors.New("rxpdf: render cancelled")

// Errors raised by other packages and surfaced unchanged.
type (
	FontResolutionError = fonts.FontResolutionError
	ShapingError        = arabic.ShapingError
	TranslationError    = translate.TranslationError
)

// InputValidationError reports a malformed prescription. It is returned
// before anything is drawn.
type InputValidationError struct {
	Field  string // JSON path of the offending field, e.g. medications[1].name
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("rxpdf: invalid %s: %s", e.Field, e.Reason)
}

// DigitConversionError reports a fragment whose digits could not be
// converted. It is recovered at the line level.
type DigitConversionError struct {
	Text string
	Err  error
}

func (e *DigitConversionError) Error() string {
	return fmt.Sprintf("rxpdf: digit conversion %q: %v", e.Text, e.Err)
}

func (e *DigitConversionError) Unwrap() error {
	return e.Err
}

// BackendDrawError reports a failure inside the drawing backend. The
// document is in an unknown state and is discarded.
type BackendDrawError struct {
	Op  string // operation name, e.g. "NewPage", "Save"
	Err error
}

func (e *BackendDrawError) Error() string {
	return fmt.Sprintf("rxpdf.%s: %v", e.Op, e.Err)
}

func (e *BackendDrawError) Unwrap() error {
	return e.Err
}

// OutputError reports a failure writing the finished document.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("rxpdf: writing %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
