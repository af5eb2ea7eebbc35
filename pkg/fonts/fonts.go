// Package fonts locates the TrueType faces used to draw prescriptions.
//
// The package provides:
//
// - A Registry that searches a prioritised list of Arabic-capable fonts
// across configured, package-local and operating system directories
// - A single optional download of a known Arabic font into the user cache
// - Embedded Go fonts as the guaranteed Latin faces
// - Glyph coverage and advance-width queries on resolved handles
//
// Main Types and Functions:
//
// - Registry: ResolveArabic, ResolveLatin, ResolveLatinBold
// - Handle: Covers, Missing, Width
// - Config, DefaultConfig, ConfigFromEnv
// - ResetCache: clears the process-wide handle cache
package fonts

import (
	"fmt"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Handle is a parsed font ready to be registered with a drawing backend.
type Handle struct {
	Name   string // stable registration name
	Family string // family name read from the font, if any
	Path   string // source file, empty for embedded faces
	Data   []byte // raw TrueType bytes
	Arabic bool   // whether the face covers Arabic letters and presentation forms

	font *sfnt.Font
}

// NewHandle parses data and returns a handle registered under name.
func NewHandle(name, path string, data []byte) (*Handle, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, err
	}
	h := &Handle{Name: name, Path: path, Data: data, font: f}

	var buf sfnt.Buffer
	if fam, err := f.Name(&buf, sfnt.NameIDFamily); err == nil {
		h.Family = fam
	}
	h.Arabic = h.Covers('\u0628') && h.Covers('\ufe91')
	return h, nil
}

// Covers reports whether the font maps r to a glyph. A handle that was not
// built by NewHandle has unknown coverage and reports every rune as covered.
func (h *Handle) Covers(r rune) bool {
	if h == nil {
		return false
	}
	if h.font == nil {
		return true
	}
	var buf sfnt.Buffer
	idx, err := h.font.GlyphIndex(&buf, r)
	return err == nil && idx != 0
}

// Missing returns the distinct printable runes of s the font has no glyph
// for, in order of first appearance.
func (h *Handle) Missing(s string) []rune {
	var missing []rune
	seen := make(map[rune]bool)
	for _, r := range s {
		if seen[r] || unicode.IsSpace(r) || !unicode.IsPrint(r) || unicode.Is(unicode.Mn, r) {
			continue
		}
		seen[r] = true
		if !h.Covers(r) {
			missing = append(missing, r)
		}
	}
	return missing
}

// Width returns the advance width of s in points at the given size. Runes
// without a glyph count as half an em.
func (h *Handle) Width(s string, size float64) float64 {
	if h == nil || h.font == nil {
		return float64(len([]rune(s))) * size * 0.5
	}
	upem := h.font.UnitsPerEm()
	ppem := fixed.Int26_6(upem) << 6

	var buf sfnt.Buffer
	total := 0
	for _, r := range s {
		idx, err := h.font.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			total += int(upem) / 2
			continue
		}
		adv, err := h.font.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			total += int(upem) / 2
			continue
		}
		total += int(adv >> 6)
	}
	return float64(total) / float64(upem) * size
}

func (h *Handle) String() string {
	if h.Family != "" {
		return fmt.Sprintf("%s (%s)", h.Name, h.Family)
	}
	return h.Name
}

// FontResolutionError reports that a required face could not be loaded.
// Only the Latin faces are required.
type FontResolutionError struct {
	Op   string // resolve-latin, resolve-latin-bold
	Path string // offending file, if any
	Err  error
}

func (e *FontResolutionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("fonts: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("fonts: %s: %v", e.Op, e.Err)
}

func (e *FontResolutionError) Unwrap() error {
	return e.Err
}
