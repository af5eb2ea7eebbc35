package rxpdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/gardar/rxscribe/pkg/arabic"
	"github.com/gardar/rxscribe/pkg/fonts"
)

// renderContext is the mutable state of one render call.
type renderContext struct {
	ctx context.Context
	cfg *Config
	g   Geometry
	b   Backend
	log *slog.Logger

	w, h   float64
	left   float64 // left margin
	right  float64 // right margin, as an x coordinate
	top    float64 // first baseline of a fresh page
	bottom float64 // lowest allowed baseline

	cursor float64
	// onCursor observes every cursor move; reset marks a page break.
	onCursor func(page int, y float64, reset bool)

	chrome *PageChrome
	shaper *arabic.Shaper
	digits arabic.DigitConverter
	tr     Translator

	arabicFont *fonts.Handle
	arabicOK   bool

	result *Result
}

func newRenderContext(ctx context.Context, cfg *Config, b Backend, res *Result) *renderContext {
	w, h := b.PageSize()
	g := cfg.Geometry
	rc := &renderContext{
		ctx:    ctx,
		cfg:    cfg,
		g:      g,
		b:      b,
		log:    cfg.logger(),
		w:      w,
		h:      h,
		left:   g.LeftMargin,
		right:  w - g.RightMargin,
		top:    h - g.TopMargin,
		bottom: g.BottomReserve,
		shaper: arabic.NewShaper(cfg.Shape),
		digits: arabic.NewDigitConverter(cfg.DigitOffset),
		tr:     cfg.Translator,
		result: res,
	}
	rc.chrome = newPageChrome(rc)
	return rc
}

// checkCancel returns an error matching ErrCancelled once ctx is done.
func (rc *renderContext) checkCancel() error {
	if err := rc.ctx.Err(); err != nil {
		return cancelled(err)
	}
	return nil
}

// ensure starts a new page unless a line advancing the cursor by h still
// keeps it on or above the bottom reserve.
func (rc *renderContext) ensure(h float64) error {
	if rc.cursor-h >= rc.bottom {
		return nil
	}
	return rc.newPage()
}

// newPage starts and decorates a page, then moves the cursor to the top.
func (rc *renderContext) newPage() error {
	if err := rc.checkCancel(); err != nil {
		return err
	}
	rc.b.NewPage()
	if err := rc.b.Err(); err != nil {
		return &BackendDrawError{Op: "NewPage", Err: err}
	}
	page := rc.b.PageNumber()
	rc.chrome.Decorate(page)
	rc.result.Pages = page
	rc.cursor = rc.top
	if rc.onCursor != nil {
		rc.onCursor(page, rc.cursor, true)
	}
	if rc.cfg.OnPage != nil {
		rc.cfg.OnPage(page)
	}
	return nil
}

// advance moves the cursor down by d, never below the bottom reserve.
func (rc *renderContext) advance(d float64) {
	rc.moveTo(rc.cursor - d)
}

// moveTo lowers the cursor to y. Moves upwards are ignored.
func (rc *renderContext) moveTo(y float64) {
	y = max(y, rc.bottom)
	if y > rc.cursor {
		return
	}
	rc.cursor = y
	if rc.onCursor != nil {
		rc.onCursor(rc.b.PageNumber(), y, false)
	}
}

// warn records a recovered failure for fragment.
func (rc *renderContext) warn(fragment string, err error) {
	page := rc.b.PageNumber()
	rc.log.Warn("Fragment rendered without Arabic",
		slog.Int("page", page),
		slog.String("fragment", fragment),
		slog.String("reason", err.Error()))
	rc.result.Warnings = append(rc.result.Warnings, Warning{Page: page, Fragment: fragment, Reason: err.Error()})
}

func (rc *renderContext) translate(phrase string) string {
	if rc.tr == nil {
		return phrase
	}
	return rc.tr.Translate(rc.ctx, phrase)
}

// arabicRun converts digits, then shapes and reorders logical for drawing
// with the Arabic face. dy is the baseline correction for the run.
func (rc *renderContext) arabicRun(logical string) (text string, dy float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, dy = "", 0
			err = &ShapingError{Text: logical, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if !utf8.ValidString(logical) {
		return "", 0, &DigitConversionError{Text: logical, Err: errInvalidText}
	}
	converted, dy := rc.digits.ToEastern(logical)
	shaped, err := rc.shaper.ShapeForPDF(converted)
	if err != nil {
		return "", 0, err
	}
	if missing := rc.arabicFont.Missing(shaped); len(missing) > 0 {
		return "", 0, &missingGlyphsError{Font: rc.arabicFont.String(), Runes: missing}
	}
	return shaped, dy, nil
}

var errInvalidText = errors.New("invalid UTF-8")

type missingGlyphsError struct {
	Font  string
	Runes []rune
}

func (e *missingGlyphsError) Error() string {
	return fmt.Sprintf("font %s has no glyph for %q", e.Font, string(e.Runes))
}

// drawRight draws text so that it ends at x.
func (rc *renderContext) drawRight(x, y float64, text string, st TextStyle) {
	w := rc.b.TextWidth(text, st.Face, st.Size)
	rc.b.DrawText(x-w, y, text, st)
}

// drawArabicRight runs logical through the Arabic pipeline and draws it
// ending at x. It reports false, after recording a warning, when the run
// could not be prepared.
func (rc *renderContext) drawArabicRight(x, y float64, logical string, size float64) bool {
	text, dy, err := rc.arabicRun(logical)
	if err != nil {
		rc.warn(logical, err)
		return false
	}
	rc.drawRight(x, y+dy, text, TextStyle{Face: FaceArabic, Size: size, Color: Black})
	return true
}

// segment is one script run of a mixed line, ready to draw.
type segment struct {
	text string
	st   TextStyle
	dy   float64
	w    float64
}

// segments splits a left-to-right line into word runs of one script each.
// Runs holding Arabic are shaped for the Arabic face; one that cannot be
// shaped keeps the base style and records a warning. Without an Arabic font
// the line stays a single run in the base style.
func (rc *renderContext) segments(line string, base TextStyle) []segment {
	if !rc.arabicOK || !arabic.ContainsArabic(line) {
		return []segment{{text: line, st: base, w: rc.b.TextWidth(line, base.Face, base.Size)}}
	}

	var (
		out   []segment
		group []string
		isAR  bool
	)
	flush := func() {
		if len(group) == 0 {
			return
		}
		text := strings.Join(group, " ")
		group = group[:0]
		seg := segment{text: text, st: base}
		if isAR {
			shaped, dy, err := rc.arabicRun(text)
			if err != nil {
				rc.warn(text, err)
			} else {
				seg.text, seg.dy = shaped, dy
				seg.st = TextStyle{Face: FaceArabic, Size: base.Size, Color: base.Color}
			}
		}
		seg.w = rc.b.TextWidth(seg.text, seg.st.Face, seg.st.Size)
		out = append(out, seg)
	}
	for _, word := range strings.Fields(line) {
		ar := arabic.ContainsArabic(word)
		if len(group) > 0 && ar != isAR {
			flush()
		}
		isAR = ar
		group = append(group, word)
	}
	flush()
	return out
}

// segmentsWidth is the drawn width of segs, one base-face space apart.
func (rc *renderContext) segmentsWidth(segs []segment, base TextStyle) float64 {
	var w float64
	for i, s := range segs {
		if i > 0 {
			w += rc.b.TextWidth(" ", base.Face, base.Size)
		}
		w += s.w
	}
	return w
}

// drawSegments draws segs left to right starting at x.
func (rc *renderContext) drawSegments(x, y float64, segs []segment, base TextStyle) {
	space := rc.b.TextWidth(" ", base.Face, base.Size)
	for i, s := range segs {
		if i > 0 {
			x += space
		}
		rc.b.DrawText(x, y+s.dy, s.text, s.st)
		x += s.w
	}
}

// drawMixed draws a left-to-right line starting at x, with its Arabic runs
// shaped in the Arabic face.
func (rc *renderContext) drawMixed(x, y float64, line string, st TextStyle) {
	rc.drawSegments(x, y, rc.segments(line, st), st)
}

func (rc *renderContext) separator(p Paint) error {
	if err := rc.ensure(rc.g.SmallGap); err != nil {
		return err
	}
	y := rc.cursor + rc.g.SmallGap
	rc.b.DrawLine(rc.left, y, rc.right, y, p)
	rc.advance(rc.g.SmallGap)
	return nil
}
