package rxpdf

import (
	"context"
	"log/slog"
	"time"

	"github.com/gardar/rxscribe/pkg/arabic"
	"github.com/gardar/rxscribe/pkg/fonts"
	"github.com/gardar/rxscribe/pkg/qr"
	"github.com/gardar/rxscribe/pkg/translate"
)

// Config holds the options for rendering prescriptions.
type Config struct {
	Geometry Geometry

	BodySize   float64 // patient block, details, instructions
	HeaderSize float64 // first clinic header line and medication headers
	TableSize  float64 // tapering table
	FooterSize float64

	WrapWidth      int // characters per instructions/notes line
	TaperWrapWidth int // characters per tapering instruction line

	// DigitOffset is added to the baseline of runs carrying Eastern-Arabic
	// digits. It depends on the Arabic font in use.
	DigitOffset float64
	Shape       arabic.ShapeOptions

	QRSize    float64 // points
	QRPixels  int
	QREncoder qr.Encoder // nil uses qr.Skip2

	Clinic     Clinic
	Letterhead []byte // PDF whose first page is drawn under every page

	Clock      Clock
	Logger     *slog.Logger
	Translator Translator
	Fonts      FontSource

	// OnPage is called after a page has been started and decorated.
	OnPage func(page int)
	// TraceLayout records the position of every drawn run in Result.Layout.
	TraceLayout bool
	// Overwrite lets RenderToFile replace an existing file.
	Overwrite bool
}

// Geometry holds page margins and vertical rhythm, in points. Vertical
// positions are measured from the bottom edge.
type Geometry struct {
	LeftMargin    float64
	RightMargin   float64 // distance from the right edge
	TopMargin     float64 // distance from the top edge to the first baseline
	BottomReserve float64 // no content baseline below this

	LineGap      float64
	SectionGap   float64
	SmallGap     float64
	SubLineGap   float64 // between wrapped lines of a tapering step
	InterStepGap float64

	SmallIndent           float64
	StepColumnWidth       float64
	SmallInset            float64
	ArabicStepColumnWidth float64

	BorderInset float64
	FooterTop   float64 // separator line above the footer block
}

// Clinic describes the practice printed in headers and footers.
type Clinic struct {
	Name          string   `yaml:"name"`
	Address       string   `yaml:"address"`
	AddressArabic string   `yaml:"address_arabic"`
	Contact       string   `yaml:"contact"`
	Header        []string `yaml:"header"`
}

// Clock supplies the print timestamp.
type Clock interface {
	Now() time.Time
}

// ClockFunc lets a function serve as a Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Translator resolves English phrases to Arabic and never fails; it returns
// the input when no translation is known.
type Translator interface {
	Translate(ctx context.Context, phrase string) string
}

// FontSource resolves the faces of a document.
type FontSource interface {
	ResolveArabic(ctx context.Context) *fonts.Handle
	ResolveLatin() (*fonts.Handle, error)
	ResolveLatinBold() (*fonts.Handle, error)
}

// DefaultGeometry lays out US Letter with 0.75in side margins.
func DefaultGeometry() Geometry {
	return Geometry{
		LeftMargin:    54,
		RightMargin:   54,
		TopMargin:     36,
		BottomReserve: 72,

		LineGap:      14,
		SectionGap:   18,
		SmallGap:     6,
		SubLineGap:   12,
		InterStepGap: 4,

		SmallIndent:           10,
		StepColumnWidth:       50,
		SmallInset:            10,
		ArabicStepColumnWidth: 50,

		BorderInset: 10,
		FooterTop:   62,
	}
}

// DefaultConfig returns a config with sensible defaults. Fonts are searched
// as configured by the environment, and translation uses the built-in
// glossary only.
func DefaultConfig() Config {
	return Config{
		Geometry:       DefaultGeometry(),
		BodySize:       10,
		HeaderSize:     14,
		TableSize:      9,
		FooterSize:     8,
		WrapWidth:      80,
		TaperWrapWidth: 40,
		DigitOffset:    arabic.DefaultDigitOffset,
		Shape:          arabic.DefaultShapeOptions(),
		QRSize:         72,
		QRPixels:       256,
		Clinic: Clinic{
			Name:          "Eye Care Clinic",
			Address:       "12 University Street",
			AddressArabic: "١٢ شارع الجامعة",
			Contact:       "Tel: +1 555 0100",
			Header:        []string{"Eye Care Clinic", "عيادة العيون", "12 University Street"},
		},
		Clock:      SystemClock,
		Translator: translate.New(),
		Fonts:      fonts.NewRegistry(fonts.ConfigFromEnv()),
	}
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Config) blockMinimum() float64 {
	return 4*c.Geometry.LineGap + c.Geometry.SectionGap
}
