package rxpdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gardar/rxscribe/pkg/arabic"
	"github.com/gardar/rxscribe/pkg/fonts"
	"github.com/gardar/rxscribe/pkg/translate"
)

// stubFonts serves the Go fonts. With arabic set, the Arabic face is an
// unparsed handle that claims full coverage.
type stubFonts struct {
	arabic bool
}

func (s stubFonts) ResolveLatin() (*fonts.Handle, error) {
	return fonts.NewHandle(fonts.LatinName, "", goregular.TTF)
}

func (s stubFonts) ResolveLatinBold() (*fonts.Handle, error) {
	return fonts.NewHandle(fonts.LatinBoldName, "", gobold.TTF)
}

func (s stubFonts) ResolveArabic(context.Context) *fonts.Handle {
	if !s.arabic {
		h, _ := fonts.NewHandle(fonts.LatinName, "", goregular.TTF)
		return h
	}
	return &fonts.Handle{Name: fonts.ArabicName, Family: "Stub Naskh", Data: goregular.TTF, Arabic: true}
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var printDate = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Fonts = stubFonts{arabic: true}
	cfg.Clock = ClockFunc(func() time.Time { return printDate })
	cfg.Logger = discard
	cfg.Translator = translate.New(translate.WithLogger(discard))
	return cfg
}

func render(t *testing.T, cfg Config, rx *Prescription) (*Recorder, *Result) {
	t.Helper()
	rec := NewRecorder()
	res, err := Render(context.Background(), rx, rec, cfg)
	require.NoError(t, err)
	require.NoError(t, rec.Err())
	return rec, res
}

// shaped runs s through the same pipeline the writer uses for Arabic runs.
func shaped(t *testing.T, s string) string {
	t.Helper()
	converted, _ := arabic.NewDigitConverter(0).ToEastern(s)
	out, err := arabic.NewShaper(arabic.DefaultShapeOptions()).ShapeForPDF(converted)
	require.NoError(t, err)
	return out
}

func findText(ops []Op, text string) (Op, bool) {
	for _, op := range ops {
		if op.Kind == OpText && op.Text == text {
			return op, true
		}
	}
	return Op{}, false
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func s1Record() *Prescription {
	return &Prescription{
		PatientID:   "42",
		PatientName: "John Smith",
		IssueDate:   "2025-01-15",
		Medications: []Medication{{
			Type:      "Tablet",
			Name:      "Aspirin",
			Dosage:    "100mg",
			Frequency: "Daily",
			Duration:  "7 days",
		}},
	}
}

func s2Record() *Prescription {
	return &Prescription{
		PatientID:   "1007",
		PatientName: "Jane Doe",
		IssueDate:   "2025-02-01",
		Medications: []Medication{{
			Type: "Eye Drops",
			Name: "Prednisolone Acetate 1%",
			Tapering: []TaperStep{
				{Label: "1", InstructionText: "QID for 1 week"},
				{Label: "2", InstructionText: "TID for 1 week"},
				{Label: "3", InstructionText: "BID for 1 week"},
				{Label: "4", InstructionText: "Daily for 1 week"},
			},
		}},
	}
}

// s3Record has eight medications with five-step tapers, enough for
// several pages.
func s3Record() *Prescription {
	rx := &Prescription{
		PatientID:   "314",
		PatientName: "Sam Lee",
		IssueDate:   "2025-03-10",
		Notes:       []string{"Follow up in 2 weeks"},
	}
	for i := range 8 {
		m := Medication{
			Type:      "Eye Drops",
			Name:      fmt.Sprintf("Medication %d", i+1),
			Dosage:    "1 drop",
			Frequency: "QID",
			Duration:  "5 weeks",
		}
		for j := range 5 {
			m.Tapering = append(m.Tapering, TaperStep{
				Label:           fmt.Sprint(j + 1),
				InstructionText: fmt.Sprintf("Apply one drop to the affected eye %d times daily for 1 week", 5-j),
			})
		}
		rx.Medications = append(rx.Medications, m)
	}
	return rx
}
