package rxpdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/rxscribe/pkg/translate"
)

func TestTaperingMirrorsUntranslatedSteps(t *testing.T) {
	cfg := testConfig()
	cfg.Translator = translate.New(
		translate.WithLogger(discard),
		translate.WithAdapter(translate.AdapterFunc(func(context.Context, string, string) (string, error) {
			return "", errors.New("service unavailable")
		})),
	)
	rx := s2Record()
	rx.Medications[0].Tapering = []TaperStep{
		{Label: "1", InstructionText: "Instill into lower fornix"},
		{Label: "2", InstructionText: "QID for 1 week"},
	}
	rec, _ := render(t, cfg, rx)

	const (
		englishInstrLeft = 54 + 10 + 50
		arabicInstrRight = 558 - 10 - 50
	)
	cells := rec.Filter(func(op Op) bool { return op.Kind == OpText && op.Text == "Instill into lower fornix" })
	require.Len(t, cells, 2)
	english, mirror := cells[0], cells[1]
	assert.Equal(t, float64(englishInstrLeft), english.X)
	assert.InDelta(t, arabicInstrRight, mirror.X+mirror.Width, 1)
	assert.Equal(t, english.Y, mirror.Y)
	assert.Equal(t, FaceLatin, mirror.Style.Face)

	// Glossary steps keep their Arabic mirror.
	lookup, found := translate.New(translate.WithLogger(discard)).Lookup("QID for 1 week")
	require.True(t, found)
	ar, ok := findText(rec.Texts(), shaped(t, wrap(lookup, cfg.TaperWrapWidth)[0]))
	require.True(t, ok)
	assert.Equal(t, FaceArabic, ar.Style.Face)
	assert.InDelta(t, arabicInstrRight, ar.X+ar.Width, 1)
}

func TestTaperingHeaderKeepsFirstStep(t *testing.T) {
	rc, rec := newTestContext(t, testConfig())
	g := rc.g
	// Room for the separator and the header row, but not the first step.
	rc.moveTo(rc.bottom + g.SmallGap + g.LineGap + 1)

	require.NoError(t, newTaperingRenderer(rc).Render(s2Record().Medications[0].Tapering))

	headers := rec.Filter(func(op Op) bool {
		return op.Kind == OpText && op.Text == "Step" && op.Style.Face == FaceLatinBold
	})
	require.Len(t, headers, 1)
	assert.Equal(t, 2, headers[0].Page)

	first, ok := findText(rec.Texts(), "1.")
	require.True(t, ok)
	assert.Equal(t, 2, first.Page)
	assert.Equal(t, headers[0].Y-g.LineGap, first.Y)
}
