package translate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gtranslate "google.golang.org/api/translate/v2"
)

func TestGlossaryLookup(t *testing.T) {
	tr := New()
	assert.Equal(t, "قطرة للعين", tr.Translate(context.Background(), "Eye Drops"))
	assert.Equal(t, "قطرة للعين", tr.Translate(context.Background(), "  eye   DROPS "))
	assert.Equal(t, "الجرعة", tr.Translate(context.Background(), "Dosage"))
	assert.Equal(t, "رقم الملف", tr.Translate(context.Background(), "ID"))
}

func TestGlossaryCompose(t *testing.T) {
	g := DefaultGlossary()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"QID for 1 week", "أربع مرات يوميا لمدة أسبوع واحد", true},
		{"Apply BID for 5 days", "ضع مرتين يوميا لمدة 5 أيام", true},
		{"Daily for 2 weeks.", "مرة يوميا لمدة 2 أسابيع.", true},
		{"TID, then stop", "ثلاث مرات يوميا، ثم توقف", true},
		{"100mg", "", false},
		{"Apply sparingly", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := g.Compose(tt.in)
		assert.Equalf(t, tt.ok, ok, "Compose(%q)", tt.in)
		assert.Equalf(t, tt.want, got, "Compose(%q)", tt.in)
	}
}

func TestGlossaryMerge(t *testing.T) {
	g := DefaultGlossary().Merge(map[string]string{"  Artificial Tears ": "دموع صناعية"})
	v, ok := g.Lookup("artificial tears")
	require.True(t, ok)
	assert.Equal(t, "دموع صناعية", v)

	_, ok = DefaultGlossary().Lookup("artificial tears")
	assert.False(t, ok, "DefaultGlossary returns a copy")
}

func TestAdapterUsedOnMiss(t *testing.T) {
	var calls atomic.Int32
	tr := New(WithAdapter(AdapterFunc(func(_ context.Context, text, lang string) (string, error) {
		calls.Add(1)
		assert.Equal(t, "ar", lang)
		return "ترجمة ٣ &amp;", nil
	})))

	got := tr.Translate(context.Background(), "Keep refrigerated")
	assert.Equal(t, "ترجمة 3 &amp;", got, "digits are returned in Latin form")

	tr.Translate(context.Background(), "keep  refrigerated")
	assert.EqualValues(t, 1, calls.Load(), "result is memoised")

	tr.Translate(context.Background(), "Tablet")
	assert.EqualValues(t, 1, calls.Load(), "glossary hits skip the adapter")
}

func TestAdapterFailureFallsBackToInput(t *testing.T) {
	var hooked []error
	tr := New(
		WithAdapter(AdapterFunc(func(context.Context, string, string) (string, error) {
			return "", errors.New("quota exceeded")
		})),
		WithFailureHook(func(err error) { hooked = append(hooked, err) }),
	)

	assert.Equal(t, "Keep refrigerated", tr.Translate(context.Background(), "Keep refrigerated"))
	assert.Equal(t, "قطرة للعين", tr.Translate(context.Background(), "Eye Drops"))

	require.Len(t, hooked, 1)
	var te *TranslationError
	require.True(t, errors.As(hooked[0], &te))
	assert.Equal(t, "Keep refrigerated", te.Text)
}

func TestAdapterEmptyResultIsFailure(t *testing.T) {
	tr := New(WithAdapter(AdapterFunc(func(context.Context, string, string) (string, error) {
		return "  ", nil
	})))
	assert.Equal(t, "Keep cool", tr.Translate(context.Background(), "Keep cool"))
}

func TestAdapterPanicIsRecovered(t *testing.T) {
	tr := New(WithAdapter(AdapterFunc(func(context.Context, string, string) (string, error) {
		panic("boom")
	})))
	assert.Equal(t, "Keep cool", tr.Translate(context.Background(), "Keep cool"))
}

func TestAdapterTimeout(t *testing.T) {
	var failures []error
	tr := New(
		WithTimeout(50*time.Millisecond),
		WithAdapter(AdapterFunc(func(context.Context, string, string) (string, error) {
			time.Sleep(10 * time.Second)
			return "late", nil
		})),
		WithFailureHook(func(err error) { failures = append(failures, err) }),
	)

	start := time.Now()
	got := tr.Translate(context.Background(), "Keep refrigerated")
	assert.Equal(t, "Keep refrigerated", got)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], context.DeadlineExceeded)
}

func TestAdapterDisabledAfterMaxFailures(t *testing.T) {
	var calls atomic.Int32
	tr := New(
		WithMaxFailures(2),
		WithAdapter(AdapterFunc(func(context.Context, string, string) (string, error) {
			calls.Add(1)
			return "", errors.New("unavailable")
		})),
	)
	for _, p := range []string{"one thing", "two things", "three things", "four things"} {
		assert.Equal(t, p, tr.Translate(context.Background(), p))
	}
	assert.EqualValues(t, 2, calls.Load())
}

func TestLookupSkipsAdapter(t *testing.T) {
	tr := New(WithAdapter(AdapterFunc(func(context.Context, string, string) (string, error) {
		t.Fatal("adapter must not be called")
		return "", nil
	})))
	_, ok := tr.Lookup("Keep cool")
	assert.False(t, ok)
	v, ok := tr.Lookup("BID for 1 week")
	assert.True(t, ok)
	assert.Equal(t, "مرتين يوميا لمدة أسبوع واحد", v)
}

func TestFirstTranslation(t *testing.T) {
	got, err := firstTranslation(&gtranslate.TranslationsListResponse{
		Translations: []*gtranslate.TranslationsResource{{TranslatedText: "احفظ &quot;باردا&quot; &amp; جافا"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `احفظ "باردا" & جافا`, got)

	_, err = firstTranslation(&gtranslate.TranslationsListResponse{})
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestGoogleAdapterFromEnvWithoutCredentials(t *testing.T) {
	t.Setenv("GOOGLE_TRANSLATE_API_KEY", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := GoogleAdapterFromEnv(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}
