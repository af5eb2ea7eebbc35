package fonts

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func offlineConfig(dirs ...string) Config {
	return Config{
		Dirs:       dirs,
		Candidates: DefaultCandidates,
	}
}

func TestResolveLatinEmbedded(t *testing.T) {
	ResetCache()
	r := NewRegistry(offlineConfig())

	h, err := r.ResolveLatin()
	require.NoError(t, err)
	assert.Equal(t, LatinName, h.Name)
	assert.False(t, h.Arabic)
	assert.True(t, h.Covers('A'))
	assert.False(t, h.Covers('\u0628'))
	assert.Greater(t, h.Width("Aspirin", 10), 0.0)
	assert.InDelta(t, 2*h.Width("A", 10), h.Width("A", 20), 0.01)

	b, err := r.ResolveLatinBold()
	require.NoError(t, err)
	assert.Equal(t, LatinBoldName, b.Name)

	again, err := NewRegistry(offlineConfig()).ResolveLatin()
	require.NoError(t, err)
	assert.Same(t, h, again, "handles are shared through the process cache")
}

func TestResolveLatinMisconfigured(t *testing.T) {
	ResetCache()
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.ttf")
	require.NoError(t, os.WriteFile(bad, []byte("not a font"), 0o644))

	for _, path := range []string{bad, filepath.Join(dir, "absent.ttf")} {
		cfg := offlineConfig()
		cfg.LatinPath = path
		_, err := NewRegistry(cfg).ResolveLatin()
		var fre *FontResolutionError
		require.True(t, errors.As(err, &fre), "got %v", err)
		assert.Equal(t, "resolve-latin", fre.Op)
		assert.Equal(t, path, fre.Path)
	}
}

func TestMissing(t *testing.T) {
	ResetCache()
	h, err := NewRegistry(offlineConfig()).ResolveLatin()
	require.NoError(t, err)
	assert.Equal(t, []rune{0x0628}, h.Missing("Ab بب c"))
	assert.Empty(t, h.Missing("QID for 1 week"))
}

func TestResolveArabicRejectsFontsWithoutCoverage(t *testing.T) {
	ResetCache()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Amiri-Regular.ttf"), goregular.TTF, 0o644))

	var logs bytes.Buffer
	cfg := offlineConfig(dir)
	cfg.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	r := NewRegistry(cfg)

	h := r.ResolveArabic(context.Background())
	require.NotNil(t, h)
	assert.False(t, h.Arabic)
	assert.Equal(t, LatinName, h.Name)

	r.ResolveArabic(context.Background())
	assert.Equal(t, 1, strings.Count(logs.String(), "No Arabic font available"))
}

func TestFindCandidatesOrder(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "truetype", "amiri")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	for _, p := range []string{
		filepath.Join(dir, "DejaVuSans.ttf"),
		filepath.Join(nested, "AMIRI-REGULAR.TTF"),
		filepath.Join(dir, "unrelated.ttf"),
	} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	r := NewRegistry(offlineConfig(dir))
	assert.Equal(t, []string{
		filepath.Join(nested, "AMIRI-REGULAR.TTF"),
		filepath.Join(dir, "DejaVuSans.ttf"),
		filepath.Join(dir, "unrelated.ttf"),
	}, r.findCandidates())
}

func TestFindCandidatesConfiguredDirsFirst(t *testing.T) {
	clinic := t.TempDir()
	shared := t.TempDir()
	for _, p := range []string{
		filepath.Join(clinic, "ClinicArabic.ttf"),
		filepath.Join(clinic, "readme.txt"),
		filepath.Join(shared, "Amiri-Regular.ttf"),
		filepath.Join(shared, "Other.otf"),
	} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	r := NewRegistry(offlineConfig(clinic, shared))
	assert.Equal(t, []string{
		filepath.Join(clinic, "ClinicArabic.ttf"),
		filepath.Join(shared, "Amiri-Regular.ttf"),
		filepath.Join(shared, "Other.otf"),
	}, r.findCandidates())
}

func TestResolveArabicFromConfiguredDir(t *testing.T) {
	const system = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
	data, err := os.ReadFile(system)
	if err != nil {
		t.Skipf("no Arabic-capable font on this host: %v", err)
	}
	ResetCache()
	dir := t.TempDir()
	path := filepath.Join(dir, "ClinicArabic.ttf")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	h := NewRegistry(offlineConfig(dir)).ResolveArabic(context.Background())
	require.NotNil(t, h)
	require.True(t, h.Arabic)
	assert.Equal(t, ArabicName, h.Name)
	assert.Equal(t, path, h.Path)
}

func TestResolveArabicDownloadsOnce(t *testing.T) {
	ResetCache()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write(goregular.TTF)
	}))
	defer srv.Close()

	cache := t.TempDir()
	cfg := offlineConfig()
	cfg.Candidates = []string{"none-such.ttf"}
	cfg.AllowNetwork = true
	cfg.DownloadURL = srv.URL + "/Amiri-Regular.ttf"
	cfg.CacheDir = cache

	h := NewRegistry(cfg).ResolveArabic(context.Background())
	require.NotNil(t, h)
	assert.False(t, h.Arabic, "Go Regular has no Arabic glyphs")
	assert.FileExists(t, filepath.Join(cache, "Amiri-Regular.ttf"))

	NewRegistry(cfg).ResolveArabic(context.Background())
	assert.EqualValues(t, 1, hits.Load())
}

func TestResolveArabicDownloadFailure(t *testing.T) {
	ResetCache()
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := offlineConfig()
	cfg.Candidates = []string{"none-such.ttf"}
	cfg.AllowNetwork = true
	cfg.DownloadURL = srv.URL + "/Amiri-Regular.ttf"
	cfg.CacheDir = t.TempDir()

	h := NewRegistry(cfg).ResolveArabic(context.Background())
	require.NotNil(t, h)
	assert.False(t, h.Arabic)
	assert.NoFileExists(t, filepath.Join(cfg.CacheDir, "Amiri-Regular.ttf"))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PRESCRIPTION_FONT_DIR", "/a"+string(os.PathListSeparator)+"/b")
	t.Setenv("PRESCRIPTION_NO_NETWORK", "1")
	cfg := ConfigFromEnv()
	assert.Equal(t, []string{"/a", "/b"}, cfg.Dirs)
	assert.False(t, cfg.AllowNetwork)

	t.Setenv("PRESCRIPTION_NO_NETWORK", "false")
	assert.True(t, ConfigFromEnv().AllowNetwork)
}
