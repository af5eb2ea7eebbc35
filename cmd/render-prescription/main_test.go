package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/rxscribe/pkg/layout"
	"github.com/gardar/rxscribe/pkg/rxpdf"
)

const record = `{
  "patient_id": "42",
  "patient_name": "John Smith",
  "issue_date": "2025-01-15",
  "medications": [{
    "type": "Eye Drops", "name": "Prednisolone Acetate 1%",
    "dosage": "1 drop", "frequency": "QID", "duration": "4 weeks",
    "tapering": [
      {"label": "1", "instruction_text": "QID for 1 week"},
      {"label": "2", "instruction_text": "TID for 1 week"}
    ]
  }],
  "instructions": ["Shake well before use"]
}`

// offlineConfig keeps font resolution away from the host system so every
// run takes the Latin-only path.
const offlineConfig = `
clinic:
  name: "Lakeside Eye Clinic"
  header: ["Lakeside Eye Clinic"]
fonts:
  search_system: false
  download: false
translation:
  google: false
`

type fixture struct {
	dir    string
	in     string
	out    string
	config string
}

func newFixture(t *testing.T, rec string) fixture {
	t.Helper()
	t.Setenv("PRESCRIPTION_NO_NETWORK", "1")
	t.Setenv("PRESCRIPTION_FONT_DIR", "")
	t.Setenv("GOOGLE_TRANSLATE_API_KEY", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	dir := t.TempDir()
	f := fixture{
		dir:    dir,
		in:     filepath.Join(dir, "record.json"),
		out:    filepath.Join(dir, "out.pdf"),
		config: filepath.Join(dir, "clinic.yml"),
	}
	require.NoError(t, os.WriteFile(f.in, []byte(rec), 0o644))
	require.NoError(t, os.WriteFile(f.config, []byte(offlineConfig), 0o644))
	return f
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunWritesVerifiedPDF(t *testing.T) {
	f := newFixture(t, record)
	trace := filepath.Join(f.dir, "trace.html")

	code, stdout, stderr := runCLI("-in", f.in, "-out", f.out, "-config", f.config,
		"-layout", trace, "-verify", "-no-translate")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Wrote "+f.out+" (1 pages")

	data, err := os.ReadFile(f.out)
	require.NoError(t, err)
	in, err := rxpdf.InspectPDF(data)
	require.NoError(t, err)
	assert.Equal(t, 1, in.Pages)
	assert.NoError(t, in.Verify())

	html, err := os.ReadFile(trace)
	require.NoError(t, err)
	doc, err := layout.Parse(html)
	require.NoError(t, err)
	assert.NotEmpty(t, layout.Find(&doc, "Lakeside Eye Clinic"))
	assert.NotEmpty(t, layout.Find(&doc, "QID for 1 week"))
}

func TestRunRefusesExistingOutput(t *testing.T) {
	f := newFixture(t, record)
	require.NoError(t, os.WriteFile(f.out, []byte("keep"), 0o644))

	code, _, stderr := runCLI("-in", f.in, "-out", f.out, "-config", f.config)
	assert.Equal(t, exitOutput, code)
	assert.Contains(t, stderr, "file already exists")

	data, err := os.ReadFile(f.out)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))

	code, _, stderr = runCLI("-in", f.in, "-out", f.out, "-config", f.config, "-overwrite")
	require.Equal(t, exitOK, code, stderr)
	data, err = os.ReadFile(f.out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRunInputErrors(t *testing.T) {
	tests := []struct {
		name   string
		record string
		args   func(f fixture) []string
		want   string
	}{
		{
			name:   "missing flags",
			record: record,
			args:   func(f fixture) []string { return []string{"-in", f.in} },
			want:   "-in and -out are required",
		},
		{
			name:   "unknown flag",
			record: record,
			args:   func(f fixture) []string { return []string{"-colour", "blue"} },
			want:   "flag provided but not defined",
		},
		{
			name:   "missing record",
			record: record,
			args: func(f fixture) []string {
				return []string{"-in", filepath.Join(f.dir, "nope.json"), "-out", f.out, "-config", f.config}
			},
			want: "invalid record",
		},
		{
			name:   "invalid record",
			record: `{"patient_id": "", "issue_date": "2025-01-15"}`,
			args: func(f fixture) []string {
				return []string{"-in", f.in, "-out", f.out, "-config", f.config}
			},
			want: "invalid patient_id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.record)
			code, _, stderr := runCLI(tt.args(f)...)
			assert.Equal(t, exitInput, code)
			assert.Contains(t, stderr, tt.want)
			assert.NoFileExists(t, f.out)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t, record)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"-in", f.in, "-out", f.out, "-config", f.config}, &stdout, &stderr)
	assert.Equal(t, exitCancelled, code)
	assert.NoFileExists(t, f.out)
}

func TestRunBadConfig(t *testing.T) {
	f := newFixture(t, record)
	require.NoError(t, os.WriteFile(f.config, []byte("clinic: [unterminated"), 0o644))

	code, _, stderr := runCLI("-in", f.in, "-out", f.out, "-config", f.config)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "failed to load config")
}

func TestLoadConfigResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clinic.yml")
	body := strings.Join([]string{
		"letterhead: art/letterhead.pdf",
		"digit_offset: -2",
		"fonts:",
		"  dirs: [fonts, /opt/fonts]",
		"translation:",
		"  timeout: 2s",
		"  glossary:",
		"    Use sparingly: استخدم باعتدال",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	yc, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "art", "letterhead.pdf"), yc.resolve(yc.Letterhead))
	assert.Equal(t, filepath.Join(dir, "fonts"), yc.resolve(yc.Fonts.Dirs[0]))
	assert.Equal(t, "/opt/fonts", yc.resolve(yc.Fonts.Dirs[1]))
	require.NotNil(t, yc.DigitOffset)
	assert.Equal(t, -2.0, *yc.DigitOffset)
	assert.Equal(t, "2s", yc.Translation.Timeout.String())
	assert.Equal(t, "استخدم باعتدال", yc.Translation.Glossary["Use sparingly"])
	assert.True(t, yc.google())
}

func TestMergeClinic(t *testing.T) {
	base := rxpdf.DefaultConfig().Clinic
	got := mergeClinic(base, rxpdf.Clinic{Name: "Lakeside Eye Clinic"})
	assert.Equal(t, "Lakeside Eye Clinic", got.Name)
	assert.Equal(t, base.Address, got.Address)
	assert.Equal(t, base.Header, got.Header)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitInput, exitCode(&rxpdf.InputValidationError{Field: "record"}))
	assert.Equal(t, exitFont, exitCode(&rxpdf.FontResolutionError{Op: "ResolveLatin", Err: os.ErrNotExist}))
	assert.Equal(t, exitOutput, exitCode(&rxpdf.OutputError{Path: "x.pdf", Err: os.ErrPermission}))
	assert.Equal(t, exitOutput, exitCode(errVerify))
	assert.Equal(t, exitCancelled, exitCode(context.Canceled))
	assert.Equal(t, exitFailure, exitCode(os.ErrClosed))
}
