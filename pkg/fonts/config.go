package fonts

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDownloadURL points at the regular face of Amiri, used when no
// Arabic font is installed.
const DefaultDownloadURL = "https://github.com/aliftype/amiri/raw/1.000/fonts/Amiri-Regular.ttf"

// DefaultCandidates lists Arabic font files in order of preference.
var DefaultCandidates = []string{
	"Amiri-Regular.ttf",
	"Amiri.ttf",
	"ScheherazadeNew-Regular.ttf",
	"Scheherazade-Regular.ttf",
	"NotoNaskhArabic-Regular.ttf",
	"NotoSansArabic-Regular.ttf",
	"DubaiW23-Regular.ttf",
	"Dubai-Regular.ttf",
	"IBMPlexSansArabic-Regular.ttf",
	"tahoma.ttf",
	"DejaVuSans.ttf",
	"arial.ttf",
}

// Config holds the font search settings.
type Config struct {
	// Dirs are searched before anything else, in order.
	Dirs []string
	// Candidates are matched case-insensitively against file base names.
	Candidates []string
	// SearchSystem adds the operating system font directories.
	SearchSystem bool
	// AllowNetwork permits one download of DownloadURL when nothing matched.
	AllowNetwork bool
	DownloadURL  string
	// CacheDir receives downloaded fonts. Empty means the user cache dir.
	CacheDir string
	// LatinPath and LatinBoldPath replace the embedded Go fonts.
	LatinPath     string
	LatinBoldPath string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// DefaultConfig returns a configuration that searches every known location
// and may download a font.
func DefaultConfig() Config {
	return Config{
		Candidates:   DefaultCandidates,
		SearchSystem: true,
		AllowNetwork: true,
		DownloadURL:  DefaultDownloadURL,
	}
}

// ConfigFromEnv returns DefaultConfig adjusted by PRESCRIPTION_FONT_DIR and
// PRESCRIPTION_NO_NETWORK.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if dirs := os.Getenv("PRESCRIPTION_FONT_DIR"); dirs != "" {
		for _, d := range filepath.SplitList(dirs) {
			if d != "" {
				cfg.Dirs = append(cfg.Dirs, d)
			}
		}
	}
	if NoNetwork() {
		cfg.AllowNetwork = false
	}
	return cfg
}

// NoNetwork reports whether PRESCRIPTION_NO_NETWORK disables network access.
func NoNetwork() bool {
	v := strings.TrimSpace(os.Getenv("PRESCRIPTION_NO_NETWORK"))
	switch strings.ToLower(v) {
	case "", "0", "false", "no":
		return false
	}
	return true
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// searchDirs returns the directories to scan, in priority order.
func (c Config) searchDirs() []string {
	dirs := append([]string(nil), c.Dirs...)
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), "fonts"))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, filepath.Join(wd, "fonts"))
	}
	if c.SearchSystem {
		dirs = append(dirs, systemDirs()...)
	}
	return dirs
}

func systemDirs() []string {
	home, _ := os.UserHomeDir()
	dirs := []string{
		"/usr/share/fonts",
		"/usr/local/share/fonts",
		"/Library/Fonts",
		"/System/Library/Fonts",
	}
	if home != "" {
		dirs = append(dirs,
			filepath.Join(home, ".fonts"),
			filepath.Join(home, ".local", "share", "fonts"),
			filepath.Join(home, "Library", "Fonts"),
		)
	}
	if windir := os.Getenv("WINDIR"); windir != "" {
		dirs = append(dirs, filepath.Join(windir, "Fonts"))
	}
	return dirs
}
