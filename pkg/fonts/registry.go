package fonts

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Registration names handed to drawing backends.
const (
	ArabicName    = "arabic"
	LatinName     = "latin"
	LatinBoldName = "latin-bold"
)

// Registry resolves the faces for one or more documents. ResolveArabic
// searches at most once per Registry.
type Registry struct {
	cfg Config
	log *slog.Logger

	once   sync.Once
	arabic *Handle
}

// NewRegistry returns a Registry using cfg.
func NewRegistry(cfg Config) *Registry {
	if len(cfg.Candidates) == 0 {
		cfg.Candidates = DefaultCandidates
	}
	if cfg.DownloadURL == "" {
		cfg.DownloadURL = DefaultDownloadURL
	}
	return &Registry{cfg: cfg, log: cfg.logger()}
}

// ResolveArabic returns an Arabic-capable handle. When no font qualifies it
// logs one warning and returns the Latin handle with Arabic set to false.
func (r *Registry) ResolveArabic(ctx context.Context) *Handle {
	r.once.Do(func() {
		r.arabic = r.resolveArabic(ctx)
	})
	return r.arabic
}

func (r *Registry) resolveArabic(ctx context.Context) *Handle {
	for _, path := range r.findCandidates() {
		h, err := load(ArabicName, path)
		if err != nil {
			r.log.Debug("Skipping unreadable font", slog.String("path", path), slog.Any("error", err))
			continue
		}
		if !h.Arabic {
			r.log.Debug("Skipping font without Arabic coverage", slog.String("path", path))
			continue
		}
		r.log.Info("Using Arabic font", slog.String("path", path), slog.String("family", h.Family))
		return h
	}

	if r.cfg.AllowNetwork {
		path, err := r.download(ctx)
		if err == nil {
			if h, err := load(ArabicName, path); err == nil && h.Arabic {
				r.log.Info("Using downloaded Arabic font", slog.String("path", path))
				return h
			}
			r.log.Warn("Downloaded font has no Arabic coverage", slog.String("path", path))
		} else {
			r.log.Warn("Arabic font download failed", slog.String("url", r.cfg.DownloadURL), slog.Any("error", err))
		}
	}

	r.log.Warn("No Arabic font available, Arabic text will not be shaped")
	latin, err := r.ResolveLatin()
	if err != nil {
		return nil
	}
	fallback := *latin
	fallback.Arabic = false
	return &fallback
}

// findCandidates lists the font files to try, in order. Each configured
// directory is searched in turn, and any TrueType or OpenType file in it
// qualifies, named candidates first. The remaining directories only
// contribute files named in Candidates, ordered by candidate priority, then
// directory priority.
func (r *Registry) findCandidates() []string {
	var paths []string
	seen := make(map[string]bool)
	add := func(list []string) {
		for _, p := range list {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}

	configured := make(map[string]bool, len(r.cfg.Dirs))
	for _, dir := range r.cfg.Dirs {
		configured[dir] = true
		named, other := r.scan([]string{dir})
		for _, list := range named {
			add(list)
		}
		add(other)
	}

	var rest []string
	for _, dir := range r.cfg.searchDirs() {
		if !configured[dir] {
			rest = append(rest, dir)
		}
	}
	named, _ := r.scan(rest)
	for _, list := range named {
		add(list)
	}
	return paths
}

// scan walks dirs once. named holds the files matching each candidate, in
// candidate order; other holds every remaining font file.
func (r *Registry) scan(dirs []string) (named [][]string, other []string) {
	want := make(map[string]int, len(r.cfg.Candidates))
	for i, c := range r.cfg.Candidates {
		want[strings.ToLower(c)] = i
	}

	named = make([][]string, len(r.cfg.Candidates))
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			name := strings.ToLower(d.Name())
			if i, ok := want[name]; ok {
				named[i] = append(named[i], path)
				return nil
			}
			switch filepath.Ext(name) {
			case ".ttf", ".otf":
				other = append(other, path)
			}
			return nil
		})
	}
	return named, other
}

// ResolveLatin returns the regular Latin face.
func (r *Registry) ResolveLatin() (*Handle, error) {
	return r.latin("resolve-latin", LatinName, r.cfg.LatinPath, goregular.TTF)
}

// ResolveLatinBold returns the bold Latin face.
func (r *Registry) ResolveLatinBold() (*Handle, error) {
	return r.latin("resolve-latin-bold", LatinBoldName, r.cfg.LatinBoldPath, gobold.TTF)
}

func (r *Registry) latin(op, name, path string, embedded []byte) (*Handle, error) {
	if path == "" {
		h, err := loadBytes(name, "go:"+name, embedded)
		if err != nil {
			return nil, &FontResolutionError{Op: op, Err: err}
		}
		return h, nil
	}
	h, err := load(name, path)
	if err != nil {
		return nil, &FontResolutionError{Op: op, Path: path, Err: err}
	}
	if !h.Covers('A') {
		return nil, &FontResolutionError{Op: op, Path: path, Err: errors.New("font has no Latin glyphs")}
	}
	return h, nil
}
