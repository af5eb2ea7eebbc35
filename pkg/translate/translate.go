// Package translate resolves short English clinical phrases to Arabic.
//
// Lookups go through a chain that always produces a string:
//
// - An exact, case-insensitive glossary match
// - A word-by-word composition from glossary entries, with numbers and
// number-unit tokens kept in Latin digits
// - An optional external Adapter, bounded by a deadline
// - The input itself
//
// Every result, fallbacks included, is memoised per phrase for the life of
// the Translator.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds a single adapter call.
const DefaultTimeout = 5 * time.Second

// DefaultMaxFailures is the number of consecutive adapter failures after
// which the adapter is no longer called.
const DefaultMaxFailures = 3

// ErrEmptyResult is reported when an adapter returns an empty translation.
var ErrEmptyResult = errors.New("empty translation")

// TranslationError reports an adapter failure for one phrase. It is
// delivered to the failure hook and never returned to callers of Translate.
type TranslationError struct {
	Text string
	Err  error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translate %q: %v", e.Text, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// Translator is safe for concurrent use.
type Translator struct {
	glossary    Glossary
	adapter     Adapter
	timeout     time.Duration
	maxFailures int
	onFailure   func(error)
	log         *slog.Logger

	mu       sync.Mutex
	memo     map[string]string
	failures int
}

// Option configures a Translator.
type Option func(*Translator)

// WithGlossary replaces the built-in glossary.
func WithGlossary(g Glossary) Option {
	return func(t *Translator) { t.glossary = g }
}

// WithAdapter sets the external translator consulted on glossary misses.
func WithAdapter(a Adapter) Option {
	return func(t *Translator) { t.adapter = a }
}

// WithTimeout bounds each adapter call.
func WithTimeout(d time.Duration) Option {
	return func(t *Translator) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithMaxFailures sets how many consecutive adapter failures disable the
// adapter. Zero or less never disables it.
func WithMaxFailures(n int) Option {
	return func(t *Translator) { t.maxFailures = n }
}

// WithFailureHook registers a function receiving every *TranslationError.
func WithFailureHook(fn func(error)) Option {
	return func(t *Translator) { t.onFailure = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.log = l
		}
	}
}

// New returns a Translator using the built-in glossary and no adapter.
func New(opts ...Option) *Translator {
	t := &Translator{
		glossary:    DefaultGlossary(),
		timeout:     DefaultTimeout,
		maxFailures: DefaultMaxFailures,
		log:         slog.Default(),
		memo:        make(map[string]string),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate returns the Arabic rendering of phrase, or phrase itself when no
// translation is available. Digits stay in Latin form.
func (t *Translator) Translate(ctx context.Context, phrase string) string {
	key := normalize(phrase)
	if key == "" {
		return phrase
	}

	t.mu.Lock()
	if v, ok := t.memo[key]; ok {
		t.mu.Unlock()
		return v
	}
	t.mu.Unlock()

	out, ok := t.glossary.Lookup(phrase)
	if !ok {
		out, ok = t.glossary.Compose(phrase)
	}
	if !ok {
		out, ok = t.callAdapter(ctx, phrase)
	}
	if !ok {
		out = phrase
	}

	t.mu.Lock()
	t.memo[key] = out
	t.mu.Unlock()
	return out
}

// Lookup reports whether phrase has a glossary translation, without
// consulting the adapter.
func (t *Translator) Lookup(phrase string) (string, bool) {
	if out, ok := t.glossary.Lookup(phrase); ok {
		return out, true
	}
	return t.glossary.Compose(phrase)
}

func (t *Translator) adapterEnabled() bool {
	if t.adapter == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxFailures <= 0 || t.failures < t.maxFailures
}

type result struct {
	text string
	err  error
}

func (t *Translator) callAdapter(ctx context.Context, phrase string) (string, bool) {
	if !t.adapterEnabled() {
		return "", false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	// buffered so an adapter that ignores ctx does not leak a blocked goroutine
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("adapter panic: %v", r)}
			}
		}()
		s, err := t.adapter.Translate(ctx, phrase, "ar")
		ch <- result{text: s, err: err}
	}()

	var res result
	select {
	case res = <-ch:
		if res.err == nil && strings.TrimSpace(res.text) == "" {
			res.err = ErrEmptyResult
		}
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err != nil {
		t.fail(&TranslationError{Text: phrase, Err: res.err})
		return "", false
	}

	t.mu.Lock()
	t.failures = 0
	t.mu.Unlock()
	return latinDigits(strings.TrimSpace(res.text)), true
}

func (t *Translator) fail(err *TranslationError) {
	t.mu.Lock()
	t.failures++
	disabled := t.maxFailures > 0 && t.failures == t.maxFailures
	t.mu.Unlock()

	t.log.Warn("Translation failed", slog.String("fragment", err.Text), slog.String("reason", err.Err.Error()))
	if disabled {
		t.log.Warn("Translation adapter disabled after repeated failures", slog.Int("failures", t.maxFailures))
	}
	if t.onFailure != nil {
		t.onFailure(err)
	}
}

// latinDigits undoes any Eastern-Arabic digit substitution made by an
// adapter; digit conversion happens downstream.
func latinDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '\u0660' && r <= '\u0669' {
			return '0' + (r - '\u0660')
		}
		if r >= '\u06f0' && r <= '\u06f9' {
			return '0' + (r - '\u06f0')
		}
		return r
	}, s)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
