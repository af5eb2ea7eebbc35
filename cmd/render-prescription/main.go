// render-prescription renders a prescription record as a bilingual
// English/Arabic PDF.
//
// The record is a JSON document with patient details, medications with
// optional tapering schedules, instructions and notes. Every page carries a
// decorative border and a clinic footer, and the first page carries a QR
// code identifying the patient.
//
// Usage:
//
//	render-prescription -in record.json -out prescription.pdf [options]
//
// Required flags:
//
//	-in string    Path to the prescription record (JSON)
//	-out string   Path to write the PDF
//
// Options:
//
//	-config string     Path to a YAML file overriding clinic, fonts and translation settings
//	-font-dir string   Directory searched first for an Arabic font
//	-no-translate      Use the built-in glossary only, never Cloud Translation
//	-timeout duration  Bound on each Cloud Translation call (default 5s)
//	-layout string     Path to save an hOCR-style trace of every drawn run
//	-verify            Check the written PDF has one decoration group per page
//	-overwrite         Replace -out if it already exists
//	-debug             Log at debug level
//
// Environment:
//
//	PRESCRIPTION_FONT_DIR     Extra font directories, separated like PATH
//	PRESCRIPTION_NO_NETWORK   Disable font download and Cloud Translation
//	GOOGLE_TRANSLATE_API_KEY  API key for Cloud Translation
//	GOOGLE_APPLICATION_CREDENTIALS  Service account file for Cloud Translation
//
// Exit status is 0 on success, 2 for an unreadable or invalid record, 3 when
// no usable font could be loaded, 4 when the PDF could not be written or
// failed verification, 5 when interrupted and 1 for anything else.
//
// Examples:
//
//	# Render with the default clinic block
//	render-prescription -in rx.json -out rx.pdf
//
//	# Offline, with a local font directory and a layout trace
//	PRESCRIPTION_NO_NETWORK=1 render-prescription -in rx.json -out rx.pdf \
//	  -font-dir ./fonts -layout rx.html -verify
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gardar/rxscribe/pkg/fonts"
	"github.com/gardar/rxscribe/pkg/layout"
	"github.com/gardar/rxscribe/pkg/rxpdf"
	"github.com/gardar/rxscribe/pkg/translate"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitInput     = 2
	exitFont      = 3
	exitOutput    = 4
	exitCancelled = 5
)

// errVerify marks a written document that failed inspection.
var errVerify = errors.New("verification failed")

type options struct {
	in, out     string
	configPath  string
	fontDir     string
	layoutPath  string
	noTranslate bool
	verify      bool
	overwrite   bool
	debug       bool
	timeout     time.Duration
	provided    map[string]bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("render-prescription", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.in, "in", "", "Path to the prescription record JSON (required)")
	fs.StringVar(&opts.out, "out", "", "Path to write the PDF (required)")
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&opts.fontDir, "font-dir", "", "Directory searched first for an Arabic font")
	fs.StringVar(&opts.layoutPath, "layout", "", "Path to save the layout trace (hOCR)")
	fs.BoolVar(&opts.noTranslate, "no-translate", false, "Disable Cloud Translation; use the glossary only")
	fs.BoolVar(&opts.verify, "verify", false, "Verify decoration groups in the written PDF")
	fs.BoolVar(&opts.overwrite, "overwrite", false, "Replace the output file if it exists")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	fs.DurationVar(&opts.timeout, "timeout", translate.DefaultTimeout, "Timeout for each Cloud Translation call")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitInput
	}

	opts.provided = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		opts.provided[f.Name] = true
	})
	if opts.in == "" || opts.out == "" {
		fmt.Fprintln(stderr, "Error: -in and -out are required")
		fs.Usage()
		return exitInput
	}

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	err := render(ctx, opts, logger, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

func render(ctx context.Context, opts options, logger *slog.Logger, stdout io.Writer) error {
	yc := &yamlConfig{}
	if opts.configPath != "" {
		var err error
		if yc, err = loadConfig(opts.configPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	f, err := os.Open(opts.in)
	if err != nil {
		return &rxpdf.InputValidationError{Field: "record", Reason: err.Error()}
	}
	rx, err := rxpdf.ParseRecord(f)
	f.Close()
	if err != nil {
		return err
	}

	cfg, err := buildConfig(ctx, opts, yc, logger)
	if err != nil {
		return err
	}

	res, err := rxpdf.RenderToFile(ctx, rx, opts.out, cfg)
	if err != nil {
		return err
	}

	if opts.layoutPath != "" && res.Layout != nil {
		trace, err := layout.Generate(res.Layout)
		if err != nil {
			return fmt.Errorf("failed to generate layout trace: %w", err)
		}
		if err := os.WriteFile(opts.layoutPath, []byte(trace), 0o644); err != nil {
			return &rxpdf.OutputError{Path: opts.layoutPath, Err: err}
		}
	}

	if opts.verify {
		if err := verify(opts.out); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "Wrote %s (%d pages", opts.out, res.Pages)
	if len(res.Warnings) > 0 {
		fmt.Fprintf(stdout, ", %d warnings", len(res.Warnings))
	}
	fmt.Fprintln(stdout, ")")
	return nil
}

func buildConfig(ctx context.Context, opts options, yc *yamlConfig, logger *slog.Logger) (rxpdf.Config, error) {
	cfg := rxpdf.DefaultConfig()
	cfg.Logger = logger
	cfg.Overwrite = opts.overwrite
	cfg.TraceLayout = opts.layoutPath != ""

	if yc.Clinic != nil {
		cfg.Clinic = mergeClinic(cfg.Clinic, *yc.Clinic)
	}
	if yc.DigitOffset != nil {
		cfg.DigitOffset = *yc.DigitOffset
	}
	if yc.Letterhead != "" {
		data, err := os.ReadFile(yc.resolve(yc.Letterhead))
		if err != nil {
			return cfg, fmt.Errorf("failed to read letterhead: %w", err)
		}
		cfg.Letterhead = data
	}

	fc := fonts.ConfigFromEnv()
	fc.Logger = logger
	for i := len(yc.Fonts.Dirs) - 1; i >= 0; i-- {
		fc.Dirs = append([]string{yc.resolve(yc.Fonts.Dirs[i])}, fc.Dirs...)
	}
	if opts.fontDir != "" {
		fc.Dirs = append([]string{opts.fontDir}, fc.Dirs...)
	}
	fc.LatinPath = yc.resolve(yc.Fonts.Latin)
	fc.LatinBoldPath = yc.resolve(yc.Fonts.LatinBold)
	if yc.Fonts.CacheDir != "" {
		fc.CacheDir = yc.resolve(yc.Fonts.CacheDir)
	}
	if yc.Fonts.DownloadURL != "" {
		fc.DownloadURL = yc.Fonts.DownloadURL
	}
	if yc.Fonts.SearchSystem != nil {
		fc.SearchSystem = *yc.Fonts.SearchSystem
	}
	if yc.Fonts.Download != nil && !*yc.Fonts.Download {
		fc.AllowNetwork = false
	}
	cfg.Fonts = fonts.NewRegistry(fc)

	topts := []translate.Option{
		translate.WithLogger(logger),
		translate.WithTimeout(opts.timeout),
		translate.WithGlossary(translate.DefaultGlossary().Merge(yc.Translation.Glossary)),
	}
	if yc.Translation.Timeout > 0 && !opts.provided["timeout"] {
		topts = append(topts, translate.WithTimeout(yc.Translation.Timeout))
	}
	if yc.Translation.MaxFailures != nil {
		topts = append(topts, translate.WithMaxFailures(*yc.Translation.MaxFailures))
	}
	if !opts.noTranslate && !fonts.NoNetwork() && yc.google() {
		adapter, err := translate.GoogleAdapterFromEnv(ctx)
		switch {
		case err == nil:
			topts = append(topts, translate.WithAdapter(adapter))
		case errors.Is(err, translate.ErrNoCredentials):
			logger.Debug("Cloud Translation disabled", slog.String("reason", err.Error()))
		default:
			logger.Warn("Cloud Translation unavailable", slog.String("error", err.Error()))
		}
	}
	cfg.Translator = translate.New(topts...)
	return cfg, nil
}

// mergeClinic overlays the non-empty fields of c onto base.
func mergeClinic(base, c rxpdf.Clinic) rxpdf.Clinic {
	if c.Name != "" {
		base.Name = c.Name
	}
	if c.Address != "" {
		base.Address = c.Address
	}
	if c.AddressArabic != "" {
		base.AddressArabic = c.AddressArabic
	}
	if c.Contact != "" {
		base.Contact = c.Contact
	}
	if len(c.Header) > 0 {
		base.Header = c.Header
	}
	return base
}

func verify(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &rxpdf.OutputError{Path: path, Err: err}
	}
	in, err := rxpdf.InspectPDF(data)
	if err != nil {
		return fmt.Errorf("%w: %w", errVerify, err)
	}
	if err := in.Verify(); err != nil {
		return fmt.Errorf("%w: %w", errVerify, err)
	}
	return nil
}

func exitCode(err error) int {
	var (
		ve *rxpdf.InputValidationError
		fe *rxpdf.FontResolutionError
		oe *rxpdf.OutputError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, rxpdf.ErrCancelled), errors.Is(err, context.Canceled):
		return exitCancelled
	case errors.As(err, &ve):
		return exitInput
	case errors.As(err, &fe):
		return exitFont
	case errors.As(err, &oe), errors.Is(err, errVerify):
		return exitOutput
	}
	return exitFailure
}
