package rxpdf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gardar/rxscribe/pkg/arabic"
	"github.com/gardar/rxscribe/pkg/fonts"
	"github.com/gardar/rxscribe/pkg/layout"
	"github.com/gardar/rxscribe/pkg/qr"
)

// Result describes a finished render.
type Result struct {
	ID         string // render identifier, also used in log records
	Pages      int
	Warnings   []Warning
	ArabicFont string
	// Degraded is set when no Arabic font was available and Arabic mirrors
	// were omitted.
	Degraded bool
	// Layout holds the position of every drawn run when Config.TraceLayout
	// is set.
	Layout *layout.Document
}

// Warning is a fragment that was drawn in a reduced form.
type Warning struct {
	Page     int
	Fragment string
	Reason   string
}

// Composer lays out prescriptions.
type Composer struct {
	cfg Config

	// onCursor observes cursor moves; set by tests.
	onCursor func(page int, y float64, reset bool)
}

// NewComposer returns a Composer using cfg. Zero-valued collaborators fall
// back to those of DefaultConfig.
func NewComposer(cfg Config) *Composer {
	def := DefaultConfig()
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if cfg.Fonts == nil {
		cfg.Fonts = def.Fonts
	}
	if cfg.Translator == nil {
		cfg.Translator = def.Translator
	}
	if cfg.Geometry == (Geometry{}) {
		cfg.Geometry = def.Geometry
	}
	if cfg.BodySize == 0 {
		cfg.BodySize, cfg.HeaderSize, cfg.TableSize, cfg.FooterSize = def.BodySize, def.HeaderSize, def.TableSize, def.FooterSize
	}
	if cfg.WrapWidth == 0 {
		cfg.WrapWidth = def.WrapWidth
	}
	if cfg.TaperWrapWidth == 0 {
		cfg.TaperWrapWidth = def.TaperWrapWidth
	}
	if cfg.QRSize == 0 {
		cfg.QRSize, cfg.QRPixels = def.QRSize, def.QRPixels
	}
	// A config not derived from DefaultConfig has neither shaping options
	// nor a digit offset.
	if cfg.Shape == (arabic.ShapeOptions{}) {
		cfg.Shape = def.Shape
		if cfg.DigitOffset == 0 {
			cfg.DigitOffset = def.DigitOffset
		}
	}
	return &Composer{cfg: cfg}
}

// Render draws rx onto b. The backend is left ready to Save.
func Render(ctx context.Context, rx *Prescription, b Backend, cfg Config) (*Result, error) {
	return NewComposer(cfg).Render(ctx, rx, b)
}

// Render draws rx onto b.
func (c *Composer) Render(ctx context.Context, rx *Prescription, b Backend) (*Result, error) {
	res := &Result{ID: uuid.NewString()}
	if err := rx.Validate(); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, cancelled(err)
	}

	cfg := c.cfg
	cfg.Logger = cfg.logger().With(slog.String("render_id", res.ID), slog.String("patient_id", rx.PatientID))

	var rec *Recorder
	if cfg.TraceLayout {
		rec = NewRecorder()
		rec.W, rec.H = b.PageSize()
		b = Tee(b, rec)
	}

	rc := newRenderContext(ctx, &cfg, b, res)
	rc.onCursor = c.onCursor
	if err := c.setupFonts(rc); err != nil {
		return res, err
	}

	steps := []func() error{
		rc.newPage,
		func() error { return c.qrAndHeader(rc, rx) },
		func() error { return c.patient(rc, rx) },
		func() error { return c.medications(rc, rx) },
		func() error { return c.section(rc, "Instructions", rx.Instructions) },
		func() error { return c.section(rc, "Notes", rx.Notes) },
	}
	for _, step := range steps {
		if err := rc.checkCancel(); err != nil {
			return res, err
		}
		if err := step(); err != nil {
			return res, err
		}
		if err := b.Err(); err != nil {
			return res, &BackendDrawError{Op: "Render", Err: err}
		}
	}

	if rec != nil {
		res.Layout = rec.Layout("Prescription " + rx.PatientID)
		res.Layout.Metadata = map[string]string{"patient-id": rx.PatientID, "render-id": res.ID}
	}
	rc.log.Info("Prescription rendered", slog.Int("pages", res.Pages), slog.Int("warnings", len(res.Warnings)))
	return res, nil
}

func (c *Composer) setupFonts(rc *renderContext) error {
	src := rc.cfg.Fonts
	latin, err := src.ResolveLatin()
	if err != nil {
		return err
	}
	bold, err := src.ResolveLatinBold()
	if err != nil {
		return err
	}
	ar := src.ResolveArabic(rc.ctx)
	if ar == nil {
		ar = &fonts.Handle{Name: latin.Name, Family: latin.Family, Data: latin.Data}
	}

	for _, f := range []struct {
		face Face
		h    *fonts.Handle
	}{{FaceLatin, latin}, {FaceLatinBold, bold}, {FaceArabic, ar}} {
		if err := rc.b.RegisterFont(f.face, f.h.Data); err != nil {
			var de *BackendDrawError
			if errors.As(err, &de) {
				return err
			}
			return &BackendDrawError{Op: "RegisterFont", Err: err}
		}
	}

	rc.arabicFont = ar
	rc.arabicOK = ar.Arabic
	rc.result.ArabicFont = ar.String()
	if !ar.Arabic {
		rc.result.Degraded = true
		rc.result.Warnings = append(rc.result.Warnings, Warning{Reason: "no Arabic font available; Arabic mirrors omitted"})
	}
	return nil
}

// qrAndHeader places the QR code in the top-right corner of the first page
// and centres the clinic header beneath the top band.
func (c *Composer) qrAndHeader(rc *renderContext, rx *Prescription) error {
	cfg := rc.cfg
	top := rc.h - rc.g.BorderInset - 16
	qrBottom := top - cfg.QRSize

	png, err := qr.NewBuilder(cfg.QREncoder).Build(rx.Payload(), cfg.QRPixels)
	if err != nil {
		rc.warn(rx.Payload(), fmt.Errorf("qr: %w", err))
	} else {
		rc.b.DrawImage("qr", rc.right-cfg.QRSize, qrBottom, cfg.QRSize, cfg.QRSize, png)
	}

	header := rx.ClinicHeader
	if len(header) == 0 {
		header = cfg.Clinic.Header
	}
	lw := &LineWriter{rc: rc}
	for i, line := range header {
		size, bold := cfg.BodySize, false
		if i == 0 {
			size, bold = cfg.HeaderSize, true
		}
		if err := lw.WriteCentred(line, size, bold); err != nil {
			return err
		}
	}

	if err == nil {
		rc.moveTo(qrBottom - rc.g.SmallGap - rc.g.LineGap)
	}
	rc.advance(rc.g.SectionGap)
	return nil
}

func (c *Composer) patient(rc *renderContext, rx *Prescription) error {
	lw := &LineWriter{rc: rc}
	rows := []BilingualLine{
		{LabelEN: "Patient Name", ValueEN: rx.PatientName, Verbatim: true},
		{LabelEN: "ID", ValueEN: rx.PatientID, Verbatim: true},
		{LabelEN: "Date", ValueEN: rx.IssueDate, Verbatim: true},
	}
	for _, row := range rows {
		if err := lw.WriteBilingual(row); err != nil {
			return err
		}
	}
	rc.advance(rc.g.SmallGap)
	return rc.separator(borderPaint)
}

func (c *Composer) medications(rc *renderContext, rx *Prescription) error {
	lw := &LineWriter{rc: rc}
	taper := newTaperingRenderer(rc)
	for _, m := range rx.Medications {
		if err := rc.checkCancel(); err != nil {
			return err
		}
		rc.advance(rc.g.SmallGap)
		if err := rc.ensure(rc.cfg.blockMinimum()); err != nil {
			return err
		}

		err := lw.WriteBilingual(BilingualLine{
			LabelEN:  m.Type,
			ValueEN:  m.Name,
			Verbatim: true,
			Bold:     true,
			Size:     rc.cfg.HeaderSize,
		})
		if err != nil {
			return err
		}
		for _, d := range []struct{ label, value string }{
			{"Dosage", m.Dosage},
			{"Frequency", m.Frequency},
			{"Duration", m.Duration},
		} {
			if d.value == "" {
				continue
			}
			if err := lw.WriteBilingual(BilingualLine{LabelEN: d.label, ValueEN: d.value}); err != nil {
				return err
			}
		}
		if err := taper.Render(m.Tapering); err != nil {
			return err
		}
		if err := rc.separator(rulePaint); err != nil {
			return err
		}
	}
	return nil
}

// section writes a heading followed by each line with its Arabic mirror.
func (c *Composer) section(rc *renderContext, title string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	rc.advance(rc.g.SectionGap)
	if err := rc.ensure(2 * rc.g.LineGap); err != nil {
		return err
	}
	lw := &LineWriter{rc: rc}
	if err := lw.WriteBilingual(BilingualLine{LabelEN: title, Bold: true}); err != nil {
		return err
	}
	for _, line := range lines {
		if err := rc.checkCancel(); err != nil {
			return err
		}
		if err := lw.WriteMirrored(line, rc.cfg.WrapWidth); err != nil {
			return err
		}
	}
	return nil
}

// RenderToFile renders rx as a PDF at path. The file is written to a
// temporary name in the same directory and renamed into place, so path
// either holds a complete document or is left untouched.
func RenderToFile(ctx context.Context, rx *Prescription, path string, cfg Config) (*Result, error) {
	return NewComposer(cfg).RenderToFile(ctx, rx, path)
}

// RenderToFile renders rx as a PDF at path.
func (c *Composer) RenderToFile(ctx context.Context, rx *Prescription, path string) (*Result, error) {
	if !c.cfg.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return nil, &OutputError{Path: path, Err: fs.ErrExist}
		}
	}

	b := NewFpdfBackend(FpdfOptions{
		Letterhead: c.cfg.Letterhead,
		Title:      "Prescription " + rx.PatientID,
		Subject:    "Prescription issued " + rx.IssueDate,
		Author:     c.cfg.Clinic.Name,
		Creator:    "rxscribe",
		Created:    c.cfg.Clock.Now(),
	})
	res, err := c.Render(ctx, rx, b)
	if err != nil {
		return res, err
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+res.ID+".tmp")
	if err := writeAtomic(ctx, b, tmp, path); err != nil {
		return res, err
	}
	return res, nil
}

func writeAtomic(ctx context.Context, b Backend, tmp, path string) (err error) {
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &OutputError{Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if err := b.Save(f); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	if err := f.Sync(); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}
	if err := f.Close(); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	return nil
}
