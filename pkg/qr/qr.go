// Package qr renders short records as QR code rasters at error correction
// level L with a four-module quiet zone.
package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/boombuler/barcode/qr"
	"github.com/skip2/go-qrcode"
)

// MaxPayload is the largest payload accepted, in bytes.
const MaxPayload = 512

// QuietZone is the blank margin around the symbol, in modules.
const QuietZone = 4

var (
	ErrEmptyPayload = errors.New("qr: empty payload")
	ErrPayloadSize  = fmt.Errorf("qr: payload exceeds %d bytes", MaxPayload)
)

// Encoder turns a payload into a square raster of roughly px pixels.
type Encoder interface {
	Encode(payload string, px int) (image.Image, error)
}

// Skip2 encodes with github.com/skip2/go-qrcode, which draws the quiet zone
// itself.
type Skip2 struct{}

func (Skip2) Encode(payload string, px int) (image.Image, error) {
	q, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		return nil, err
	}
	return q.Image(px), nil
}

// Boombuler encodes with github.com/boombuler/barcode and adds the quiet
// zone while scaling to whole pixels per module.
type Boombuler struct{}

func (Boombuler) Encode(payload string, px int) (image.Image, error) {
	code, err := qr.Encode(payload, qr.L, qr.Auto)
	if err != nil {
		return nil, err
	}
	b := code.Bounds()
	dim := b.Dx()
	total := dim + 2*QuietZone
	scale := max(px/total, 1)
	size := total * scale

	img := image.NewGray(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for y := 0; y < dim; y++ {
		for x := 0; x < dim; x++ {
			c := color.GrayModel.Convert(code.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			if c.Y >= 128 {
				continue
			}
			x0 := (x + QuietZone) * scale
			y0 := (y + QuietZone) * scale
			draw.Draw(img, image.Rect(x0, y0, x0+scale, y0+scale), image.Black, image.Point{}, draw.Src)
		}
	}
	return img, nil
}

// Builder produces PNG-encoded QR images.
type Builder struct {
	enc Encoder
}

// NewBuilder returns a Builder using enc, or Skip2 when enc is nil.
func NewBuilder(enc Encoder) *Builder {
	if enc == nil {
		enc = Skip2{}
	}
	return &Builder{enc: enc}
}

// Image validates payload and encodes it.
func (b *Builder) Image(payload string, px int) (image.Image, error) {
	switch {
	case payload == "":
		return nil, ErrEmptyPayload
	case len(payload) > MaxPayload:
		return nil, ErrPayloadSize
	}
	if px <= 0 {
		return nil, fmt.Errorf("qr: invalid size %d", px)
	}
	return b.enc.Encode(payload, px)
}

// Build returns the QR code for payload as PNG bytes. The buffer belongs to
// the caller; nothing is written to disk.
func (b *Builder) Build(payload string, px int) ([]byte, error) {
	img, err := b.Image(payload, px)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("qr: encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
