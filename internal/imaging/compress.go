// Package imaging shrinks images before they are embedded in share links.
//
// Compression is best effort: any decode, scale or encode failure, and any
// panic inside the image libraries, returns the caller's input unchanged.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"strings"

	// Registered decoders.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/dmitrijs2005/sharevault/internal/logging"
)

const (
	DefaultMaxDimension = 1200
	DefaultQuality      = 72

	// MaxPixels bounds the decoded size of an input image. Larger images
	// are returned unchanged without being decoded.
	MaxPixels = 40_000_000
)

// Compressor re-encodes images as size-bounded JPEGs.
type Compressor struct {
	log logging.Logger
}

func NewCompressor(log logging.Logger) *Compressor {
	return &Compressor{log: log}
}

// Compress decodes data, scales it down so that its long edge is at most
// maxDimensionPx, and re-encodes it as JPEG at quality (clamped to 1..100).
// Images already within bounds are only re-encoded. On any failure data is
// returned as is.
func (c *Compressor) Compress(ctx context.Context, data []byte, maxDimensionPx, quality int) (out []byte) {
	out = data
	if len(data) == 0 {
		return data
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn(ctx, "image compression panicked", "panic", r)
			out = data
		}
	}()

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		c.log.Debug(ctx, "image not decodable, keeping original", "error", err)
		return data
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		c.log.Warn(ctx, "image too large to compress, keeping original",
			"format", format, "width", cfg.Width, "height", cfg.Height)
		return data
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		c.log.Debug(ctx, "image not decodable, keeping original", "error", err)
		return data
	}

	if maxDimensionPx <= 0 {
		maxDimensionPx = DefaultMaxDimension
	}
	img := flatten(scale(src, maxDimensionPx))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: clampQuality(quality)}); err != nil {
		c.log.Warn(ctx, "jpeg encode failed, keeping original", "format", format, "error", err)
		return data
	}
	return buf.Bytes()
}

// CompressSource compresses a base64 data URI and returns a JPEG data URI.
// Asset references, remote URLs and anything else that is not an inline
// image are returned unchanged, as is the input on failure.
func (c *Compressor) CompressSource(ctx context.Context, src string, maxDimensionPx, quality int) string {
	mime, payload, ok := ParseDataURI(src)
	if !ok || !strings.HasPrefix(mime, "image/") || mime == "image/svg+xml" {
		return src
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return src
	}

	out := c.Compress(ctx, data, maxDimensionPx, quality)
	if bytes.Equal(out, data) {
		return src
	}
	return DataURI("image/jpeg", out)
}

// DataURI formats data as a base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI splits a base64 data URI into its MIME type and payload.
func ParseDataURI(s string) (mime, payload string, ok bool) {
	rest, found := strings.CutPrefix(s, "data:")
	if !found {
		return "", "", false
	}
	header, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	mime, params, _ := strings.Cut(header, ";")
	if !strings.Contains(";"+params+";", ";base64;") {
		return "", "", false
	}
	return strings.ToLower(mime), payload, true
}

func clampQuality(q int) int {
	switch {
	case q < 1:
		return 1
	case q > 100:
		return 100
	default:
		return q
	}
}

// scale returns src unchanged when it already fits within maxDim.
func scale(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	long := max(w, h)
	if long <= maxDim {
		return src
	}

	nw := max(1, w*maxDim/long)
	nh := max(1, h*maxDim/long)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// flatten composites transparent pixels onto white since JPEG has no alpha.
func flatten(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}
