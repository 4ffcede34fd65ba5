package service

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	// Registered decoders for uploads.
	_ "image/gif"
	_ "image/png"

	"guardx/internal/common"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// FrameMaxWidth is the width live frames are downsampled to.
	FrameMaxWidth = 640
	jpegQuality   = 90

	// DefaultMaxImagePixels bounds the decoded canvas (about 100 MB as RGBA).
	DefaultMaxImagePixels = 25_000_000
)

// IsImageContentType reports whether a declared upload type is an image.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// DecodeImage decodes any registered format. The header is checked first
// so a small file declaring a huge canvas is rejected before any pixel
// buffer is allocated. Undecodable or oversized data is a bad request.
func DecodeImage(data []byte, maxPixels int64) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("cannot decode image: %v: %w", err, common.ErrBadRequest)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("image has empty dimensions %dx%d: %w", cfg.Width, cfg.Height, common.ErrBadRequest)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, "", fmt.Errorf("image %dx%d exceeds %d pixels: %w", cfg.Width, cfg.Height, maxPixels, common.ErrBadRequest)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("cannot decode image: %v: %w", err, common.ErrBadRequest)
	}
	return img, format, nil
}

// EncodeJPEG re-encodes img as baseline JPEG, which drops alpha and
// palette information and yields an RGB image for the engine.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, toRGBA(img), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// toRGBA flattens img onto an opaque canvas so transparent regions become
// black instead of undefined.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// Downscale shrinks img to maxWidth keeping the aspect ratio. scale is the
// factor applied (1 when img is already narrow enough).
func Downscale(img image.Image, maxWidth int) (out image.Image, scale float64) {
	b := img.Bounds()
	if b.Dx() <= maxWidth {
		return img, 1
	}
	scale = float64(maxWidth) / float64(b.Dx())
	height := int(float64(b.Dy()) * scale)
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, scale
}
