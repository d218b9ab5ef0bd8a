// Package payload encodes and decodes the two tile payload kinds this
// system produces: raw elevation grids (DEM tiles) and rendered hillshade
// images (shaded tiles).
package payload

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/gen2brain/webp"
)

// ImageFormat names a shaded-tile raster codec.
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatWebP ImageFormat = "webp"
)

// ImageEncoder encodes a rendered hillshade image to its on-disk bytes.
type ImageEncoder struct {
	Format  ImageFormat
	Quality int // 1-100, JPEG/WebP only; ignored for PNG
}

// NewImageEncoder validates format and returns an encoder for it.
func NewImageEncoder(format string, quality int) (*ImageEncoder, error) {
	switch ImageFormat(format) {
	case FormatJPEG, FormatPNG, FormatWebP:
	default:
		return nil, fmt.Errorf("payload: unsupported image format %q (want jpeg, png, or webp)", format)
	}
	if quality <= 0 {
		quality = 85
	}
	return &ImageEncoder{Format: ImageFormat(format), Quality: quality}, nil
}

// Encode renders img to bytes in the encoder's format.
func (e *ImageEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch e.Format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.Quality})
	case FormatPNG:
		enc := &png.Encoder{CompressionLevel: png.BestSpeed}
		err = enc.Encode(&buf, img)
	case FormatWebP:
		err = webp.Encode(&buf, img, webp.Options{Quality: float32(e.Quality)})
	default:
		return nil, fmt.Errorf("payload: unsupported image format %q", e.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("payload: encoding %s: %w", e.Format, err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns the conventional extension for this format.
func (e *ImageEncoder) FileExtension() string {
	switch e.Format {
	case FormatJPEG:
		return ".jpg"
	case FormatWebP:
		return ".webp"
	default:
		return ".png"
	}
}

// DecodeImage decodes image bytes previously produced by an ImageEncoder
// of the given format — used by tools that need to read tiles back out of
// a container (e.g. for inspection or re-encoding).
func DecodeImage(data []byte, format ImageFormat) (image.Image, error) {
	r := bytes.NewReader(data)
	switch format {
	case FormatPNG:
		return png.Decode(r)
	case FormatJPEG:
		return jpeg.Decode(r)
	case FormatWebP:
		return webp.Decode(r)
	default:
		return nil, fmt.Errorf("payload: unsupported decode format %q", format)
	}
}
