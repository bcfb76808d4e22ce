package intake

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// EncodeOptions controls how a normalized image is serialized for the model
type EncodeOptions struct {
	Format  string // png or jpeg
	MaxSide int    // 0 keeps the original size
	Quality int    // JPEG quality
}

// DefaultEncodeOptions sends lossless PNG at the original size, which keeps
// small diagram text legible
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{Format: "png", Quality: 90}
}

// Encode serializes img and returns the bytes with their MIME type
func Encode(img image.Image, opts EncodeOptions) ([]byte, string, error) {
	if opts.MaxSide > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > opts.MaxSide || h > opts.MaxSide {
			if w >= h {
				img = imaging.Resize(img, opts.MaxSide, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, opts.MaxSide, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(opts.Format) {
	case "jpg", "jpeg":
		quality := opts.Quality
		if quality <= 0 {
			quality = 90
		}
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, "", fmt.Errorf("encoding jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	case "", "png":
		if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return nil, "", fmt.Errorf("encoding png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	default:
		return nil, "", fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

// maxThumbnailHeight is the largest dimension libwebp will encode
const maxThumbnailHeight = 16383

// Thumbnail shrinks img to fit the given display width and returns it as a
// WebP data URI. Images already narrower than width are not enlarged.
func Thumbnail(img image.Image, width int) (string, error) {
	if width <= 0 {
		return "", fmt.Errorf("invalid thumbnail width %d", width)
	}

	thumb := imaging.Fit(img, width, maxThumbnailHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, thumb, &webp.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("encoding thumbnail: %w", err)
	}

	return "data:image/webp;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
