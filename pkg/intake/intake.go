package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/mvdan/xurls"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/sys2doc/internal/sl"
	"github.com/menta2k/sys2doc/internal/utils"
	"github.com/menta2k/sys2doc/pkg/types"
)

const userAgent = "Sys2Doc/1.0 (+https://github.com/menta2k/sys2doc)"

// Config holds limits for image intake
type Config struct {
	SupportedFormats []string
	MaxBytes         int64
	MaxPixels        int64 // 0 disables the check
	FetchTimeout     time.Duration
}

// DefaultMaxPixels rejects decompression bombs before any pixel memory is
// allocated
const DefaultMaxPixels = 89478485

// DefaultConfig returns the limits used by New
func DefaultConfig() Config {
	return Config{
		SupportedFormats: []string{"png", "jpg", "jpeg"},
		MaxBytes:         20 << 20,
		MaxPixels:        DefaultMaxPixels,
		FetchTimeout:     30 * time.Second,
	}
}

// Upload is a file handed to us by the user
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Source is what the user submitted. When both File and URL are set the file
// wins.
type Source struct {
	File *Upload
	URL  string
}

// Image is a decoded bitmap together with its origin
type Image struct {
	Bitmap  image.Image
	Format  string
	Mode    types.ColorMode
	Details types.FileDetails
}

func (i *Image) Width() int  { return i.Bitmap.Bounds().Dx() }
func (i *Image) Height() int { return i.Bitmap.Bounds().Dy() }

// Intake turns uploads and URLs into decoded bitmaps
type Intake struct {
	config Config
	client *http.Client
	log    *slog.Logger
}

// New creates an Intake with default limits
func New(log *slog.Logger) *Intake {
	return NewWithConfig(DefaultConfig(), log)
}

// NewWithConfig creates an Intake with custom limits
func NewWithConfig(config Config, log *slog.Logger) *Intake {
	return &Intake{
		config: config,
		client: &http.Client{
			Timeout: config.FetchTimeout,
		},
		log: log.With(sl.Module("intake")),
	}
}

// Load decodes the submitted image. Failures are logged at debug level with
// whatever file metadata is available.
func (in *Intake) Load(ctx context.Context, src Source) (*Image, error) {
	var (
		img *Image
		err error
	)

	switch {
	case src.File != nil:
		img, err = in.loadUpload(src.File)
	case strings.TrimSpace(src.URL) != "":
		img, err = in.loadURL(ctx, src.URL)
	default:
		return nil, ErrNoSource
	}

	if err != nil {
		in.logFailure(err)
		return nil, err
	}

	in.log.With(
		slog.String("format", img.Format),
		slog.String("mode", string(img.Mode)),
		slog.Int("width", img.Width()),
		slog.Int("height", img.Height()),
	).Debug("image loaded")

	return img, nil
}

func (in *Intake) loadUpload(up *Upload) (*Image, error) {
	details := types.FileDetails{
		Name: up.Name,
		Type: up.ContentType,
		Size: up.Size,
	}

	if !utils.IsSupportedFile(up.Name, in.config.SupportedFormats) {
		return nil, fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedFormat, up.Name,
			strings.Join(in.config.SupportedFormats, ", "))
	}

	if up.Reader == nil {
		return nil, &DecodeError{Details: details, Err: ErrUnknownFormat}
	}

	data, err := in.readLimited(up.Reader)
	if err != nil {
		return nil, fmt.Errorf("reading upload %q: %w", up.Name, err)
	}
	if details.Size <= 0 {
		details.Size = int64(len(data))
	}
	if details.Type == "" {
		details.Type = http.DetectContentType(data)
	}

	return in.decode(data, details)
}

func (in *Intake) loadURL(ctx context.Context, raw string) (*Image, error) {
	raw = strings.TrimSpace(raw)

	// Strict matching requires a scheme, so bare hosts are rejected here
	found := xurls.Strict.FindString(raw)
	if found == "" {
		return nil, &URLError{URL: raw, Err: ErrMissingScheme}
	}

	parsed, err := url.Parse(found)
	if err != nil {
		return nil, &URLError{URL: found, Err: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &URLError{URL: found, Err: ErrUnsupportedScheme}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, &URLError{URL: found, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := in.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: found, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: found, Err: fmt.Errorf("HTTP %s", resp.Status)}
	}

	data, err := in.readLimited(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: found, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return in.decode(data, types.FileDetails{
		Name: utils.NameFromURL(found),
		Type: contentType,
		Size: int64(len(data)),
	})
}

func (in *Intake) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, in.config.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > in.config.MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func (in *Intake) decode(data []byte, details types.FileDetails) (*Image, error) {
	bitmap, format, err := decodeImageFromBytes(data, in.config.MaxPixels)
	if err != nil {
		return nil, &DecodeError{Details: details, Err: err}
	}

	return &Image{
		Bitmap:  bitmap,
		Format:  format,
		Mode:    ModeOf(bitmap),
		Details: details,
	}, nil
}

func (in *Intake) logFailure(err error) {
	log := in.log.With(sl.Err(err))

	var de *DecodeError
	if errors.As(err, &de) {
		log = log.With(sl.Details(de.Details.Name, de.Details.Type, de.Details.Size))
	}

	log.Debug("An error occurred while loading the image")
}

// decodeImageFromBytes decodes with the registered decoders and falls back to
// libwebp for WebP files the pure Go decoder rejects. Dimensions are read from
// the header first so oversized images are refused before decoding.
func decodeImageFromBytes(data []byte, maxPixels int64) (image.Image, string, error) {
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if err := checkPixels(cfg, maxPixels); err != nil {
			return nil, format, err
		}
		if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
			return img, format, nil
		}
	}

	if cfg, err := webp.DecodeConfig(bytes.NewReader(data)); err == nil {
		if err := checkPixels(cfg, maxPixels); err != nil {
			return nil, "webp", err
		}
		if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
			return img, "webp", nil
		}
	}

	return nil, "", ErrUnknownFormat
}

func checkPixels(cfg image.Config, maxPixels int64) error {
	if maxPixels <= 0 {
		return nil
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooManyPixels, cfg.Width, cfg.Height, maxPixels)
	}
	return nil
}
