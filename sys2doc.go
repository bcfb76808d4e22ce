// Package sys2doc turns an image of a system diagram into a written
// description of the system.
//
// The package wires three components together:
//
//  1. Intake (pkg/intake): loads an uploaded file or a URL, decodes it and
//     normalizes alpha and palette images to truecolor RGB
//  2. Describe (pkg/describe): sends the image with a fixed prompt to a
//     multimodal model through a lazily created, shared handle
//  3. Backends (pkg/gemini, pkg/ollama, pkg/openai): the model handles
//
// Basic usage:
//
//	cfg := config.MustLoad("")
//	log := logging.New(cfg.Env)
//
//	factory, err := sys2doc.NewFactory(cfg, nil)
//	if err != nil {
//		panic(err)
//	}
//	svc := describe.NewService(factory, sys2doc.ServiceOptions(cfg), log)
//	defer svc.Close()
//
//	s := sys2doc.New(intake.NewWithConfig(sys2doc.IntakeConfig(cfg), log), svc, sys2doc.DefaultOptions(), log)
//	res, err := s.Generate(ctx, intake.Source{URL: "https://example.com/arch.png"})
//	if err != nil {
//		fmt.Println(sys2doc.UserMessage(err))
//		return
//	}
//	fmt.Println(res.Description)
package sys2doc

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"

	"github.com/menta2k/sys2doc/internal/config"
	"github.com/menta2k/sys2doc/internal/sl"
	"github.com/menta2k/sys2doc/pkg/client"
	"github.com/menta2k/sys2doc/pkg/describe"
	"github.com/menta2k/sys2doc/pkg/gemini"
	"github.com/menta2k/sys2doc/pkg/intake"
	"github.com/menta2k/sys2doc/pkg/ollama"
	"github.com/menta2k/sys2doc/pkg/openai"
	"github.com/menta2k/sys2doc/pkg/types"
)

// Version of Sys2Doc
const Version = "1.0.0"

// Disclaimer is shown under every rendered page
const Disclaimer = "Sys2Doc is an experimental prototype, with no guarantee provided whatsoever. " +
	"Use it fairly, responsibly, and with care."

// Describer produces a description for a normalized image
type Describer interface {
	Describe(ctx context.Context, img image.Image) (string, error)
}

// Options tunes Generate
type Options struct {
	ThumbnailWidth int
}

func DefaultOptions() Options {
	return Options{ThumbnailWidth: 250}
}

// Result is everything a page needs to show for one submission
type Result struct {
	Details        types.FileDetails `json:"file_details"`
	Format         string            `json:"format"`
	Mode           types.ColorMode   `json:"mode"`
	NormalizedMode types.ColorMode   `json:"normalized_mode"`
	Width          int               `json:"width"`
	Height         int               `json:"height"`
	Thumbnail      string            `json:"-"` // empty when no preview could be built
	Description    string            `json:"description"`
}

// Sys2Doc runs intake, normalization and description for one submission
type Sys2Doc struct {
	intake    *intake.Intake
	describer Describer
	opts      Options
	log       *slog.Logger
}

func New(in *intake.Intake, describer Describer, opts Options, log *slog.Logger) *Sys2Doc {
	if opts.ThumbnailWidth <= 0 {
		opts.ThumbnailWidth = DefaultOptions().ThumbnailWidth
	}
	return &Sys2Doc{
		intake:    in,
		describer: describer,
		opts:      opts,
		log:       log.With(sl.Module("sys2doc")),
	}
}

// Generate loads the submitted image and asks the model to describe it.
// Intake errors are returned as is so callers can classify them with
// errors.Is and errors.As; remote failures are *describe.RemoteError.
func (s *Sys2Doc) Generate(ctx context.Context, src intake.Source) (*Result, error) {
	img, err := s.intake.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	normalized := intake.Normalize(img.Bitmap)

	// The page renders without a preview when this fails
	thumb, err := intake.Thumbnail(normalized, s.opts.ThumbnailWidth)
	if err != nil {
		s.log.Warn("creating thumbnail", sl.Err(err))
	}

	description, err := s.describer.Describe(ctx, normalized)
	if err != nil {
		s.log.Error("description failed", sl.Err(err))
		return nil, err
	}

	s.log.Debug(description)
	s.log.Info("Done!",
		sl.Details(img.Details.Name, img.Details.Type, img.Details.Size),
		slog.String("mode", string(img.Mode)),
	)

	return &Result{
		Details:        img.Details,
		Format:         img.Format,
		Mode:           img.Mode,
		NormalizedMode: intake.ModeOf(normalized),
		Width:          img.Width(),
		Height:         img.Height(),
		Thumbnail:      thumb,
		Description:    description,
	}, nil
}

// UserMessage turns a Generate error into the text shown to the user
func UserMessage(err error) string {
	var (
		decodeErr *intake.DecodeError
		urlErr    *intake.URLError
		fetchErr  *intake.FetchError
		remoteErr *describe.RemoteError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &decodeErr):
		return fmt.Sprintf("An error occurred while loading the image: %v", decodeErr.Err)
	case errors.As(err, &urlErr):
		return "Please specify a proper URL for the image."
	case errors.Is(err, intake.ErrNoSource):
		return "Please upload an image or specify its URL."
	case errors.Is(err, intake.ErrUnsupportedFormat):
		return "Unsupported file type. Please choose a PNG, JPG, or JPEG image."
	case errors.Is(err, intake.ErrUnreadableUpload):
		return "The uploaded file could not be read. Please try again."
	case errors.Is(err, intake.ErrTooLarge):
		return "The image is too large."
	case errors.As(err, &fetchErr):
		return fmt.Sprintf("Could not download the image: %v", fetchErr.Err)
	case errors.As(err, &remoteErr):
		return fmt.Sprintf("The description service failed: %v", remoteErr.Err)
	default:
		return fmt.Sprintf("Something went wrong: %v", err)
	}
}

// NewFactory returns a handle factory for the configured backend
func NewFactory(cfg *config.Config, httpClient *http.Client) (describe.Factory, error) {
	switch cfg.Backend {
	case config.BackendGemini:
		gc := gemini.Config{
			APIKey:     cfg.Gemini.APIKey,
			Model:      cfg.Gemini.Model,
			Generation: describe.DefaultGeneration,
			Safety:     describe.DefaultSafety,
		}
		return func(ctx context.Context) (client.VisionClient, error) {
			return gemini.NewClient(ctx, gc)
		}, nil
	case config.BackendOllama:
		url, model := cfg.Ollama.URL, cfg.Ollama.Model
		return func(ctx context.Context) (client.VisionClient, error) {
			return ollama.NewClient(url, model, httpClient)
		}, nil
	case config.BackendOpenAI:
		url, key, model := cfg.OpenAI.URL, cfg.OpenAI.APIKey, cfg.OpenAI.Model
		return func(ctx context.Context) (client.VisionClient, error) {
			return openai.NewClient(url, key, model, httpClient), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// IntakeConfig extracts intake limits from the application config
func IntakeConfig(cfg *config.Config) intake.Config {
	return intake.Config{
		SupportedFormats: cfg.Intake.SupportedFormats,
		MaxBytes:         cfg.Intake.MaxBytes,
		MaxPixels:        cfg.Intake.MaxPixels,
		FetchTimeout:     cfg.Intake.FetchTimeout,
	}
}

// ServiceOptions extracts description service settings from the application
// config
func ServiceOptions(cfg *config.Config) describe.Options {
	return describe.Options{
		Encoding: intake.EncodeOptions{
			Format:  cfg.Intake.SendFormat,
			MaxSide: cfg.Intake.SendMaxSide,
			Quality: cfg.Intake.SendQuality,
		},
		RequestsPerMinute: cfg.Limits.RequestsPerMinute,
		Timeout:           cfg.Limits.RequestTimeout,
	}
}

// PageOptions extracts Generate options from the application config
func PageOptions(cfg *config.Config) Options {
	return Options{ThumbnailWidth: cfg.Page.ThumbnailWidth}
}
