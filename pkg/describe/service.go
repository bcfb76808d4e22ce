package describe

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/menta2k/sys2doc/internal/sl"
	"github.com/menta2k/sys2doc/pkg/client"
	"github.com/menta2k/sys2doc/pkg/intake"
	"github.com/menta2k/sys2doc/pkg/types"
)

// Factory builds the remote model handle. It is called at most once per
// successful construction.
type Factory func(ctx context.Context) (client.VisionClient, error)

// Options tunes a Service
type Options struct {
	Encoding          intake.EncodeOptions
	RequestsPerMinute int           // 0 disables client-side rate limiting
	Timeout           time.Duration // applied when the caller's context has no deadline
}

// DefaultOptions returns PNG encoding with no rate limit and a five minute
// timeout
func DefaultOptions() Options {
	return Options{
		Encoding: intake.DefaultEncodeOptions(),
		Timeout:  5 * time.Minute,
	}
}

// RemoteError wraps any failure of the remote description service
type RemoteError struct {
	Backend string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("description service: %v", e.Err)
	}
	return fmt.Sprintf("description service (%s): %v", e.Backend, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Service sends normalized images with the fixed prompt to a lazily created,
// shared model handle
type Service struct {
	factory Factory
	opts    Options
	limiter *rate.Limiter
	log     *slog.Logger

	mu     sync.Mutex
	handle client.VisionClient
}

// NewService creates a Service. The handle is not built until first use.
func NewService(factory Factory, opts Options, log *slog.Logger) *Service {
	s := &Service{
		factory: factory,
		opts:    opts,
		log:     log.With(sl.Module("describe")),
	}
	if opts.RequestsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60), opts.RequestsPerMinute)
	}
	return s
}

// Handle returns the shared model handle, creating it on first call. A failed
// construction is not remembered. The handle outlives the request that built
// it, so the factory gets ctx without its cancellation.
func (s *Service) Handle(ctx context.Context) (client.VisionClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return s.handle, nil
	}

	h, err := s.factory(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}
	s.log.Info("model handle created", slog.String("backend", h.Name()))
	s.handle = h
	return h, nil
}

// NewRequest pairs the fixed prompt and parameters with the encoded image
func (s *Service) NewRequest(img image.Image) (*types.DescriptionRequest, error) {
	data, mimeType, err := intake.Encode(img, s.opts.Encoding)
	if err != nil {
		return nil, err
	}

	safety := make([]types.SafetySetting, len(DefaultSafety))
	copy(safety, DefaultSafety)

	return &types.DescriptionRequest{
		Prompt:     Prompt,
		Image:      data,
		MIMEType:   mimeType,
		Generation: DefaultGeneration,
		Safety:     safety,
	}, nil
}

// Describe returns the model's description of img, unmodified. Any failure
// after the image has been encoded is reported as a *RemoteError.
func (s *Service) Describe(ctx context.Context, img image.Image) (string, error) {
	req, err := s.NewRequest(img)
	if err != nil {
		return "", err
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", &RemoteError{Err: fmt.Errorf("rate limit: %w", err)}
		}
	}

	h, err := s.Handle(ctx)
	if err != nil {
		return "", &RemoteError{Err: fmt.Errorf("creating model handle: %w", err)}
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := h.Describe(ctx, req)
	if err != nil {
		return "", &RemoteError{Backend: h.Name(), Err: err}
	}

	s.log.With(
		slog.String("backend", h.Name()),
		slog.Int("image_bytes", len(req.Image)),
		slog.Duration("took", time.Since(start)),
	).Debug("description received")

	return text, nil
}

// Close releases the model handle if it holds resources
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.handle.(io.Closer); ok {
		s.handle = nil
		return c.Close()
	}
	s.handle = nil
	return nil
}
