package describe

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/menta2k/sys2doc/internal/logging"
	"github.com/menta2k/sys2doc/pkg/client"
	"github.com/menta2k/sys2doc/pkg/intake"
	"github.com/menta2k/sys2doc/pkg/types"
)

type fakeClient struct {
	reply    string
	err      error
	requests []*types.DescriptionRequest
	closed   bool
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Describe(ctx context.Context, req *types.DescriptionRequest) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func countingFactory(c client.VisionClient, calls *int) Factory {
	return func(ctx context.Context) (client.VisionClient, error) {
		*calls++
		return c, nil
	}
}

func testImage() image.Image {
	img := intake.NewRGB(image.Rect(0, 0, 6, 4))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	return img
}

func TestDescribe_SendsFixedPromptAndImage(t *testing.T) {
	fc := &fakeClient{reply: "  ## System\n\nA load balancer in front of two services.\n"}
	var calls int
	svc := NewService(countingFactory(fc, &calls), DefaultOptions(), logging.Discard())

	text, err := svc.Describe(context.Background(), testImage())
	require.NoError(t, err)
	require.Equal(t, fc.reply, text, "text must come back unmodified")

	require.Len(t, fc.requests, 1)
	req := fc.requests[0]
	require.Equal(t, Prompt, req.Prompt)
	require.Equal(t, "image/png", req.MIMEType)
	require.Equal(t, "png", req.ImageFormat())
	require.Equal(t, DefaultGeneration, req.Generation)
	require.Equal(t, DefaultSafety, req.Safety)

	decoded, err := png.Decode(bytes.NewReader(req.Image))
	require.NoError(t, err)
	require.Equal(t, image.Pt(6, 4), decoded.Bounds().Size())
}

func TestDescribe_HandleIsCreatedOnce(t *testing.T) {
	fc := &fakeClient{reply: "ok"}
	var calls int
	svc := NewService(countingFactory(fc, &calls), DefaultOptions(), logging.Discard())

	for i := 0; i < 3; i++ {
		_, err := svc.Describe(context.Background(), testImage())
		require.NoError(t, err)
	}
	require.Equal(t, 1, calls)
	require.Len(t, fc.requests, 3)
}

func TestHandle_OutlivesRequestContext(t *testing.T) {
	fc := &fakeClient{reply: "ok"}
	var built context.Context
	factory := func(ctx context.Context) (client.VisionClient, error) {
		built = ctx
		return fc, nil
	}
	svc := NewService(factory, DefaultOptions(), logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	_, err := svc.Handle(ctx)
	require.NoError(t, err)
	cancel()

	require.NoError(t, built.Err())
	_, hasDeadline := built.Deadline()
	require.False(t, hasDeadline)
}

func TestDescribe_FailedConstructionIsRetried(t *testing.T) {
	fc := &fakeClient{reply: "ok"}
	calls := 0
	factory := func(ctx context.Context) (client.VisionClient, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("no credentials")
		}
		return fc, nil
	}
	svc := NewService(factory, DefaultOptions(), logging.Discard())

	_, err := svc.Describe(context.Background(), testImage())
	var re *RemoteError
	require.True(t, errors.As(err, &re))
	require.Contains(t, err.Error(), "no credentials")

	text, err := svc.Describe(context.Background(), testImage())
	require.NoError(t, err)
	require.Equal(t, "ok", text)
	require.Equal(t, 2, calls)
}

func TestDescribe_RemoteFailureIsWrapped(t *testing.T) {
	boom := errors.New("403 API key not valid")
	fc := &fakeClient{err: boom}
	var calls int
	svc := NewService(countingFactory(fc, &calls), DefaultOptions(), logging.Discard())

	_, err := svc.Describe(context.Background(), testImage())
	var re *RemoteError
	require.True(t, errors.As(err, &re))
	require.Equal(t, "fake", re.Backend)
	require.ErrorIs(t, err, boom)
}

func TestDescribe_EncodingFailureIsLocal(t *testing.T) {
	fc := &fakeClient{reply: "ok"}
	var calls int
	opts := DefaultOptions()
	opts.Encoding.Format = "bmp"
	svc := NewService(countingFactory(fc, &calls), opts, logging.Discard())

	_, err := svc.Describe(context.Background(), testImage())
	require.Error(t, err)
	var re *RemoteError
	require.False(t, errors.As(err, &re))
	require.Empty(t, fc.requests)
}

func TestDescribe_RateLimitHonoursContext(t *testing.T) {
	fc := &fakeClient{reply: "ok"}
	var calls int
	opts := DefaultOptions()
	opts.RequestsPerMinute = 1
	svc := NewService(countingFactory(fc, &calls), opts, logging.Discard())

	_, err := svc.Describe(context.Background(), testImage())
	require.NoError(t, err)

	// The bucket is empty now, so a cancelled context fails fast
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Describe(ctx, testImage())
	var re *RemoteError
	require.True(t, errors.As(err, &re))
	require.Len(t, fc.requests, 1)
}

func TestClose(t *testing.T) {
	fc := &fakeClient{reply: "ok"}
	var calls int
	svc := NewService(countingFactory(fc, &calls), DefaultOptions(), logging.Discard())

	require.NoError(t, svc.Close())
	require.False(t, fc.closed)

	_, err := svc.Describe(context.Background(), testImage())
	require.NoError(t, err)
	require.NoError(t, svc.Close())
	require.True(t, fc.closed)
}
