package client

import (
	"context"

	"github.com/menta2k/sys2doc/pkg/types"
)

// VisionClient is a handle on a remote multimodal model
type VisionClient interface {
	// Name returns the backend name, e.g. "gemini" or "ollama"
	Name() string

	// Describe sends the prompt and image in req and returns the model's
	// plain text answer. The call is synchronous.
	Describe(ctx context.Context, req *types.DescriptionRequest) (string, error)
}
