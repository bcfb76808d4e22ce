package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/sys2doc/pkg/types"
)

const DefaultModel = "llava"

var ErrEmptyResponse = errors.New("empty response from ollama")

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates a new Ollama client for the server at ollamaURL
func NewClient(ollamaURL, model string, httpClient *http.Client) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: scheme and host required", ollamaURL)
	}

	// Drop any path such as /api/chat, the SDK adds its own
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if model == "" {
		model = DefaultModel
	}

	return &Client{client: api.NewClient(baseURL, httpClient), model: model}, nil
}

func (c *Client) Name() string {
	return "ollama/" + c.model
}

// Describe sends the prompt with the image attached in one non-streaming chat
// call. Safety settings have no Ollama equivalent and are not sent.
func (c *Client) Describe(ctx context.Context, req *types.DescriptionRequest) (string, error) {
	streamFalse := false
	chat := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: req.Prompt,
				Images:  []api.ImageData{api.ImageData(req.Image)},
			},
		},
		Stream:  &streamFalse,
		Options: options(req.Generation),
	}

	var sb strings.Builder
	err := c.client.Chat(ctx, chat, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}

	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

func options(g types.GenerationConfig) map[string]any {
	opts := map[string]any{
		"temperature": g.Temperature,
		"top_p":       g.TopP,
	}
	if g.TopK > 0 {
		opts["top_k"] = g.TopK
	}
	if g.MaxOutputTokens > 0 {
		opts["num_predict"] = g.MaxOutputTokens
	}
	return opts
}
