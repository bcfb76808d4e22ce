package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	oagc "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/menta2k/sys2doc/pkg/types"
)

const DefaultModel = "gpt-4o-mini"

var ErrNoChoices = errors.New("openai: response has no choices")

// Client talks to any OpenAI-compatible chat completions server, including a
// local llama.cpp server
type Client struct {
	oac   *oagc.Client
	model string
}

// NewClient creates a client. baseURL and apiKey may be empty to use the
// public API and the OPENAI_API_KEY environment variable.
func NewClient(baseURL, apiKey, model string, httpClient *http.Client) *Client {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if model == "" {
		model = DefaultModel
	}

	return &Client{oac: oagc.NewClient(opts...), model: model}
}

func (c *Client) Name() string { return "openai/" + c.model }

// Describe sends the prompt and a data URL of the image as one user message.
// Top-k and safety settings have no counterpart in this API.
func (c *Client) Describe(ctx context.Context, req *types.DescriptionRequest) (string, error) {
	params := oagc.ChatCompletionNewParams{
		Messages: oagc.F([]oagc.ChatCompletionMessageParamUnion{
			oagc.UserMessageParts(
				oagc.TextPart(req.Prompt),
				oagc.ImagePart(dataURL(req)),
			),
		}),
		Model:       oagc.F(oagc.ChatModel(c.model)),
		Temperature: oagc.Float(float64(req.Generation.Temperature)),
		TopP:        oagc.Float(float64(req.Generation.TopP)),
	}
	if req.Generation.MaxOutputTokens > 0 {
		params.MaxTokens = oagc.Int(int64(req.Generation.MaxOutputTokens))
	}

	resp, err := c.oac.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}

func dataURL(req *types.DescriptionRequest) string {
	return "data:" + req.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(req.Image)
}
