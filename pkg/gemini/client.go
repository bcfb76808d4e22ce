package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/menta2k/sys2doc/pkg/types"
)

const DefaultModel = "gemini-1.5-flash"

var (
	ErrNoAPIKey    = errors.New("gemini: API key is not set")
	ErrNoCandidate = errors.New("gemini: response has no candidates")
)

// Config fixes everything about the handle; it is applied once at
// construction
type Config struct {
	APIKey     string
	Model      string
	Generation types.GenerationConfig
	Safety     []types.SafetySetting
}

// Client wraps the Generative AI SDK client and one configured model
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewClient creates a Gemini client authenticated with cfg.APIKey
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	configure(model, cfg.Generation, cfg.Safety)

	return &Client{client: client, model: model, name: cfg.Model}, nil
}

func (c *Client) Name() string {
	return "gemini/" + c.name
}

// Describe sends the prompt and image in one non-streaming call. Generation
// and safety settings come from the Config the client was built with.
func (c *Client) Describe(ctx context.Context, req *types.DescriptionRequest) (string, error) {
	resp, err := c.model.GenerateContent(ctx,
		genai.Text(req.Prompt),
		genai.ImageData(req.ImageFormat(), req.Image),
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return responseText(resp)
}

func (c *Client) Close() error {
	return c.client.Close()
}

func configure(model *genai.GenerativeModel, g types.GenerationConfig, safety []types.SafetySetting) {
	model.SetTemperature(g.Temperature)
	model.SetTopP(g.TopP)
	model.SetTopK(g.TopK)
	model.SetMaxOutputTokens(g.MaxOutputTokens)
	model.ResponseMIMEType = g.ResponseMIMEType
	model.SafetySettings = safetySettings(safety)
}

func safetySettings(in []types.SafetySetting) []*genai.SafetySetting {
	out := make([]*genai.SafetySetting, 0, len(in))
	for _, s := range in {
		out = append(out, &genai.SafetySetting{
			Category:  harmCategory(s.Category),
			Threshold: blockThreshold(s.Threshold),
		})
	}
	return out
}

func harmCategory(c types.HarmCategory) genai.HarmCategory {
	switch c {
	case types.HarmHarassment:
		return genai.HarmCategoryHarassment
	case types.HarmHateSpeech:
		return genai.HarmCategoryHateSpeech
	case types.HarmSexuallyExplicit:
		return genai.HarmCategorySexuallyExplicit
	case types.HarmDangerousContent:
		return genai.HarmCategoryDangerousContent
	default:
		return genai.HarmCategoryUnspecified
	}
}

func blockThreshold(t types.BlockThreshold) genai.HarmBlockThreshold {
	switch t {
	case types.BlockNone:
		return genai.HarmBlockNone
	case types.BlockOnlyHigh:
		return genai.HarmBlockOnlyHigh
	case types.BlockMediumAndAbove:
		return genai.HarmBlockMediumAndAbove
	case types.BlockLowAndAbove:
		return genai.HarmBlockLowAndAbove
	default:
		return genai.HarmBlockUnspecified
	}
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrNoCandidate
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("gemini: prompt blocked: %s", fb.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoCandidate
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("gemini: candidate has no content (finish reason %s)", cand.FinishReason)
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
