package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/sys2doc/pkg/types"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	require.True(t, errors.Is(err, ErrNoAPIKey))
}

func TestNewClient_ConfiguresModelOnce(t *testing.T) {
	c, err := NewClient(context.Background(), Config{
		APIKey:     "test-key",
		Generation: types.GenerationConfig{TopP: 0.5, TopK: 10, MaxOutputTokens: 2048, ResponseMIMEType: "text/plain"},
		Safety:     []types.SafetySetting{{Category: types.HarmHateSpeech, Threshold: types.BlockMediumAndAbove}},
	})
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, "gemini/"+DefaultModel, c.Name())
	require.NotNil(t, c.model)
	require.Equal(t, int32(10), *c.model.TopK)
	require.Equal(t, "text/plain", c.model.ResponseMIMEType)
	require.Len(t, c.model.SafetySettings, 1)
	require.Equal(t, genai.HarmCategoryHateSpeech, c.model.SafetySettings[0].Category)
}

func TestSafetySettings(t *testing.T) {
	in := []types.SafetySetting{
		{Category: types.HarmHarassment, Threshold: types.BlockMediumAndAbove},
		{Category: types.HarmHateSpeech, Threshold: types.BlockMediumAndAbove},
		{Category: types.HarmSexuallyExplicit, Threshold: types.BlockOnlyHigh},
		{Category: types.HarmDangerousContent, Threshold: types.BlockNone},
	}

	out := safetySettings(in)
	require.Len(t, out, 4)
	require.Equal(t, genai.HarmCategoryHarassment, out[0].Category)
	require.Equal(t, genai.HarmBlockMediumAndAbove, out[0].Threshold)
	require.Equal(t, genai.HarmCategoryHateSpeech, out[1].Category)
	require.Equal(t, genai.HarmCategorySexuallyExplicit, out[2].Category)
	require.Equal(t, genai.HarmBlockOnlyHigh, out[2].Threshold)
	require.Equal(t, genai.HarmCategoryDangerousContent, out[3].Category)
	require.Equal(t, genai.HarmBlockNone, out[3].Threshold)
}

func TestConfigure(t *testing.T) {
	model := &genai.GenerativeModel{}
	gen := types.GenerationConfig{
		Temperature:      0,
		TopP:             0.5,
		TopK:             10,
		MaxOutputTokens:  2048,
		ResponseMIMEType: "text/plain",
	}
	safety := []types.SafetySetting{{Category: types.HarmHarassment, Threshold: types.BlockMediumAndAbove}}

	configure(model, gen, safety)

	require.NotNil(t, model.Temperature)
	require.Equal(t, float32(0), *model.Temperature)
	require.Equal(t, float32(0.5), *model.TopP)
	require.Equal(t, int32(10), *model.TopK)
	require.Equal(t, int32(2048), *model.MaxOutputTokens)
	require.Equal(t, "text/plain", model.ResponseMIMEType)
	require.Len(t, model.SafetySettings, 1)
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("The diagram shows "),
				genai.Text("a queue."),
			}},
		}},
	}

	text, err := responseText(resp)
	require.NoError(t, err)
	require.Equal(t, "The diagram shows a queue.", text)
}

func TestResponseText_Failures(t *testing.T) {
	_, err := responseText(&genai.GenerateContentResponse{})
	require.ErrorIs(t, err, ErrNoCandidate)

	_, err = responseText(&genai.GenerateContentResponse{
		PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
	})
	require.ErrorContains(t, err, "blocked")

	_, err = responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	})
	require.Error(t, err)
}
