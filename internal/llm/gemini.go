package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/zulandar/launchpad/internal/logx"
)

// geminiModels is the subset of *genai.Models used here.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator calls the Gemini API through google.golang.org/genai.
type GeminiGenerator struct {
	models geminiModels
	model  string
}

// NewGemini creates a Gemini-backed generator.
func NewGemini(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("llm: LAUNCHPAD_GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini client: %w", err)
	}
	return &GeminiGenerator{models: client.Models, model: model}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini" }

// Generate sends prompt as a single user turn.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(s.Temperature),
		TopK:            genai.Ptr(s.TopK),
		TopP:            genai.Ptr(s.TopP),
		MaxOutputTokens: s.MaxOutputTokens,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", g.model).Msg("gemini request failed")
		return "", upstream(g.Name(), err)
	}
	if resp == nil {
		return checkEmpty(g.Name(), "")
	}
	logx.Debug().Str("model", g.model).Int("prompt_len", len(prompt)).Msg("gemini response received")
	return checkEmpty(g.Name(), resp.Text())
}
