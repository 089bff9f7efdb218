package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zulandar/launchpad/internal/logx"
)

// anthropicMessages is the subset of anthropic.MessageService used here.
type anthropicMessages interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicGenerator uses the Anthropic Messages API.
type AnthropicGenerator struct {
	messages anthropicMessages
	model    string
}

// NewAnthropic creates an Anthropic-backed generator.
func NewAnthropic(apiKey, model string) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("llm: LAUNCHPAD_ANTHROPIC_API_KEY is not set")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicGenerator{messages: &client.Messages, model: model}, nil
}

func (a *AnthropicGenerator) Name() string { return "anthropic" }

// Generate sends prompt as a single user message.
func (a *AnthropicGenerator) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   int64(s.MaxOutputTokens),
		Temperature: anthropic.Float(float64(s.Temperature)),
		TopK:        anthropic.Int(int64(s.TopK)),
		TopP:        anthropic.Float(float64(s.TopP)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Str("model", a.model).Msg("anthropic request failed")
		return "", upstream(a.Name(), err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	logx.Debug().Str("model", a.model).Int("prompt_len", len(prompt)).Msg("anthropic response received")
	return checkEmpty(a.Name(), out.String())
}
