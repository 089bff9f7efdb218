// Package llm is the boundary to the hosted generative model. A Generator
// makes exactly one request per call and never retries.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/config"
)

// Kind names the task a prompt belongs to.
type Kind string

const (
	KindAnalysis Kind = "analysis"
	KindPRD      Kind = "prd"
	KindChat     Kind = "chat"
	KindContent  Kind = "content"
)

// Settings are the sampling parameters for one request.
type Settings struct {
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int32
}

// SettingsFor returns the sampling parameters used for a task kind.
// Document-sized outputs get the larger token ceiling.
func SettingsFor(kind Kind) Settings {
	s := Settings{Temperature: 0.7, TopK: 40, TopP: 0.95, MaxOutputTokens: 2048}
	switch kind {
	case KindPRD, KindContent:
		s.MaxOutputTokens = 4096
	}
	return s
}

// Generator produces a single free-text completion.
type Generator interface {
	Generate(ctx context.Context, prompt string, s Settings) (string, error)
	Name() string
}

// New builds the generator selected by cfg.AI.Provider.
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	switch cfg.AI.Provider {
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.Secrets.GeminiAPIKey, cfg.AI.Model)
	case config.ProviderAnthropic:
		return NewAnthropic(cfg.Secrets.AnthropicAPIKey, cfg.AI.Model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.AI.Provider)
	}
}

// upstream converts a provider failure into the user-facing service error.
func upstream(provider string, err error) error {
	return apperr.Wrap(err, apperr.Upstream, "AI service error ("+provider+")")
}

func checkEmpty(provider, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperr.New(apperr.Upstream, "AI service error (%s): empty response", provider)
	}
	return text, nil
}
