package ai

import (
	"context"
	"fmt"

	"github.com/invoiceForge/composer-service/internal/models"
)

// Provider is a backend capable of turning a transcript into structured
// invoice JSON. Implementations return the raw model response; the
// Extractor owns parsing.
type Provider interface {
	Name() string
	ExtractData(ctx context.Context, prompt string) (string, error)
}

// NewProvider creates the appropriate extraction provider
func NewProvider(name string, cfg models.AIConfig) (Provider, error) {
	switch name {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key not configured")
		}
		return NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("Gemini API key not configured")
		}
		return NewGeminiProvider(cfg.Gemini.APIKey, cfg.Gemini.Model), nil
	case "heuristic", "":
		return NewHeuristicProvider(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", name)
	}
}
