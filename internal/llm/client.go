// Package llm is the single text-generation contract used by every stage,
// with provider adapters, request pacing, and JSON extraction from prose.
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sells-group/roofsite-cli/internal/config"
	"github.com/sells-group/roofsite-cli/pkg/anthropic"
	"github.com/sells-group/roofsite-cli/pkg/deepseek"
)

// Client generates text for a prompt.
type Client interface {
	Query(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ErrNoKey is returned by the disabled client when no API key is configured.
// Consumers treat it as a fallback trigger, never as a stage failure.
var ErrNoKey = errors.New("llm: no key")

// Disabled is the client used when no API key is configured.
type Disabled struct{}

// Query always returns ErrNoKey.
func (Disabled) Query(context.Context, string, int) (string, error) {
	return "", ErrNoKey
}

// Enabled reports whether c can reach a model.
func Enabled(c Client) bool {
	_, disabled := c.(Disabled)
	return c != nil && !disabled
}

// New builds the configured provider behind pacing and a breaker. Without
// a key for the selected provider it returns Disabled.
func New(cfg *config.Config) Client {
	key := cfg.LLMKey()
	if key == "" {
		return Disabled{}
	}

	var base Client
	switch strings.ToLower(cfg.LLM.Provider) {
	case "anthropic":
		base = &AnthropicProvider{
			Client: anthropic.NewClient(key, anthropic.WithTimeout(cfg.LLM.Timeout())),
			Model:  cfg.Anthropic.Model,
		}
	default:
		base = &DeepSeekProvider{
			Client: deepseek.NewClient(key,
				deepseek.WithBaseURL(cfg.DeepSeek.BaseURL),
				deepseek.WithModel(cfg.DeepSeek.Model),
				deepseek.WithTimeout(cfg.LLM.Timeout()),
			),
			Model: cfg.DeepSeek.Model,
		}
	}
	return NewPaced(base, cfg.LLM.MinInterval(), cfg.LLM.Timeout())
}
