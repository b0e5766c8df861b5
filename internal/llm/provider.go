package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/pkg/anthropic"
	"github.com/sells-group/roofsite-cli/pkg/deepseek"
)

const defaultMaxTokens = 1024

var temperature = 0.3

// DeepSeekProvider adapts the DeepSeek chat API to Client.
type DeepSeekProvider struct {
	Client deepseek.Client
	Model  string
}

// Query implements Client.
func (p *DeepSeekProvider) Query(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temp := temperature
	resp, err := p.Client.ChatCompletion(ctx, deepseek.ChatCompletionRequest{
		Model:       p.Model,
		Messages:    []deepseek.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("deepseek: no choices in response")
	}
	zap.L().Debug("cost attribution",
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.Usage.PromptTokens),
		zap.Int("output_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Text(), nil
}

// AnthropicProvider adapts the Anthropic Messages API to Client.
type AnthropicProvider struct {
	Client anthropic.Client
	Model  string
}

// Query implements Client.
func (p *AnthropicProvider) Query(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temp := temperature
	resp, err := p.Client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       p.Model,
		MaxTokens:   int64(maxTokens),
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(p.Model, "query")
	return resp.Text(), nil
}
