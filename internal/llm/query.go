package llm

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/roofsite-cli/internal/model"
	"github.com/sells-group/roofsite-cli/internal/resilience"
)

// QueryJSON sends prompt and decodes the JSON object in the reply into dst.
// Any failure is reported as a fallback outcome for scope; dst is then left
// for the caller to fill with its local default.
func QueryJSON(ctx context.Context, c Client, scope, prompt string, maxTokens int, dst any) model.Outcome {
	text, err := c.Query(ctx, prompt, maxTokens)
	if err != nil {
		return Failure(scope, err)
	}
	if err := ExtractJSON(text, dst); err != nil {
		zap.L().Warn("llm response not usable, using fallback",
			zap.String("scope", scope),
			zap.Error(err),
		)
		return model.Fallback(scope, model.ReasonParse, err)
	}
	return model.OK()
}

// QueryText sends prompt and returns the cleaned reply. An empty reply is
// treated as a parse failure.
func QueryText(ctx context.Context, c Client, scope, prompt string, maxTokens int) (string, model.Outcome) {
	text, err := c.Query(ctx, prompt, maxTokens)
	if err != nil {
		return "", Failure(scope, err)
	}
	text = CleanText(text)
	if text == "" {
		zap.L().Warn("llm returned empty text, using fallback", zap.String("scope", scope))
		return "", model.Fallback(scope, model.ReasonParse, errors.New("llm: empty response"))
	}
	return text, model.OK()
}

// Failure maps a query error to a fallback outcome and logs it.
func Failure(scope string, err error) model.Outcome {
	if errors.Is(err, ErrNoKey) {
		zap.L().Debug("llm disabled, using fallback", zap.String("scope", scope))
		return model.Fallback(scope, model.ReasonNoKey, err)
	}
	reason := resilience.Reason(err)
	zap.L().Warn("llm call failed, using fallback",
		zap.String("scope", scope),
		zap.String("reason", reason),
		zap.Error(err),
	)
	return model.Fallback(scope, reason, err)
}
