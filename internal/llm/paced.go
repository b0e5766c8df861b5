package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/roofsite-cli/internal/resilience"
)

// Paced spaces successive requests at least interval apart, bounds each
// request by timeout, and stops calling a provider that keeps timing out.
// Calls are sequential; no retries are attempted.
type Paced struct {
	next    Client
	limiter *rate.Limiter
	timeout time.Duration
	breaker *resilience.Breaker
}

// NewPaced wraps next. A non-positive interval disables pacing and a
// non-positive timeout leaves the caller's deadline in place.
func NewPaced(next Client, interval, timeout time.Duration) *Paced {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Paced{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
		breaker: resilience.NewBreaker("llm", 3, 2*time.Minute),
	}
}

// Query implements Client.
func (p *Paced) Query(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := p.breaker.Allow(); err != nil {
		return "", eris.Wrap(err, "llm: query")
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "llm: pacing wait")
	}

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	text, err := p.next.Query(callCtx, prompt, maxTokens)
	p.breaker.Record(err)
	if err != nil {
		return "", eris.Wrap(err, "llm: query")
	}
	return text, nil
}
