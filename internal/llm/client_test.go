package llm

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roofsite-cli/internal/config"
	"github.com/sells-group/roofsite-cli/internal/model"
	"github.com/sells-group/roofsite-cli/internal/resilience"
)

type fakeClient struct {
	mu    sync.Mutex
	calls []time.Time
	reply string
	err   error
	delay time.Duration
}

func (f *fakeClient) Query(ctx context.Context, _ string, _ int) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, time.Now())
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.reply, f.err
}

type statusErr int

func (s statusErr) Error() string   { return http.StatusText(int(s)) }
func (s statusErr) HTTPStatus() int { return int(s) }

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	c := New(&config.Config{LLM: config.LLMConfig{Provider: "deepseek"}})
	assert.False(t, Enabled(c))

	_, err := c.Query(context.Background(), "hi", 10)
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestNewWithKeyIsPaced(t *testing.T) {
	for _, provider := range []string{"deepseek", "anthropic"} {
		c := New(&config.Config{
			LLM:       config.LLMConfig{Provider: provider, TimeoutSecs: 60, MinIntervalMs: 1000},
			DeepSeek:  config.DeepSeekConfig{Key: "k", BaseURL: "http://localhost", Model: "m"},
			Anthropic: config.AnthropicConfig{Key: "k", Model: "m"},
		})
		assert.True(t, Enabled(c), provider)
		assert.IsType(t, &Paced{}, c, provider)
	}
}

func TestPacedSpacesCalls(t *testing.T) {
	f := &fakeClient{reply: "ok"}
	p := NewPaced(f, 50*time.Millisecond, time.Second)

	for range 3 {
		_, err := p.Query(context.Background(), "p", 10)
		require.NoError(t, err)
	}
	require.Len(t, f.calls, 3)
	for i := 1; i < len(f.calls); i++ {
		assert.GreaterOrEqual(t, f.calls[i].Sub(f.calls[i-1]), 45*time.Millisecond)
	}
}

func TestPacedTimeout(t *testing.T) {
	f := &fakeClient{reply: "late", delay: time.Second}
	p := NewPaced(f, 0, 20*time.Millisecond)

	_, err := p.Query(context.Background(), "p", 10)
	require.Error(t, err)
	assert.True(t, resilience.IsTimeout(err))
}

func TestPacedBreakerOpensAfterTransientFailures(t *testing.T) {
	f := &fakeClient{err: statusErr(http.StatusServiceUnavailable)}
	p := NewPaced(f, 0, time.Second)

	for range 3 {
		_, err := p.Query(context.Background(), "p", 10)
		require.Error(t, err)
	}
	_, err := p.Query(context.Background(), "p", 10)
	assert.ErrorIs(t, err, resilience.ErrOpen)
	assert.Len(t, f.calls, 3)
}

func TestQueryJSON(t *testing.T) {
	var out struct {
		Lat float64 `json:"latitude"`
	}
	o := QueryJSON(context.Background(), &fakeClient{reply: `Result: {"latitude": 34.05}`}, "geocode", "p", 50, &out)
	assert.Equal(t, model.OutcomeOK, o.Kind)
	assert.InDelta(t, 34.05, out.Lat, 1e-9)

	o = QueryJSON(context.Background(), &fakeClient{reply: "I cannot help"}, "geocode", "p", 50, &out)
	assert.True(t, o.IsFallback())
	assert.Equal(t, model.ReasonParse, o.Reason)
	assert.Equal(t, "geocode", o.Scope)
}

func TestQueryTextOutcomes(t *testing.T) {
	text, o := QueryText(context.Background(), Disabled{}, "about", "p", 50)
	assert.Empty(t, text)
	assert.Equal(t, model.ReasonNoKey, o.Reason)

	text, o = QueryText(context.Background(), &fakeClient{reply: "  \n"}, "about", "p", 50)
	assert.Empty(t, text)
	assert.Equal(t, model.ReasonParse, o.Reason)

	text, o = QueryText(context.Background(), &fakeClient{err: statusErr(http.StatusBadRequest)}, "about", "p", 50)
	assert.Empty(t, text)
	assert.Equal(t, model.ReasonHTTP, o.Reason)

	text, o = QueryText(context.Background(), &fakeClient{reply: "We roof."}, "about", "p", 50)
	assert.Equal(t, "We roof.", text)
	assert.Equal(t, model.OutcomeOK, o.Kind)
}

func TestFailureTimeoutReason(t *testing.T) {
	o := Failure("x", context.DeadlineExceeded)
	assert.Equal(t, model.ReasonTimeout, o.Reason)
	assert.True(t, errors.Is(o.Err, context.DeadlineExceeded))
}
