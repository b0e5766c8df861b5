package resilience

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// ReasonOpen is the fallback reason for calls rejected by an open breaker.
const ReasonOpen = "breaker_open"

// ErrOpen is returned when a call is rejected because the breaker is open.
var ErrOpen = errors.New("resilience: breaker open")

// Breaker stops calling a service after consecutive transient failures so
// that one unreachable host does not cost a full timeout per request. After
// Cooldown a single trial call is let through. The pipeline is single-threaded;
// Breaker is not safe for concurrent use.
type Breaker struct {
	Name      string
	Threshold int
	Cooldown  time.Duration

	failures int
	openedAt time.Time
	now      func() time.Time
}

// NewBreaker creates a breaker. Non-positive arguments take defaults of
// 3 failures and a 2 minute cooldown.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 2 * time.Minute
	}
	return &Breaker{Name: name, Threshold: threshold, Cooldown: cooldown, now: time.Now}
}

// Open reports whether calls are currently rejected.
func (b *Breaker) Open() bool {
	if b.failures < b.Threshold {
		return false
	}
	return b.now().Sub(b.openedAt) < b.Cooldown
}

// Allow returns ErrOpen while the breaker is open.
func (b *Breaker) Allow() error {
	if b.Open() {
		return ErrOpen
	}
	return nil
}

// Record updates the breaker with a call result. Only transient failures
// count; a success closes the breaker.
func (b *Breaker) Record(err error) {
	if err == nil {
		b.failures = 0
		return
	}
	if !IsTransient(err) {
		return
	}
	b.failures++
	if b.failures >= b.Threshold {
		b.openedAt = b.now()
		if b.failures == b.Threshold {
			zap.L().Warn("breaker opened after consecutive failures",
				zap.String("service", b.Name),
				zap.Int("failures", b.failures),
				zap.Duration("cooldown", b.Cooldown),
			)
		}
	}
}
