// internal/aigateway/throttle.go
package aigateway

import (
	"context"
	"sync"
	"time"
)

const (
	throttleInitial = 500 * time.Millisecond
	throttleMax     = 10 * time.Second
)

// adaptiveThrottle tracks a per-provider request delay. Rate-limit responses
// double the delay, successes clear it. Guarded by a mutex because analyses
// run concurrently.
type adaptiveThrottle struct {
	mu     sync.Mutex
	delays map[string]time.Duration
}

func newAdaptiveThrottle() *adaptiveThrottle {
	return &adaptiveThrottle{delays: make(map[string]time.Duration)}
}

// wait sleeps for the provider's current delay, honoring ctx cancellation.
func (t *adaptiveThrottle) wait(ctx context.Context, provider string) error {
	t.mu.Lock()
	delay := t.delays[provider]
	t.mu.Unlock()

	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// bump increases the provider's delay after a rate-limit response.
func (t *adaptiveThrottle) bump(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.delays[provider]
	if current <= 0 {
		t.delays[provider] = throttleInitial
		return
	}
	next := current * 2
	if next > throttleMax {
		next = throttleMax
	}
	t.delays[provider] = next
}

// reset clears the provider's delay after a successful call.
func (t *adaptiveThrottle) reset(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.delays, provider)
}

// current returns the provider's delay, for tests.
func (t *adaptiveThrottle) current(provider string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delays[provider]
}
