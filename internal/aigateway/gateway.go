// internal/aigateway/gateway.go
package aigateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wateryu2030/yykhotdog-sub001/internal/common/config"
	apperrors "github.com/wateryu2030/yykhotdog-sub001/internal/common/errors"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/logger"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/metrics"
)

const defaultAttemptTimeout = 30 * time.Second

// providerSlot pairs a provider implementation with its immutable config.
type providerSlot struct {
	cfg      config.ProviderConfig
	provider Provider
}

// Gateway tries an ordered chain of LLM providers for one completion request.
// Attempts are strictly sequential; the first non-empty success stops the
// chain. Provider configs are read-only after construction; the only mutable
// state is the adaptive throttle.
type Gateway struct {
	slots    []providerSlot
	throttle *adaptiveThrottle
	logger   logger.Logger
}

// New builds a Gateway from the ordered provider configs. Unknown formats are
// rejected by config validation before this point.
func New(cfgs []config.ProviderConfig, log logger.Logger) *Gateway {
	// No client-level timeout: each attempt is bounded by its own context.
	client := &http.Client{}

	slots := make([]providerSlot, 0, len(cfgs))
	for _, cfg := range cfgs {
		var p Provider
		switch cfg.Format {
		case "rest":
			p = newRESTProvider(cfg, client)
		default:
			p = newOpenAIProvider(cfg, client)
		}
		slots = append(slots, providerSlot{cfg: cfg, provider: p})
	}

	return &Gateway{
		slots:    slots,
		throttle: newAdaptiveThrottle(),
		logger:   log.WithFields(map[string]interface{}{"component": "aigateway"}),
	}
}

// HasAvailableProvider reports whether any provider is enabled. No network.
func (g *Gateway) HasAvailableProvider() bool {
	for _, s := range g.slots {
		if s.cfg.Enabled {
			return true
		}
	}
	return false
}

// Complete runs the failover chain for one request.
func (g *Gateway) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, &apperrors.StandardError{
			Code:      apperrors.ErrCodeEmptyCompletionRequest,
			Message:   "completion request must contain at least one message",
			Timestamp: time.Now().UTC(),
		}
	}

	order := g.resolveOrder(req.ProviderOrder)
	attempts := make([]apperrors.ProviderAttempt, 0, len(order))

	for _, slot := range order {
		name := slot.cfg.Name

		if !slot.cfg.Enabled {
			g.logger.Debug("provider disabled, skipping", map[string]interface{}{"provider": name})
			continue
		}

		if err := g.throttle.wait(ctx, name); err != nil {
			attempts = append(attempts, apperrors.ProviderAttempt{Provider: name, Err: err})
			break
		}

		completion, err := g.tryProvider(ctx, slot, req)
		if err == nil {
			g.throttle.reset(name)
			return completion, nil
		}

		attempts = append(attempts, apperrors.ProviderAttempt{Provider: name, Err: err})

		if ctx.Err() != nil {
			// Caller cancellation stops the whole chain.
			break
		}
	}

	return nil, apperrors.NewExhaustedError(attempts)
}

// tryProvider makes one bounded attempt against one provider.
func (g *Gateway) tryProvider(ctx context.Context, slot providerSlot, req *CompletionRequest) (*Completion, error) {
	name := slot.cfg.Name
	metrics.ProviderAttempts.WithLabelValues(name).Inc()

	timeout := defaultAttemptTimeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	} else if slot.cfg.TimeoutMs > 0 {
		timeout = time.Duration(slot.cfg.TimeoutMs) * time.Millisecond
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	completion, err := slot.provider.Complete(attemptCtx, req)
	if err != nil {
		g.recordFailure(name, err, attemptCtx)
		return nil, normalizeAttemptError(err, attemptCtx)
	}

	if strings.TrimSpace(completion.Content) == "" {
		metrics.ProviderFailures.WithLabelValues(name, "empty_content").Inc()
		g.logger.Warn("provider returned empty content", map[string]interface{}{"provider": name})
		return nil, errors.New("empty completion content")
	}

	g.logger.Info("completion succeeded", map[string]interface{}{
		"provider":    name,
		"totalTokens": completion.Usage.TotalTokens,
	})
	return completion, nil
}

func (g *Gateway) recordFailure(name string, err error, attemptCtx context.Context) {
	var pErr *ProviderError
	switch {
	case errors.As(err, &pErr) && pErr.IsAuthFailure():
		metrics.ProviderFailures.WithLabelValues(name, "auth").Inc()
		g.logger.Error("provider authentication failed, skipping", map[string]interface{}{
			"provider": name,
			"status":   pErr.StatusCode,
		})
	case errors.As(err, &pErr) && pErr.IsRateLimited():
		metrics.ProviderFailures.WithLabelValues(name, "rate_limited").Inc()
		g.throttle.bump(name)
		g.logger.Warn("provider rate limited, throttle increased", map[string]interface{}{
			"provider": name,
			"delay":    g.throttle.current(name).String(),
		})
	case attemptCtx.Err() == context.DeadlineExceeded:
		metrics.ProviderFailures.WithLabelValues(name, "timeout").Inc()
		g.logger.Warn("provider attempt timed out", map[string]interface{}{"provider": name})
	default:
		metrics.ProviderFailures.WithLabelValues(name, "error").Inc()
		g.logger.Warn("provider attempt failed", map[string]interface{}{
			"provider": name,
			"error":    err.Error(),
		})
	}
}

// normalizeAttemptError maps a deadline hit to a stable message so the
// exhaustion report does not leak transport internals.
func normalizeAttemptError(err error, attemptCtx context.Context) error {
	if attemptCtx.Err() == context.DeadlineExceeded {
		return errors.New(string(apperrors.ErrCodeProviderTimeout))
	}
	return err
}

// resolveOrder maps an explicit provider-name order onto configured slots,
// falling back to config order. Unknown names are ignored.
func (g *Gateway) resolveOrder(names []string) []providerSlot {
	if len(names) == 0 {
		return g.slots
	}

	byName := make(map[string]providerSlot, len(g.slots))
	for _, s := range g.slots {
		byName[s.cfg.Name] = s
	}

	order := make([]providerSlot, 0, len(names))
	for _, n := range names {
		if s, ok := byName[n]; ok {
			order = append(order, s)
		}
	}
	if len(order) == 0 {
		return g.slots
	}
	return order
}
