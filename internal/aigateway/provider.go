// internal/aigateway/provider.go
package aigateway

import (
	"context"
	"fmt"
)

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries one chat-completion call through the failover
// chain. Zero values fall back to gateway defaults.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"maxTokens"`
	// TimeoutMs bounds each single provider attempt, not the whole chain.
	TimeoutMs int `json:"timeoutMs"`
	// ProviderOrder overrides the configured failover order.
	ProviderOrder []string `json:"providerOrder,omitempty"`
	// JSONMode asks providers that support it for a strict JSON object reply.
	JSONMode bool `json:"jsonMode"`
}

// Usage is the token accounting reported by a provider.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Completion is a successful completion and the provider that produced it.
type Completion struct {
	Content      string `json:"content"`
	ProviderUsed string `json:"providerUsed"`
	Usage        Usage  `json:"usage"`
}

// Provider is one LLM backend in the failover chain.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}

// ProviderError is a non-2xx provider response. The gateway uses StatusCode
// to tell auth failures and rate limits from everything else.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// IsAuthFailure reports a 401-class error. These are never retried.
func (e *ProviderError) IsAuthFailure() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsRateLimited reports a 429 response.
func (e *ProviderError) IsRateLimited() bool {
	return e.StatusCode == 429
}
