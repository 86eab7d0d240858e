// internal/aigateway/rest.go
package aigateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wateryu2030/yykhotdog-sub001/internal/common/config"
)

// restProvider speaks a flat prompt/text REST envelope instead of the chat
// shape, proving the gateway does not assume one wire format.
type restProvider struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func newRESTProvider(cfg config.ProviderConfig, client *http.Client) *restProvider {
	return &restProvider{cfg: cfg, client: client}
}

func (p *restProvider) Name() string {
	return p.cfg.Name
}

type restRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

type restResponse struct {
	Text  string `json:"text"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// flattenMessages folds a chat transcript into one prompt for backends that
// only accept plain text.
func flattenMessages(messages []Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			parts = append(parts, m.Content)
		default:
			parts = append(parts, fmt.Sprintf("%s: %s", m.Role, m.Content))
		}
	}
	return strings.Join(parts, "\n\n")
}

func (p *restProvider) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	payload := restRequest{
		Model:       p.cfg.Model,
		Prompt:      flattenMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/api/generate", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ProviderError{
			Provider:   p.cfg.Name,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var parsed restResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &Completion{
		Content:      parsed.Text,
		ProviderUsed: p.cfg.Name,
		Usage:        Usage{TotalTokens: parsed.Usage.TotalTokens},
	}, nil
}
