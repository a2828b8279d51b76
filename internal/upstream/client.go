package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/det175/lanibot-gateway/internal/config"
	"github.com/det175/lanibot-gateway/internal/types"
)

// Client issues streamed chat-completion requests against an OpenAI-compatible
// API. cfg is re-read per request so hot config reloads take effect.
type Client struct {
	cfg    func() config.UpstreamConfig
	client *http.Client
}

func NewClient(cfg func() config.UpstreamConfig) *Client {
	// ResponseHeaderTimeout bounds the wait for upstream headers only. A
	// client-level Timeout would cap the whole stream, which must be able to
	// run indefinitely.
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: cfg().ResponseTimeout,
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Transport: transport},
	}
}

// Configured reports whether an upstream credential is present.
func (c *Client) Configured() bool {
	return c.cfg().APIKey != ""
}

type chatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []types.Message `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
	Stream      bool            `json:"stream"`
}

// OpenStream sends a chat-completion request with streaming enabled and
// returns the raw response. The caller owns the body. Cancelling ctx aborts
// the in-flight request and any subsequent body reads.
func (c *Client) OpenStream(ctx context.Context, messages []types.Message) (*http.Response, error) {
	cfg := c.cfg()

	body := chatCompletionRequest{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Stream:      true,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	url := cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create completion request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	return c.client.Do(req)
}
