package turnstile

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/det175/lanibot-gateway/internal/config"
)

// DefaultEndpoint is Cloudflare's Turnstile verification endpoint.
const DefaultEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Verifier checks client-supplied challenge tokens against the remote
// verification service. With no secret configured the gate is disabled and
// every token passes; once a secret is set, any failure to complete the
// remote check counts as a rejection.
type Verifier struct {
	cfg    func() config.TurnstileConfig
	client *http.Client
}

// NewVerifier creates a verifier. cfg is re-read on every check so hot
// config reloads take effect without restarting.
func NewVerifier(cfg func() config.TurnstileConfig) *Verifier {
	return &Verifier{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type verifyRequest struct {
	Secret   string `json:"secret"`
	Response string `json:"response"`
}

type verifyResponse struct {
	Success bool `json:"success"`
}

// Verify reports whether the token passes the challenge check.
func (v *Verifier) Verify(ctx context.Context, token string) bool {
	cfg := v.cfg()
	if cfg.Secret == "" {
		slog.Warn("turnstile verification skipped (no secret configured)")
		return true
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	verifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(verifyRequest{Secret: cfg.Secret, Response: token})
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(verifyCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		slog.Error("turnstile verification error", "error", err)
		return false
	}
	defer resp.Body.Close()

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Error("turnstile response decode error", "error", err)
		return false
	}

	return result.Success
}
