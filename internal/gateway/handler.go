package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/det175/lanibot-gateway/internal/httputil"
	"github.com/det175/lanibot-gateway/internal/telemetry"
	"github.com/det175/lanibot-gateway/internal/types"
)

// StreamOpener opens a streamed upstream chat completion.
type StreamOpener interface {
	Configured() bool
	OpenStream(ctx context.Context, messages []types.Message) (*http.Response, error)
}

// TokenVerifier checks a client-supplied challenge token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) bool
}

// SystemPromptBuilder produces the system message for a topic selection.
type SystemPromptBuilder interface {
	Build(llabNumbers []int, quizMode string) types.Message
}

// QuestionPicker selects a pre-authored question for a topic selection.
type QuestionPicker interface {
	PickQuestion(llabNumbers []int) (json.RawMessage, bool)
}

const (
	serviceName     = "lani-bot-api"
	defaultQuizMode = "mixed"
)

// Health handles GET /health.
func Health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, map[string]any{"ok": true, "service": serviceName})
}

// Handler holds dependencies for the gateway HTTP handlers.
type Handler struct {
	upstream  StreamOpener
	verifier  TokenVerifier
	prompts   SystemPromptBuilder
	questions QuestionPicker
	metrics   *telemetry.Metrics
}

func NewHandler(upstream StreamOpener, verifier TokenVerifier, prompts SystemPromptBuilder, questions QuestionPicker, metrics *telemetry.Metrics) *Handler {
	return &Handler{
		upstream:  upstream,
		verifier:  verifier,
		prompts:   prompts,
		questions: questions,
		metrics:   metrics,
	}
}

// Chat handles POST /chat: admission has already happened in middleware; this
// validates the request, runs the abuse gate, injects the system prompt when
// absent, and hands off to the SSE relay. Every failure here is pre-commit
// and returns an ordinary JSON error.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")

	if !h.upstream.Configured() {
		slog.Error("upstream API key not configured", "request_id", reqID)
		h.countRequest("/chat", "500")
		httputil.WriteInternalError(w, "Server configuration error")
		return
	}

	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.countRequest("/chat", "400")
		httputil.WriteBadRequest(w, "No JSON data provided")
		return
	}

	if len(req.Messages) == 0 {
		h.countRequest("/chat", "400")
		httputil.WriteBadRequest(w, "Messages array is required")
		return
	}
	if len(req.LLabNumbers) == 0 {
		h.countRequest("/chat", "400")
		httputil.WriteBadRequest(w, "At least one LLAB must be selected")
		return
	}
	if req.QuizMode == "" {
		req.QuizMode = defaultQuizMode
	}

	token := req.TurnstileToken
	if token == "" {
		token = r.Header.Get("X-Turnstile-Token")
	}
	if !h.verifier.Verify(r.Context(), token) {
		slog.Warn("turnstile verification failed", "request_id", reqID)
		if h.metrics != nil {
			h.metrics.RecordGateReject()
		}
		h.countRequest("/chat", "401")
		httputil.WriteUnauthorized(w, "Invalid Turnstile token")
		return
	}

	messages := req.Messages
	if messages[0].Role != types.RoleSystem {
		system := h.prompts.Build(req.LLabNumbers, req.QuizMode)
		messages = append([]types.Message{system}, messages...)
	}

	slog.Info("forwarding chat request",
		"request_id", reqID,
		"llabs", req.LLabNumbers,
		"mode", req.QuizMode,
		"messages", len(messages),
	)
	h.countRequest("/chat", "200")

	h.relay(w, r, reqID, messages)
}

// StaticQuestion handles POST /static-question.
func (h *Handler) StaticQuestion(w http.ResponseWriter, r *http.Request) {
	var req types.StaticQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.countRequest("/static-question", "400")
		httputil.WriteBadRequest(w, "No JSON data provided")
		return
	}
	if len(req.LLabNumbers) == 0 {
		h.countRequest("/static-question", "400")
		httputil.WriteBadRequest(w, "At least one LLAB must be selected")
		return
	}

	h.countRequest("/static-question", "200")

	question, ok := h.questions.PickQuestion(req.LLabNumbers)
	if !ok {
		// An empty filtered pool is a valid outcome, not an error.
		httputil.WriteJSON(w, map[string]any{"question": nil})
		return
	}
	httputil.WriteJSON(w, struct {
		Question json.RawMessage `json:"question"`
	}{question})
}

func (h *Handler) countRequest(route, status string) {
	if h.metrics != nil {
		h.metrics.RecordRequest(route, status)
	}
}
