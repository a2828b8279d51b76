package types

// Message is one turn of a conversation. The system message, when present,
// is always first.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest is the inbound body of POST /chat. The Turnstile token may
// alternatively arrive via the X-Turnstile-Token header.
type ChatRequest struct {
	Messages       []Message `json:"messages"`
	LLabNumbers    []int     `json:"llab_numbers"`
	QuizMode       string    `json:"quiz_mode"`
	TurnstileToken string    `json:"turnstile_token,omitempty"`
}

// StaticQuestionRequest is the inbound body of POST /static-question.
type StaticQuestionRequest struct {
	LLabNumbers []int `json:"llab_numbers"`
}
