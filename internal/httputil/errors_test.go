package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError_StatusAndBody(t *testing.T) {
	tests := []struct {
		name    string
		write   func(w http.ResponseWriter)
		status  int
		message string
	}{
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "Messages array is required") }, http.StatusBadRequest, "Messages array is required"},
		{"unauthorized", func(w http.ResponseWriter) { WriteUnauthorized(w, "Invalid Turnstile token") }, http.StatusUnauthorized, "Invalid Turnstile token"},
		{"rate limited", func(w http.ResponseWriter) { WriteRateLimited(w, "Too many requests. Please try again later.") }, http.StatusTooManyRequests, "Too many requests. Please try again later."},
		{"internal", func(w http.ResponseWriter) { WriteInternalError(w, "Server configuration error") }, http.StatusInternalServerError, "Server configuration error"},
		{"not found", WriteNotFound, http.StatusNotFound, "Endpoint not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected application/json, got %s", ct)
			}

			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if body.Error != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, body.Error)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, map[string]any{"ok": true, "service": "lani-bot-api"})

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["ok"] != true {
		t.Error("expected ok=true")
	}
	if body["service"] != "lani-bot-api" {
		t.Errorf("expected service lani-bot-api, got %v", body["service"])
	}
}
