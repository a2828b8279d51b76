package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/det175/lanibot-gateway/internal/httputil"
	"github.com/det175/lanibot-gateway/internal/types"
)

const doneSentinel = "[DONE]"

// relay commits the SSE response, opens the upstream stream, and forwards
// event lines until the [DONE] sentinel or a terminal failure. Once the
// status line is on the wire every failure is reported in-band as a single
// error event followed by a clean close; the client never sees an abrupt
// disconnect or a status change.
func (h *Handler) relay(w http.ResponseWriter, r *http.Request, reqID string, messages []types.Message) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteInternalError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if h.metrics != nil {
		h.metrics.ActiveStreams.Inc()
		start := time.Now()
		defer func() {
			h.metrics.ActiveStreams.Dec()
			h.metrics.StreamDurationSecs.Observe(time.Since(start).Seconds())
		}()
	}

	// The inbound request context cancels the upstream call when the client
	// disconnects, so no upstream connection outlives its caller.
	resp, err := h.upstream.OpenStream(r.Context(), messages)
	if err != nil {
		if isTimeout(err) {
			slog.Error("upstream request timed out", "request_id", reqID)
			h.recordUpstreamError("timeout")
			writeErrorEvent(w, flusher, "Request timeout")
		} else {
			slog.Error("upstream request failed", "request_id", reqID, "error", err)
			h.recordUpstreamError("open_failed")
			writeErrorEvent(w, flusher, err.Error())
		}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("upstream returned error",
			"request_id", reqID,
			"status", resp.StatusCode,
			"body", string(body),
		)
		h.recordUpstreamError("status")
		writeErrorEvent(w, flusher, "AI service error")
		return
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")
		if strings.TrimSpace(payload) == doneSentinel {
			fmt.Fprintf(w, "data: %s\n\n", doneSentinel)
			flusher.Flush()
			return
		}

		// Forward upstream's framing verbatim; the payload is opaque here.
		if _, err := fmt.Fprintf(w, "%s\n\n", line); err != nil {
			slog.Info("client disconnected mid-stream", "request_id", reqID)
			return
		}
		flusher.Flush()

		if h.metrics != nil {
			h.metrics.StreamChunksTotal.Inc()
		}
	}

	if err := scanner.Err(); err != nil {
		if isTimeout(err) {
			slog.Error("upstream stream timed out", "request_id", reqID)
			h.recordUpstreamError("timeout")
			writeErrorEvent(w, flusher, "Request timeout")
			return
		}
		slog.Error("error reading upstream stream", "request_id", reqID, "error", err)
		h.recordUpstreamError("read")
		writeErrorEvent(w, flusher, err.Error())
	}
}

// writeErrorEvent emits a single in-band error event.
func writeErrorEvent(w io.Writer, flusher http.Flusher, message string) {
	data, _ := json.Marshal(httputil.ErrorResponse{Error: message})
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func (h *Handler) recordUpstreamError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordUpstreamError(kind)
	}
}
