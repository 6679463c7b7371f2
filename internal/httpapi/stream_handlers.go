package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"leadscout-engine/internal/job"
	"leadscout-engine/internal/stream"
)

type StreamHandler struct {
	Jobs     *job.Manager
	Streamer *stream.Streamer
}

// ServeJobSSE streams one job's progress as named SSE events (status,
// businesses, done). The poll loop is torn down when the client goes away.
func (h StreamHandler) ServeJobSSE(w http.ResponseWriter, r *http.Request) {
	id := jobIDFromPath(r.URL.Path)
	if _, err := h.Jobs.Get(r.Context(), id); err != nil {
		WriteKindError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}

	send := func(event string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	_ = h.Streamer.Stream(r.Context(), id, send)
}
