package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/azournas/art-agent/internal/pipeline"
)

// SSEWriter helps write Server-Sent Events.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteProgress sends a pipeline progress event.
func (s *SSEWriter) WriteProgress(event pipeline.Event) error {
	name := "step"
	if event.Level == pipeline.LevelError {
		name = "error"
	}
	return s.WriteEvent(name, event)
}

// WriteComplete sends a completion event carrying the final report.
func (s *SSEWriter) WriteComplete(report string) {
	s.WriteEvent("complete", ReportResponse{Report: report}) //nolint:errcheck
}
