package httputil

import (
	"encoding/json"
	"net/http"
)

// LineStream writes newline-delimited JSON events to an HTTP response,
// flushing after every line so the client sees progress as it happens.
type LineStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	enc     *json.Encoder
}

// NewLineStream prepares w for an application/x-ndjson response. The flusher
// is nil on writers that don't support it (e.g. some test recorders); Send
// still works, lines just arrive when the handler returns.
func NewLineStream(w http.ResponseWriter) *LineStream {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher, _ := w.(http.Flusher)
	return &LineStream{w: w, flusher: flusher, enc: json.NewEncoder(w)}
}

// Send writes one event as a single JSON line and flushes it. Returns the
// encoder error, which signals a disconnected client.
func (s *LineStream) Send(event any) error {
	if err := s.enc.Encode(event); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
