package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/rvale/sesh/internal/event"
	"github.com/rvale/sesh/internal/eventlog"
)

// sseWriter frames records as Server-Sent Events.
//
// Each stored record becomes an event-type line, an id line carrying the
// record's sequence number, and a data line with the JSON payload,
// terminated by a blank line. The id line is what clients echo back as
// Last-Event-ID to resume.
type sseWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (sseWriter, bool) {
	f, ok := w.(http.Flusher)
	if !ok {
		return sseWriter{}, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return sseWriter{w: w, f: f}, true
}

// SendRecord writes one stored record with its id.
func (s sseWriter) SendRecord(rec eventlog.Record) error {
	b, err := event.Encode(rec.Event)
	if err != nil {
		return err
	}
	return s.send(string(rec.Event.Type), strconv.FormatUint(rec.Seq, 10), b)
}

// SendEvent writes a synthetic event with no id line. Synthetic events are
// not stored and must not advance the client's resume point.
func (s sseWriter) SendEvent(ev event.Event) error {
	b, err := event.Encode(ev)
	if err != nil {
		return err
	}
	return s.send(string(ev.Type), "", b)
}

// Comment writes an SSE comment line, used as a keepalive.
func (s sseWriter) Comment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

func (s sseWriter) send(name, id string, data []byte) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\n", name); err != nil {
		return err
	}
	if id != "" {
		if _, err := fmt.Fprintf(s.w, "id: %s\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
