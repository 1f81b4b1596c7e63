package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rvale/sesh/internal/event"
	"github.com/rvale/sesh/internal/session"
)

// HTTPTransport opens SSE subscription streams against a running server.
type HTTPTransport struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPTransport builds a transport with a client suited for long-lived
// streaming requests.
func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
	}
}

// Open issues the subscribe request, supplying the resume point both as
// the Last-Event-ID header and the query parameter.
func (t *HTTPTransport) Open(ctx context.Context, key session.Key, afterID uint64) (Stream, error) {
	q := url.Values{}
	q.Set("key", key.String())
	if afterID > 0 {
		q.Set("last_event_id", strconv.FormatUint(afterID, 10))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.BaseURL+"/v1/sessions/subscribe?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	if afterID > 0 {
		req.Header.Set("Last-Event-ID", strconv.FormatUint(afterID, 10))
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("client: subscribe status %d", resp.StatusCode)
	}
	return &sseStream{body: resp.Body, r: bufio.NewReader(resp.Body)}, nil
}

// sseStream decodes SSE frames off one response body.
type sseStream struct {
	body io.Closer
	r    *bufio.Reader
}

// Recv returns the next well-formed message. Comments, unknown event types
// and undecodable payloads are discarded as protocol noise.
func (s *sseStream) Recv() (Message, error) {
	for {
		name, id, data, err := s.readFrame()
		if err != nil {
			return Message{}, err
		}
		if name == "" || len(data) == 0 {
			continue
		}
		var ev event.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		if ev.Type == "" {
			ev.Type = event.Type(name)
		}
		if !event.Known(ev.Type) && ev.Type != event.TypeConnected {
			continue
		}
		return Message{ID: id, Event: ev}, nil
	}
}

// readFrame reads lines until a blank frame terminator.
func (s *sseStream) readFrame() (name string, id uint64, data []byte, err error) {
	var dataLines []string
	started := false
	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			return "", 0, nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if started {
				return name, id, []byte(strings.Join(dataLines, "\n")), nil
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			started = true
		case strings.HasPrefix(line, "id:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "id:"))
			if v, perr := strconv.ParseUint(raw, 10, 64); perr == nil {
				id = v
			}
			started = true
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			started = true
		}
	}
}

func (s *sseStream) Close() error { return s.body.Close() }
