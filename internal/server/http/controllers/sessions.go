package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rvale/sesh/internal/event"
	"github.com/rvale/sesh/internal/eventlog"
	"github.com/rvale/sesh/internal/runtime"
	"github.com/rvale/sesh/internal/session"
	directorysvc "github.com/rvale/sesh/internal/services/directory"
	hubsvc "github.com/rvale/sesh/internal/services/hub"
	logpkg "github.com/rvale/sesh/pkg/log"
)

// SessionsController handles all session-related HTTP endpoints, including
// the SSE subscription stream.
type SessionsController struct {
	rt     *runtime.Runtime
	hub    *hubsvc.Service
	dir    *directorysvc.Service
	logger logpkg.Logger
}

// NewSessionsController creates a new sessions controller.
func NewSessionsController(rt *runtime.Runtime, hub *hubsvc.Service, dir *directorysvc.Service, logger logpkg.Logger) *SessionsController {
	return &SessionsController{
		rt:     rt,
		hub:    hub,
		dir:    dir,
		logger: logger.With(logpkg.Component("http.sessions")),
	}
}

// RegisterRoutes registers all session-related routes with the given mux.
func (c *SessionsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/sessions", c.handleList)
	mux.HandleFunc("/v1/sessions/get", c.handleGet)
	mux.HandleFunc("/v1/sessions/events", c.handleEvents)
	mux.HandleFunc("/v1/sessions/publish", c.handlePublish)
	mux.HandleFunc("/v1/sessions/prune", c.handlePrune)
	mux.HandleFunc("/v1/sessions/subscribe", c.handleSubscribeSSE)
}

// handleList lists summaries for every persisted session.
func (c *SessionsController) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	sums, err := c.dir.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	writeJSON(w, map[string]any{"sessions": sums})
}

// handleGet returns the summary for one session.
func (c *SessionsController) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	key, err := keyFromValues(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session key")
		return
	}
	sum, err := c.dir.Summarize(key)
	if errors.Is(err, directorysvc.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize session")
		return
	}
	writeJSON(w, sum)
}

// handleEvents returns a page of stored events.
// Query params: key (or client_id/request_id), after, limit, reverse, filter.
func (c *SessionsController) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	key, err := keyFromValues(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session key")
		return
	}
	l, err := c.rt.OpenLog(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to open session")
		return
	}

	after := resumeAfter(r)
	if v := q.Get("after"); v != "" {
		after = parseUint(v)
	}
	limit := parseLimit(q.Get("limit"))
	if limit == 0 || limit > 500 {
		limit = 100
	}

	filter, err := hubsvc.CompileFilter(q.Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter expression")
		return
	}

	recs, next := l.Read(eventlog.ReadOptions{After: after, Limit: limit, Reverse: parseBool(q.Get("reverse"))})
	items := make([]eventItem, 0, len(recs))
	for _, rec := range recs {
		if !filter.Match(rec) {
			continue
		}
		items = append(items, eventItem{ID: rec.Seq, TimeMs: rec.TimeMs, Event: rec.Event})
	}
	writeJSON(w, map[string]any{"key": key.String(), "items": items, "next": next})
}

// handlePublish appends one event to a session.
func (c *SessionsController) handlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req publishReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	key, err := resolveKey(req.Key, req.ClientID, req.RequestID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session key")
		return
	}
	rec, err := c.hub.Append(r.Context(), key, req.Event)
	switch {
	case errors.Is(err, eventlog.ErrSessionClosed):
		writeError(w, http.StatusConflict, "Session already finished")
		return
	case errors.Is(err, event.ErrMalformed):
		writeError(w, http.StatusBadRequest, "Unrecognized event type")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to append event")
		return
	}
	writeJSON(w, publishResp{ID: rec.Seq, TimeMs: rec.TimeMs})
}

// handlePrune removes finished sessions older than the retention age.
func (c *SessionsController) handlePrune(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req pruneReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	age := time.Duration(req.AgeMs) * time.Millisecond
	if age <= 0 {
		age = time.Duration(c.rt.Config().RetentionAgeMs) * time.Millisecond
	}
	pruned, err := c.dir.Prune(r.Context(), age)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to prune sessions")
		return
	}
	keys := make([]string, 0, len(pruned))
	for _, k := range pruned {
		keys = append(keys, k.String())
	}
	writeJSON(w, map[string]any{"pruned": keys})
}

// handleSubscribeSSE streams a session's events over SSE.
//
// The handler emits a synthetic connected event first, then replays stored
// events after the resume point and tails live appends. The stream ends
// after a terminal event, on hub shutdown or on client disconnect.
// Query params: key (or client_id/request_id), last_event_id, filter;
// the Last-Event-ID header takes precedence over the query parameter.
func (c *SessionsController) handleSubscribeSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	key, err := keyFromValues(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session key")
		return
	}
	filter := r.URL.Query().Get("filter")
	if len(filter) > 2048 {
		writeError(w, http.StatusBadRequest, "Filter too long")
		return
	}

	sub, err := c.hub.Subscribe(key, hubsvc.SubscribeOptions{After: resumeAfter(r), Filter: filter})
	if err != nil {
		if errors.Is(err, hubsvc.ErrHubClosed) {
			writeError(w, http.StatusServiceUnavailable, "Shutting down")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to subscribe")
		return
	}
	defer sub.Close()

	sse, ok := newSSEWriter(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	if err := sse.SendEvent(event.Connected(key.ClientID, key.RequestID)); err != nil {
		return
	}

	keepalive := time.Duration(c.rt.Config().KeepaliveMs) * time.Millisecond
	if keepalive <= 0 {
		keepalive = 15 * time.Second
	}
	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	for {
		select {
		case rec, okCh := <-sub.Events():
			if !okCh {
				return
			}
			if err := sse.SendRecord(rec); err != nil {
				return
			}
		case <-ticker.C:
			if err := sse.Comment("keepalive"); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func resolveKey(combined, clientID, requestID string) (session.Key, error) {
	if combined != "" {
		return session.Parse(combined)
	}
	return session.New(clientID, requestID)
}
