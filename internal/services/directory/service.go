package directorysvc

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rvale/sesh/internal/event"
	"github.com/rvale/sesh/internal/runtime"
	"github.com/rvale/sesh/internal/session"
	logpkg "github.com/rvale/sesh/pkg/log"
)

// ErrSessionNotFound indicates a session key with zero stored records.
var ErrSessionNotFound = errors.New("directory: session not found")

// Status is the inferred lifecycle state of a session.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusUnknown   Status = "unknown"
)

// Summary is a read-side aggregate over one session's event sequence.
type Summary struct {
	Key        session.Key `json:"key"`
	Status     Status      `json:"status"`
	SessionID  string      `json:"session_id,omitempty"`
	Prompt     string      `json:"prompt,omitempty"`
	Result     string      `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
	EventCount int         `json:"event_count"`
	LastType   event.Type  `json:"last_type,omitempty"`
	LastSeq    uint64      `json:"last_seq"`
	LastTimeMs int64       `json:"last_time_ms,omitempty"`
}

// Service answers list and summary queries against the event log and runs
// the retention sweep.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

func New(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	return &Service{rt: rt, logger: logger.With(logpkg.Component("directory"))}
}

// InferStatus maps the last stored event type to a session status. An empty
// type means the session has no events at all.
func InferStatus(last event.Type) Status {
	switch {
	case last == "":
		return StatusUnknown
	case last == event.TypeComplete:
		return StatusCompleted
	case last == event.TypeError:
		return StatusFailed
	case event.Known(last):
		return StatusRunning
	default:
		return StatusUnknown
	}
}

// Summarize scans the session's full event sequence once and extracts the
// first session id, the first progress text, the last complete result and
// the last error message. Returns ErrSessionNotFound for an empty session.
func (s *Service) Summarize(key session.Key) (Summary, error) {
	l, err := s.rt.OpenLog(key)
	if err != nil {
		return Summary{}, err
	}
	recs := l.ReadAll()
	if len(recs) == 0 {
		return Summary{}, ErrSessionNotFound
	}

	sum := Summary{Key: key, EventCount: len(recs)}
	for _, rec := range recs {
		switch rec.Event.Type {
		case event.TypeSession:
			if sum.SessionID == "" {
				sum.SessionID = rec.Event.SessionID
			}
		case event.TypeProgress:
			if sum.Prompt == "" {
				sum.Prompt = rec.Event.Text
			}
		case event.TypeComplete:
			sum.Result = rec.Event.Result
		case event.TypeError:
			sum.Error = rec.Event.Message
		}
	}

	last := recs[len(recs)-1]
	sum.LastType = last.Event.Type
	sum.LastSeq = last.Seq
	sum.LastTimeMs = last.TimeMs
	sum.Status = InferStatus(last.Event.Type)
	return sum, nil
}

// List summarizes every persisted session, ordered by key string. Sessions
// that vanish between enumeration and scan are skipped.
func (s *Service) List() ([]Summary, error) {
	keys, err := s.rt.ListSessionKeys()
	if err != nil {
		return nil, err
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	out := make([]Summary, 0, len(keys))
	for _, key := range keys {
		sum, err := s.Summarize(key)
		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

// Prune deletes finished sessions whose last event is older than age.
// An age of zero disables the sweep. Returns the pruned keys.
func (s *Service) Prune(ctx context.Context, age time.Duration) ([]session.Key, error) {
	if age <= 0 {
		return nil, nil
	}
	keys, err := s.rt.ListSessionKeys()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-age)
	var pruned []session.Key
	for _, key := range keys {
		l, err := s.rt.OpenLog(key)
		if err != nil {
			return pruned, err
		}
		if !l.Closed() || !l.OlderThan(cutoff) {
			continue
		}
		n, err := l.Purge(ctx, 256)
		if err != nil {
			return pruned, err
		}
		s.rt.EvictLog(key)
		s.logger.Info("pruned session",
			logpkg.Str("session", key.String()),
			logpkg.Int("records", n),
		)
		pruned = append(pruned, key)
	}
	return pruned, nil
}
