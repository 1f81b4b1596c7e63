package directorysvc

import (
	"context"
	"errors"
	"testing"
	"time"

	cfgpkg "github.com/rvale/sesh/internal/config"
	"github.com/rvale/sesh/internal/event"
	"github.com/rvale/sesh/internal/runtime"
	"github.com/rvale/sesh/internal/session"
	pebblestore "github.com/rvale/sesh/internal/storage/pebble"
	logpkg "github.com/rvale/sesh/pkg/log"
)

func newTestService(t *testing.T) (*Service, *runtime.Runtime) {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger := logpkg.NewLogger(logpkg.WithLevel(logpkg.ErrorLevel), logpkg.WithOutput(logpkg.NullOutput{}))
	return New(rt, logger), rt
}

func mustAppend(t *testing.T, rt *runtime.Runtime, key session.Key, evs ...event.Event) {
	t.Helper()
	l, err := rt.OpenLog(key)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	for _, ev := range evs {
		if _, err := l.Append(context.Background(), ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func TestInferStatus(t *testing.T) {
	cases := []struct {
		last event.Type
		want Status
	}{
		{event.TypeComplete, StatusCompleted},
		{event.TypeError, StatusFailed},
		{event.TypeProgress, StatusRunning},
		{event.TypeToolResult, StatusRunning},
		{event.Type(""), StatusUnknown},
		{event.Type("bogus"), StatusUnknown},
	}
	for _, tc := range cases {
		if got := InferStatus(tc.last); got != tc.want {
			t.Errorf("InferStatus(%q) = %s, want %s", tc.last, got, tc.want)
		}
	}
}

func TestSummarizeFinishedSession(t *testing.T) {
	s, rt := newTestService(t)
	key := session.Key{ClientID: "bot", RequestID: "req-replay"}
	mustAppend(t, rt, key,
		event.Event{Type: event.TypeProgress, Text: "Reviewing PR"},
		event.Event{Type: event.TypeSession, SessionID: "sess-123"},
		event.Event{Type: event.TypeComplete, Result: "Done"},
	)

	sum, err := s.Summarize(key)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", sum.Status)
	}
	if sum.SessionID != "sess-123" {
		t.Errorf("session id = %q, want sess-123", sum.SessionID)
	}
	if sum.Result != "Done" {
		t.Errorf("result = %q, want Done", sum.Result)
	}
	if sum.Prompt != "Reviewing PR" {
		t.Errorf("prompt = %q", sum.Prompt)
	}
	if sum.EventCount != 3 || sum.LastSeq != 3 || sum.LastType != event.TypeComplete {
		t.Errorf("tail fields = %d/%d/%s", sum.EventCount, sum.LastSeq, sum.LastType)
	}
}

func TestSummarizeFirstAndLastOccurrence(t *testing.T) {
	s, rt := newTestService(t)
	key := session.Key{ClientID: "bot", RequestID: "req-1"}
	mustAppend(t, rt, key,
		event.Event{Type: event.TypeSession, SessionID: "first"},
		event.Event{Type: event.TypeProgress, Text: "one"},
		event.Event{Type: event.TypeSession, SessionID: "second"},
		event.Event{Type: event.TypeProgress, Text: "two"},
		event.Event{Type: event.TypeError, Message: "boom"},
	)

	sum, err := s.Summarize(key)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.SessionID != "first" {
		t.Errorf("session id = %q, want first occurrence", sum.SessionID)
	}
	if sum.Prompt != "one" {
		t.Errorf("prompt = %q, want first occurrence", sum.Prompt)
	}
	if sum.Error != "boom" {
		t.Errorf("error = %q", sum.Error)
	}
	if sum.Status != StatusFailed {
		t.Errorf("status = %s, want failed", sum.Status)
	}
}

func TestSummarizeRunningSession(t *testing.T) {
	s, rt := newTestService(t)
	key := session.Key{ClientID: "bot", RequestID: "req-1"}
	mustAppend(t, rt, key, event.Event{Type: event.TypeProgress, Text: "thinking"})

	sum, err := s.Summarize(key)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.Status != StatusRunning {
		t.Errorf("status = %s, want running", sum.Status)
	}
	if sum.Result != "" || sum.Error != "" {
		t.Errorf("unexpected result/error: %q/%q", sum.Result, sum.Error)
	}
}

func TestSummarizeNotFound(t *testing.T) {
	s, _ := newTestService(t)
	if _, err := s.Summarize(session.Key{ClientID: "no", RequestID: "body"}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListOrderedByKey(t *testing.T) {
	s, rt := newTestService(t)
	mustAppend(t, rt, session.Key{ClientID: "zeta", RequestID: "r"}, event.Event{Type: event.TypeProgress})
	mustAppend(t, rt, session.Key{ClientID: "alpha", RequestID: "r"}, event.Event{Type: event.TypeComplete})

	sums, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("want 2 summaries, got %d", len(sums))
	}
	if sums[0].Key.ClientID != "alpha" || sums[1].Key.ClientID != "zeta" {
		t.Errorf("bad order: %s, %s", sums[0].Key, sums[1].Key)
	}
	if sums[0].Status != StatusCompleted || sums[1].Status != StatusRunning {
		t.Errorf("bad statuses: %s, %s", sums[0].Status, sums[1].Status)
	}
}

func TestListEmpty(t *testing.T) {
	s, _ := newTestService(t)
	sums, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sums) != 0 {
		t.Fatalf("want empty, got %d", len(sums))
	}
}

func TestPruneRemovesFinishedSessions(t *testing.T) {
	s, rt := newTestService(t)
	done := session.Key{ClientID: "bot", RequestID: "done"}
	live := session.Key{ClientID: "bot", RequestID: "live"}
	mustAppend(t, rt, done, event.Event{Type: event.TypeComplete, Result: "ok"})
	mustAppend(t, rt, live, event.Event{Type: event.TypeProgress})

	time.Sleep(5 * time.Millisecond)
	pruned, err := s.Prune(context.Background(), time.Nanosecond)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if len(pruned) != 1 || pruned[0] != done {
		t.Fatalf("pruned = %v, want [%s]", pruned, done)
	}

	if _, err := s.Summarize(done); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("finished session still present: %v", err)
	}
	if _, err := s.Summarize(live); err != nil {
		t.Errorf("running session removed: %v", err)
	}
}

func TestPruneKeepsRecentSessions(t *testing.T) {
	s, rt := newTestService(t)
	key := session.Key{ClientID: "bot", RequestID: "done"}
	mustAppend(t, rt, key, event.Event{Type: event.TypeComplete})

	pruned, err := s.Prune(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if len(pruned) != 0 {
		t.Fatalf("pruned recent session: %v", pruned)
	}
}

func TestPruneDisabled(t *testing.T) {
	s, rt := newTestService(t)
	mustAppend(t, rt, session.Key{ClientID: "b", RequestID: "r"}, event.Event{Type: event.TypeComplete})
	pruned, err := s.Prune(context.Background(), 0)
	if err != nil || pruned != nil {
		t.Fatalf("want no-op, got %v %v", pruned, err)
	}
}
