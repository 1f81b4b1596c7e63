package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rvale/sesh/internal/client"
	cfgpkg "github.com/rvale/sesh/internal/config"
	"github.com/rvale/sesh/internal/event"
	"github.com/rvale/sesh/internal/runtime"
	httpserver "github.com/rvale/sesh/internal/server/http"
	directorysvc "github.com/rvale/sesh/internal/services/directory"
	hubsvc "github.com/rvale/sesh/internal/services/hub"
	"github.com/rvale/sesh/internal/session"
	pebblestore "github.com/rvale/sesh/internal/storage/pebble"
	logpkg "github.com/rvale/sesh/pkg/log"

	"net/http/httptest"
)

func startServer(t *testing.T) (*httptest.Server, *hubsvc.Service) {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger := logpkg.NewLogger(logpkg.WithLevel(logpkg.ErrorLevel), logpkg.WithOutput(logpkg.NullOutput{}))
	hub := hubsvc.New(rt, logger)
	t.Cleanup(hub.CloseAll)
	srv := httpserver.New(rt, hub, directorysvc.New(rt, logger), logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, hub
}

func TestSubscriberOverHTTP(t *testing.T) {
	ts, hub := startServer(t)
	key, _ := session.Parse("bot:req-e2e")
	ctx := context.Background()

	if _, err := hub.Append(ctx, key, event.Event{Type: event.TypeProgress, Text: "working"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	var mu sync.Mutex
	var types []event.Type
	done := make(chan struct{})
	sub := client.New(client.Options{
		Transport:    client.NewHTTPTransport(ts.URL),
		BaseInterval: 10 * time.Millisecond,
		MaxInterval:  50 * time.Millisecond,
		MaxAttempts:  3,
	}, func(m client.Message) {
		mu.Lock()
		types = append(types, m.Event.Type)
		mu.Unlock()
		if m.Event.Terminal() {
			close(done)
		}
	}, nil)
	t.Cleanup(sub.Disconnect)

	sub.SetKey(key, 0)

	// let the replay drain, then finish the session live
	time.Sleep(100 * time.Millisecond)
	if _, err := hub.Append(ctx, key, event.Event{Type: event.TypeComplete, Result: "Done"}); err != nil {
		t.Fatalf("append terminal: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("terminal never delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []event.Type{event.TypeConnected, event.TypeProgress, event.TypeComplete}
	if len(types) != len(want) {
		t.Fatalf("delivered %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("delivered %v, want %v", types, want)
		}
	}
	if got := sub.LastEventID(); got != 2 {
		t.Errorf("last id = %d, want 2", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for sub.Status() != client.StatusDisconnected {
		if time.Now().After(deadline) {
			t.Fatalf("status = %s after terminal", sub.Status())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubscriberLiveTailOverHTTP(t *testing.T) {
	ts, hub := startServer(t)
	key, _ := session.Parse("bot:req-rc")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := hub.Append(ctx, key, event.Event{Type: event.TypeProgress}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	var mu sync.Mutex
	var ids []uint64
	done := make(chan struct{})
	sub := client.New(client.Options{
		Transport:    client.NewHTTPTransport(ts.URL),
		BaseInterval: 10 * time.Millisecond,
		MaxInterval:  50 * time.Millisecond,
		MaxAttempts:  10,
	}, func(m client.Message) {
		if m.ID == 0 {
			return
		}
		mu.Lock()
		ids = append(ids, m.ID)
		mu.Unlock()
		if m.Event.Terminal() {
			close(done)
		}
	}, nil)
	t.Cleanup(sub.Disconnect)

	sub.SetKey(key, 0)

	// let the replay drain, then deliver the rest through the live tail
	time.Sleep(100 * time.Millisecond)
	if _, err := hub.Append(ctx, key, event.Event{Type: event.TypeProgress}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := hub.Append(ctx, key, event.Event{Type: event.TypeComplete}); err != nil {
		t.Fatalf("append: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("terminal never delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []uint64{1, 2, 3, 4, 5}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}
