package hubsvc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rvale/sesh/internal/event"
	"github.com/rvale/sesh/internal/eventlog"
	"github.com/rvale/sesh/internal/runtime"
	"github.com/rvale/sesh/internal/session"
	"github.com/rvale/sesh/pkg/id"
	logpkg "github.com/rvale/sesh/pkg/log"
)

// ErrHubClosed indicates a subscribe attempt after CloseAll.
var ErrHubClosed = errors.New("hub: closed")

// tailWait bounds how long the tail loop blocks on the append notification
// channel before re-checking closure.
const tailWait = 250 * time.Millisecond

// readBatch is the replay/tail read chunk size.
const readBatch = 128

// SubscribeOptions controls the resume point and optional filtering of a
// subscription.
type SubscribeOptions struct {
	// After is the resume point: only records with id > After are
	// delivered. Zero replays everything.
	After uint64
	// Filter is an optional CEL expression evaluated per record. When
	// empty, all records are delivered.
	Filter string
}

// Service owns the registry of live subscriptions and publishes appended
// events to them. Construct one per process and pass it explicitly to every
// consumer; CloseAll releases everything at shutdown.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
	idGen  *id.Generator
	bufLen int

	mu     sync.Mutex
	subs   map[string]*Subscription
	closed bool
}

// New returns a Service using the runtime's configured subscriber buffer.
func New(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	bufLen := rt.Config().SubscriberBuffer
	if bufLen <= 0 {
		bufLen = 1024
	}
	return &Service{
		rt:     rt,
		logger: logger.With(logpkg.Component("hub")),
		idGen:  id.NewGenerator(),
		bufLen: bufLen,
		subs:   map[string]*Subscription{},
	}
}

// Append validates and persists one event for a session, returning the stored
// record. Live subscribers of the session are woken by the shared log.
func (s *Service) Append(ctx context.Context, key session.Key, ev event.Event) (eventlog.Record, error) {
	l, err := s.rt.OpenLog(key)
	if err != nil {
		return eventlog.Record{}, err
	}
	rec, err := l.Append(ctx, ev)
	if err != nil {
		return eventlog.Record{}, err
	}
	s.logger.Debug("event appended",
		logpkg.Str("session", key.String()),
		logpkg.Uint64("seq", rec.Seq),
		logpkg.Str("type", string(rec.Event.Type)),
	)
	return rec, nil
}

// Subscribe opens a subscription for a session key. Stored records after
// opts.After are replayed in order, then the subscription follows live
// appends until a terminal event, Close, or CloseAll. A session with no
// events yet simply waits; connection-level timeouts are the caller's
// responsibility.
func (s *Service) Subscribe(key session.Key, opts SubscribeOptions) (*Subscription, error) {
	filter, err := CompileFilter(opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("hub: bad filter: %w", err)
	}
	l, err := s.rt.OpenLog(key)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		id:   s.idGen.Next().String(),
		key:  key,
		ch:   make(chan eventlog.Record, s.bufLen),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrHubClosed
	}
	s.subs[sub.id] = sub
	s.mu.Unlock()

	s.logger.Debug("subscription opened",
		logpkg.Str("sub", sub.id),
		logpkg.Str("session", key.String()),
		logpkg.Uint64("after", opts.After),
	)
	go s.deliver(sub, l, opts.After, filter)
	return sub, nil
}

// deliver runs one subscription's replay-then-tail loop. The cursor only
// moves forward, which makes delivery duplicate-free and gap-free by
// construction.
func (s *Service) deliver(sub *Subscription, l *eventlog.Log, after uint64, filter Filter) {
	defer func() {
		s.remove(sub.id)
		close(sub.ch)
		s.logger.Debug("subscription closed",
			logpkg.Str("sub", sub.id),
			logpkg.Str("session", sub.key.String()),
		)
	}()

	cursor := after
	for {
		select {
		case <-sub.done:
			return
		default:
		}

		items, _ := l.Read(eventlog.ReadOptions{After: cursor, Limit: readBatch})
		if len(items) == 0 {
			// Everything delivered; if the session is finished there is
			// nothing left to wait for.
			if l.Closed() && cursor >= l.LastSeq() {
				return
			}
			l.WaitForAppend(tailWait)
			continue
		}

		for _, rec := range items {
			cursor = rec.Seq
			if filter.Match(rec) {
				select {
				case sub.ch <- rec:
				case <-sub.done:
					return
				}
			}
			if rec.Terminal() {
				return
			}
		}
	}
}

func (s *Service) remove(subID string) {
	s.mu.Lock()
	delete(s.subs, subID)
	s.mu.Unlock()
}

// Close closes one subscription. Idempotent; the event log is unaffected.
func (s *Service) Close(sub *Subscription) {
	if sub != nil {
		sub.Close()
	}
}

// CloseAll closes every open subscription and rejects new ones. Each
// consumer observes stream completion, not an error.
func (s *Service) CloseAll() {
	s.mu.Lock()
	s.closed = true
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Close()
	}
}

// ActiveSubscriptions returns the number of open subscriptions.
func (s *Service) ActiveSubscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// SubscribersFor returns the number of open subscriptions for one session.
func (s *Service) SubscribersFor(key session.Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sub := range s.subs {
		if sub.key == key {
			n++
		}
	}
	return n
}
