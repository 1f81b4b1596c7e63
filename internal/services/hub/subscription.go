package hubsvc

import (
	"sync"

	"github.com/rvale/sesh/internal/eventlog"
	"github.com/rvale/sesh/internal/session"
)

// Subscription is one live cursor over a session's event stream. It is tied
// to exactly one consumer; it is not restartable — reconnecting callers open
// a new subscription with their resume point.
type Subscription struct {
	id  string
	key session.Key

	ch        chan eventlog.Record
	done      chan struct{}
	closeOnce sync.Once
}

// ID returns the subscription's registry identity.
func (s *Subscription) ID() string { return s.id }

// Key returns the session the subscription follows.
func (s *Subscription) Key() session.Key { return s.key }

// Events returns the delivery channel. It is closed when the stream
// completes: terminal event, Close, or hub shutdown.
func (s *Subscription) Events() <-chan eventlog.Record { return s.ch }

// Close stops delivery and releases hub-side resources. Idempotent.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
