package client

import (
	"context"
	"sync"
	"time"

	"github.com/rvale/sesh/internal/event"
	"github.com/rvale/sesh/internal/session"
	logpkg "github.com/rvale/sesh/pkg/log"
)

// Status is the connection state of a logical subscription.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// Message is one decoded wire frame. ID is 0 for synthetic events that
// carry no id line.
type Message struct {
	ID    uint64
	Event event.Event
}

// Stream is one underlying transport connection. Recv blocks until the next
// well-formed message, returning an error on connection loss or stream end.
type Stream interface {
	Recv() (Message, error)
	Close() error
}

// Transport opens streams. afterID is the resume point; 0 replays
// everything.
type Transport interface {
	Open(ctx context.Context, key session.Key, afterID uint64) (Stream, error)
}

// Handler receives every delivered message, including synthetic ones.
type Handler func(Message)

// StatusHandler observes connection state changes.
type StatusHandler func(Status)

// Options configures a Subscriber.
type Options struct {
	Transport    Transport
	Logger       logpkg.Logger
	BaseInterval time.Duration
	MaxInterval  time.Duration
	// MaxAttempts bounds consecutive failed reconnects. A successful
	// connection resets the count.
	MaxAttempts int

	// Schedule overrides timer creation, for tests. The returned function
	// cancels the pending call.
	Schedule func(d time.Duration, fn func()) (cancel func())
}

const (
	defaultBaseInterval = 3 * time.Second
	defaultMaxInterval  = 30 * time.Second
	defaultMaxAttempts  = 5
)

// Subscriber is the client-side reconnection state machine. One Subscriber
// owns one logical subscription; changing the key tears down the current
// transport and starts over.
type Subscriber struct {
	transport Transport
	logger    logpkg.Logger
	base      time.Duration
	max       time.Duration
	maxTries  int
	schedule  func(time.Duration, func()) func()
	onMessage Handler
	onStatus  StatusHandler

	mu          sync.Mutex
	key         session.Key
	status      Status
	lastID      uint64
	attempt     int
	terminal    bool
	gen         uint64
	stream      Stream
	cancelTimer func()
}

// New creates a Subscriber in the disconnected state.
func New(opts Options, onMessage Handler, onStatus StatusHandler) *Subscriber {
	if opts.Logger == nil {
		opts.Logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.ErrorLevel), logpkg.WithOutput(logpkg.NullOutput{}))
	}
	if opts.BaseInterval <= 0 {
		opts.BaseInterval = defaultBaseInterval
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = defaultMaxInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Schedule == nil {
		opts.Schedule = func(d time.Duration, fn func()) func() {
			t := time.AfterFunc(d, fn)
			return func() { t.Stop() }
		}
	}
	return &Subscriber{
		transport: opts.Transport,
		logger:    opts.Logger.With(logpkg.Component("client")),
		base:      opts.BaseInterval,
		max:       opts.MaxInterval,
		maxTries:  opts.MaxAttempts,
		schedule:  opts.Schedule,
		onMessage: onMessage,
		onStatus:  onStatus,
		status:    StatusDisconnected,
	}
}

// Status returns the current connection state.
func (s *Subscriber) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastEventID returns the highest delivered event id.
func (s *Subscriber) LastEventID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID
}

// Terminal reports whether the session is known finished.
func (s *Subscriber) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminal
}

// SetKey switches the subscription target. Any current transport is torn
// down, the attempt counter and terminal flag reset, and a new connect
// cycle begins immediately. afterID seeds the resume point, typically 0.
func (s *Subscriber) SetKey(key session.Key, afterID uint64) {
	s.mu.Lock()
	s.teardownLocked()
	s.key = key
	s.lastID = afterID
	s.attempt = 0
	s.terminal = false
	if key.IsZero() {
		s.setStatusLocked(StatusDisconnected)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.Connect()
}

// Connect begins a connect cycle unless one is already running or the
// session is known finished.
func (s *Subscriber) Connect() {
	s.mu.Lock()
	if s.key.IsZero() || s.terminal || s.status == StatusConnecting || s.status == StatusConnected {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	key := s.key
	after := s.lastID
	s.setStatusLocked(StatusConnecting)
	s.mu.Unlock()

	go s.run(gen, key, after)
}

// Disconnect cancels any pending reconnect, closes the transport if open
// and forces the disconnected state.
func (s *Subscriber) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
	s.setStatusLocked(StatusDisconnected)
}

// teardownLocked invalidates the running cycle and releases its resources.
func (s *Subscriber) teardownLocked() {
	s.gen++
	if s.cancelTimer != nil {
		s.cancelTimer()
		s.cancelTimer = nil
	}
	if s.stream != nil {
		_ = s.stream.Close()
		s.stream = nil
	}
}

func (s *Subscriber) setStatusLocked(st Status) {
	if s.status == st {
		return
	}
	s.status = st
	if s.onStatus != nil {
		go s.onStatus(st)
	}
}

// run is one transport connection's lifecycle.
func (s *Subscriber) run(gen uint64, key session.Key, after uint64) {
	stream, err := s.transport.Open(context.Background(), key, after)
	if err != nil {
		s.onFailure(gen, err)
		return
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		_ = stream.Close()
		return
	}
	s.stream = stream
	s.attempt = 0
	s.setStatusLocked(StatusConnected)
	s.mu.Unlock()

	for {
		msg, err := stream.Recv()
		if err != nil {
			s.onFailure(gen, err)
			return
		}
		if !s.deliver(gen, msg) {
			return
		}
	}
}

// deliver applies one message. Returns false when the receive loop must
// stop.
func (s *Subscriber) deliver(gen uint64, msg Message) bool {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return false
	}
	if msg.ID > s.lastID {
		s.lastID = msg.ID
	}
	isTerminal := msg.Event.Terminal()
	if isTerminal {
		s.terminal = true
		if s.stream != nil {
			_ = s.stream.Close()
			s.stream = nil
		}
		s.gen++
		s.setStatusLocked(StatusDisconnected)
	}
	s.mu.Unlock()

	if s.onMessage != nil {
		s.onMessage(msg)
	}
	return !isTerminal
}

// onFailure handles a transport open or receive error: either schedules a
// reconnect with exponential backoff or gives up.
func (s *Subscriber) onFailure(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	if s.stream != nil {
		_ = s.stream.Close()
		s.stream = nil
	}
	s.setStatusLocked(StatusError)

	if s.terminal {
		s.setStatusLocked(StatusDisconnected)
		return
	}
	s.attempt++
	if s.attempt >= s.maxTries {
		s.logger.Warn("giving up on session",
			logpkg.Str("session", s.key.String()),
			logpkg.Int("attempts", s.attempt),
			logpkg.Err(err),
		)
		s.setStatusLocked(StatusDisconnected)
		return
	}

	delay := s.backoff(s.attempt - 1)
	s.logger.Debug("scheduling reconnect",
		logpkg.Str("session", s.key.String()),
		logpkg.Dur("delay", delay),
		logpkg.Int("attempt", s.attempt),
		logpkg.Err(err),
	)
	s.cancelTimer = s.schedule(delay, func() { s.reconnect(gen) })
}

// reconnect fires from the backoff timer.
func (s *Subscriber) reconnect(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.terminal {
		s.mu.Unlock()
		return
	}
	s.cancelTimer = nil
	s.gen++
	next := s.gen
	key := s.key
	after := s.lastID
	s.setStatusLocked(StatusConnecting)
	s.mu.Unlock()

	go s.run(next, key, after)
}

// backoff computes the delay for the given attempt number.
func (s *Subscriber) backoff(attempt int) time.Duration {
	d := s.base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= s.max {
			return s.max
		}
	}
	if d > s.max {
		return s.max
	}
	return d
}
