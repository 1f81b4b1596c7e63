package runtime

import (
	"context"
	"errors"
	"sync"
	"time"

	cfgpkg "github.com/rvale/sesh/internal/config"
	"github.com/rvale/sesh/internal/eventlog"
	"github.com/rvale/sesh/internal/session"
	pebblestore "github.com/rvale/sesh/internal/storage/pebble"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// Runtime wires storage and config for a single-node instance. It caches one
// eventlog.Log per session key so every producer and subscriber of a session
// shares the same id-assignment mutex and append notification channel.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config

	mu   sync.Mutex
	logs map[string]*eventlog.Log
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync, FsyncInterval: opts.FsyncInterval})
	if err != nil {
		return nil, err
	}
	return &Runtime{db: db, config: opts.Config, logs: map[string]*eventlog.Log{}}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple storage health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// OpenLog returns the shared event log for a session key, opening it on first
// use.
func (r *Runtime) OpenLog(key session.Key) (*eventlog.Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.logs[key.String()]; ok {
		return l, nil
	}
	l, err := eventlog.OpenLog(r.db, key)
	if err != nil {
		return nil, err
	}
	r.logs[key.String()] = l
	return l, nil
}

// EvictLog drops the cached log for a session, used after a purge.
func (r *Runtime) EvictLog(key session.Key) {
	r.mu.Lock()
	delete(r.logs, key.String())
	r.mu.Unlock()
}

// ListSessionKeys enumerates persisted sessions.
func (r *Runtime) ListSessionKeys() ([]session.Key, error) {
	return eventlog.ListSessionKeys(r.db)
}

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
