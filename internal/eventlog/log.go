package eventlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rvale/sesh/internal/event"
	"github.com/rvale/sesh/internal/session"
	pebblestore "github.com/rvale/sesh/internal/storage/pebble"
)

// ErrSessionClosed indicates an append after a terminal event.
var ErrSessionClosed = errors.New("eventlog: session closed by terminal event")

// ErrNotFound indicates a missing session or record.
var ErrNotFound = errors.New("eventlog: not found")

const metaClosedFlag = byte(1)

// Log provides append-only operations for one session's event sequence.
// All appends for a session must go through a single Log instance; the
// instance serializes id assignment and owns the append notification channel.
type Log struct {
	db  *pebblestore.DB
	key session.Key

	mu       sync.Mutex
	lastSeq  uint64
	closed   bool
	notifyCh chan struct{}
}

// OpenLog initializes a Log and loads last sequence and closed flag from the
// session's metadata record, if present.
func OpenLog(db *pebblestore.DB, key session.Key) (*Log, error) {
	if key.IsZero() {
		return nil, fmt.Errorf("%w: empty session key", session.ErrInvalidKey)
	}
	l := &Log{db: db, key: key, notifyCh: make(chan struct{})}
	meta, err := db.Get(KeyMeta(key))
	if err == nil && len(meta) >= 8 {
		l.lastSeq = binary.BigEndian.Uint64(meta[:8])
		if len(meta) >= 9 && meta[8]&metaClosedFlag != 0 {
			l.closed = true
		}
	}
	return l, nil
}

// Key returns the session key this log stores.
func (l *Log) Key() session.Key { return l.key }

// Append assigns the next sequence, persists the event atomically with the
// updated metadata, and returns the stored record. The sequence is strictly
// greater than any previously assigned for this session, including across
// process restarts. Appending a terminal event closes the session; later
// appends fail with ErrSessionClosed.
func (l *Log) Append(ctx context.Context, ev event.Event) (Record, error) {
	if err := ev.Validate(); err != nil {
		return Record{}, err
	}
	payload, err := event.Encode(ev)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", event.ErrMalformed, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Record{}, fmt.Errorf("%w: %s", ErrSessionClosed, l.key)
	}

	seq := l.lastSeq + 1
	tsMs := time.Now().UnixMilli()

	b := l.db.NewBatch()
	defer b.Close()
	if err := b.Set(KeyEntry(l.key, seq), encodeFrame(tsMs, payload), nil); err != nil {
		return Record{}, err
	}
	meta := make([]byte, 9)
	binary.BigEndian.PutUint64(meta[:8], seq)
	if ev.Terminal() {
		meta[8] |= metaClosedFlag
	}
	if err := b.Set(KeyMeta(l.key), meta, nil); err != nil {
		return Record{}, err
	}
	if err := l.db.CommitBatch(ctx, b); err != nil {
		return Record{}, err
	}

	l.lastSeq = seq
	if ev.Terminal() {
		l.closed = true
	}
	// wake tailing readers
	close(l.notifyCh)
	l.notifyCh = make(chan struct{})

	return Record{Seq: seq, TimeMs: tsMs, Event: ev}, nil
}

// LastSeq returns the highest assigned sequence, 0 when the session has no
// events.
func (l *Log) LastSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeq
}

// Closed reports whether a terminal event has been appended.
func (l *Log) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// ListSessionKeys enumerates all persisted sessions by scanning metadata keys.
func ListSessionKeys(db *pebblestore.DB) ([]session.Key, error) {
	low, hi := metaBounds()
	iter, err := db.NewIter(iterBounds(low, hi))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var keys []session.Key
	for ok := iter.First(); ok; ok = iter.Next() {
		if key, valid := sessionFromMetaKey(iter.Key()); valid {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
