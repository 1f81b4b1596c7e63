package eventlog

import (
	"context"
	"time"
)

// Purge deletes the session's records and metadata in batches, oldest first.
// Returns the number of deleted records. The Log must not be appended to
// afterwards; callers evict it from any cache.
func (l *Log) Purge(ctx context.Context, batchLimit int) (int, error) {
	if batchLimit <= 0 {
		batchLimit = 1024
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	low, hi := entryBounds(l.key)
	deleted := 0
	for {
		iter, err := l.db.NewIter(iterBounds(low, hi))
		if err != nil {
			return deleted, err
		}
		b := l.db.NewBatch()
		n := 0
		for ok := iter.First(); ok && n < batchLimit; ok = iter.Next() {
			if err := b.Delete(iter.Key(), nil); err != nil {
				b.Close()
				iter.Close()
				return deleted, err
			}
			n++
		}
		iter.Close()
		if n == 0 {
			b.Close()
			break
		}
		if err := l.db.CommitBatch(ctx, b); err != nil {
			b.Close()
			return deleted, err
		}
		b.Close()
		deleted += n
	}

	if err := l.db.Delete(KeyMeta(l.key)); err != nil {
		return deleted, err
	}
	l.lastSeq = 0
	l.closed = false
	return deleted, nil
}

// LastEventTimeMs returns the append timestamp of the newest record, 0 when
// the session has no events.
func (l *Log) LastEventTimeMs() int64 {
	items, _ := l.Read(ReadOptions{Reverse: true, Limit: 1})
	if len(items) == 0 {
		return 0
	}
	return items[0].TimeMs
}

// OlderThan reports whether the session's newest record is older than the
// cutoff. Sessions with no records are never considered old.
func (l *Log) OlderThan(cutoff time.Time) bool {
	ts := l.LastEventTimeMs()
	return ts > 0 && ts < cutoff.UnixMilli()
}
