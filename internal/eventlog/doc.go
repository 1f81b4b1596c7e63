// Package eventlog implements sesh's durable, append-only per-session event
// store.
//
// # Overview
//
// Each session key owns an ordered sequence of event records persisted in
// Pebble. Keys are lexicographically ordered for efficient range scans:
//   - sess/{clientId:requestId}/m       (session metadata: lastSeq, closed flag)
//   - evt/{clientId:requestId}/{seq_be8} (event records)
//
// Records are stored as: varint headerLen | header | payload | crc32c(header|payload),
// where the header carries the append timestamp (8 bytes, big-endian ms) and
// the payload is the JSON-encoded event. A reader either decodes a full record
// or skips it; a crash mid-write can never corrupt the record before it nor
// fabricate one after it.
//
// Sequence numbers start at 1, increase strictly per session, and are restored
// from the metadata record on reopen, so ids keep increasing across process
// restarts. Appending a terminal event (complete or error) sets the closed
// flag; later appends for that session fail with ErrSessionClosed.
//
// API surface (internal)
//
//	l, _ := OpenLog(db, key)
//	rec, _ := l.Append(ctx, ev)
//	items, next := l.Read(ReadOptions{After: 0, Limit: 100})
//	woke := l.WaitForAppend(200 * time.Millisecond)
//	keys, _ := ListSessionKeys(db)
package eventlog
