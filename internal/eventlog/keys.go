package eventlog

import (
	"encoding/binary"

	"github.com/rvale/sesh/internal/session"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - sess/{clientId:requestId}/m
// - evt/{clientId:requestId}/{seq_be8}
//
// Metadata and entries live under distinct top-level prefixes so a metadata
// scan never collides with entry keys.

var (
	sep        = byte('/')
	metaPrefix = []byte("sess/")
	metaSuffix = []byte("/m")
	evtPrefix  = []byte("evt/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyMeta builds the session metadata key.
func KeyMeta(key session.Key) []byte {
	s := key.String()
	k := make([]byte, 0, len(metaPrefix)+len(s)+len(metaSuffix))
	k = append(k, metaPrefix...)
	k = append(k, s...)
	k = append(k, metaSuffix...)
	return k
}

// KeyEntry builds an event record key with a big-endian sequence so entries
// sort in append order.
func KeyEntry(key session.Key, seq uint64) []byte {
	s := key.String()
	k := make([]byte, 0, len(evtPrefix)+len(s)+1+8)
	k = append(k, evtPrefix...)
	k = append(k, s...)
	k = append(k, sep)
	k = appendBE8(k, seq)
	return k
}

// entryBounds returns the key range covering all records of one session.
func entryBounds(key session.Key) (low, hi []byte) {
	low = KeyEntry(key, 0)
	hi = KeyEntry(key, ^uint64(0))
	hi = append(hi, 0x00)
	return low, hi
}

// metaBounds returns the key range covering all session metadata records.
func metaBounds() (low, hi []byte) {
	low = append([]byte(nil), metaPrefix...)
	hi = append([]byte(nil), metaPrefix[:len(metaPrefix)-1]...)
	hi = append(hi, metaPrefix[len(metaPrefix)-1]+1)
	return low, hi
}

// sessionFromMetaKey recovers the session key from a metadata key.
func sessionFromMetaKey(k []byte) (session.Key, bool) {
	if len(k) <= len(metaPrefix)+len(metaSuffix) {
		return session.Key{}, false
	}
	body := k[len(metaPrefix) : len(k)-len(metaSuffix)]
	key, err := session.Parse(string(body))
	if err != nil {
		return session.Key{}, false
	}
	return key, true
}
