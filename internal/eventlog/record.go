package eventlog

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/rvale/sesh/internal/event"
)

// Record frame: varint headerLen | header | payload | crc32c(header|payload).
// The header is the append timestamp (8 bytes big-endian, Unix ms); the
// payload is the JSON-encoded event.

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Record is one stored, id-tagged event.
type Record struct {
	Seq    uint64
	TimeMs int64
	Event  event.Event
}

// Terminal reports whether the record finishes its session.
func (r Record) Terminal() bool { return r.Event.Terminal() }

func encodeFrame(tsMs int64, payload []byte) []byte {
	var header [8]byte
	binary.BigEndian.PutUint64(header[:], uint64(tsMs))

	out := make([]byte, 0, 1+len(header)+len(payload)+4)
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], uint64(len(header)))
	out = append(out, tmp[:n]...)
	out = append(out, header[:]...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header[:])
	crc = crc32.Update(crc, castagnoli, payload)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	return append(out, crcb[:]...)
}

func decodeFrame(b []byte) (tsMs int64, payload []byte, ok bool) {
	if len(b) < 1+4 {
		return 0, nil, false
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || int(n)+int(hlen)+4 > len(b) {
		return 0, nil, false
	}
	header := b[n : n+int(hlen)]
	payload = b[n+int(hlen) : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != expect {
		return 0, nil, false
	}
	if len(header) >= 8 {
		tsMs = int64(binary.BigEndian.Uint64(header[:8]))
	}
	return tsMs, append([]byte(nil), payload...), true
}

// decodeRecord parses a stored frame plus its sequence into a Record.
// Frames that fail the checksum or carry an unknown event type are rejected.
func decodeRecord(seq uint64, value []byte) (Record, bool) {
	tsMs, payload, ok := decodeFrame(value)
	if !ok {
		return Record{}, false
	}
	ev, err := event.Decode(payload)
	if err != nil {
		return Record{}, false
	}
	return Record{Seq: seq, TimeMs: tsMs, Event: ev}, true
}
