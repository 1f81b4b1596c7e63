package eventlog

import (
	"encoding/binary"

	"github.com/cockroachdb/pebble"
)

// ReadOptions selects a window of a session's event sequence.
type ReadOptions struct {
	// After is the exclusive lower bound: only records with Seq > After are
	// returned. Zero means from the beginning. In reverse scans it is the
	// exclusive upper bound instead (zero means from the newest record).
	After uint64
	// Limit caps the number of returned records. Zero means no cap.
	Limit int
	// Reverse scans newest-to-oldest.
	Reverse bool
}

func iterBounds(low, hi []byte) *pebble.IterOptions {
	return &pebble.IterOptions{LowerBound: low, UpperBound: hi}
}

// Read returns records per opts, ascending by sequence (descending when
// Reverse), plus the sequence to pass as After to continue the scan. Records
// that fail the checksum are skipped rather than surfaced.
func (l *Log) Read(opts ReadOptions) ([]Record, uint64) {
	low, hi := entryBounds(l.key)
	iter, err := l.db.NewIter(iterBounds(low, hi))
	if err != nil {
		return nil, 0
	}
	defer iter.Close()

	items := make([]Record, 0, 16)
	var next uint64

	seqOf := func() uint64 {
		k := iter.Key()
		return binary.BigEndian.Uint64(k[len(k)-8:])
	}

	if opts.Reverse {
		var ok bool
		if opts.After == 0 {
			ok = iter.Last()
		} else {
			ok = iter.SeekLT(KeyEntry(l.key, opts.After))
		}
		for ; ok && (opts.Limit == 0 || len(items) < opts.Limit); ok = iter.Prev() {
			seq := seqOf()
			if rec, valid := decodeRecord(seq, iter.Value()); valid {
				items = append(items, rec)
			}
			next = seq
		}
		return items, next
	}

	for ok := iter.SeekGE(KeyEntry(l.key, opts.After+1)); ok && (opts.Limit == 0 || len(items) < opts.Limit); ok = iter.Next() {
		seq := seqOf()
		if rec, valid := decodeRecord(seq, iter.Value()); valid {
			items = append(items, rec)
		}
		next = seq
	}
	return items, next
}

// ReadFrom returns all records with Seq > after, ascending. An unknown
// session or an exhausted window yields an empty slice, not an error.
func (l *Log) ReadFrom(after uint64) []Record {
	items, _ := l.Read(ReadOptions{After: after})
	return items
}

// ReadAll returns the session's full ordered event sequence.
func (l *Log) ReadAll() []Record {
	return l.ReadFrom(0)
}
