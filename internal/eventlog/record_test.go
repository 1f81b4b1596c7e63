package eventlog

import (
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte(`{"type":"progress","text":"hi"}`)
	frame := encodeFrame(12345, payload)
	ts, got, ok := decodeFrame(frame)
	if !ok {
		t.Fatalf("decode failed")
	}
	if ts != 12345 || string(got) != string(payload) {
		t.Fatalf("round trip mismatch: ts=%d payload=%s", ts, got)
	}
}

func TestFrameRejectsCorruption(t *testing.T) {
	frame := encodeFrame(1, []byte(`{"type":"progress"}`))
	frame[len(frame)/2] ^= 0xff
	if _, _, ok := decodeFrame(frame); ok {
		t.Fatalf("corrupted frame decoded")
	}
}

func TestFrameRejectsTruncation(t *testing.T) {
	frame := encodeFrame(1, []byte(`{"type":"progress"}`))
	for cut := 1; cut < len(frame); cut += 4 {
		if _, _, ok := decodeFrame(frame[:cut]); ok {
			t.Fatalf("truncated frame decoded at %d", cut)
		}
	}
}

func TestDecodeRecordRejectsUnknownEvent(t *testing.T) {
	frame := encodeFrame(1, []byte(`{"type":"nope"}`))
	if _, ok := decodeRecord(1, frame); ok {
		t.Fatalf("unknown event type decoded")
	}
}
