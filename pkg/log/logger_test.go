package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextFormatterFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(DebugLevel),
		WithFormatter(&TextFormatter{}),
		WithOutput(NewWriterOutput(&buf)),
	)
	l.Info("hello", Str("b", "two"), Str("a", "one"))
	line := buf.String()
	if !strings.Contains(line, "INFO hello") {
		t.Fatalf("unexpected line: %q", line)
	}
	if strings.Index(line, "a=one") > strings.Index(line, "b=two") {
		t.Fatalf("fields not sorted: %q", line)
	}
}

func TestLevelGates(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(WarnLevel),
		WithFormatter(&TextFormatter{}),
		WithOutput(NewWriterOutput(&buf)),
	)
	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	if got := buf.String(); !strings.Contains(got, "kept") || strings.Contains(got, "dropped") {
		t.Fatalf("level gating broken: %q", got)
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(InfoLevel),
		WithFormatter(&JSONFormatter{}),
		WithOutput(NewWriterOutput(&buf)),
	)
	l.Info("evt", Int("n", 3), Component("hub"))
	var obj map[string]any
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if obj["msg"] != "evt" || obj["component"] != "hub" {
		t.Fatalf("unexpected object: %v", obj)
	}
}

func TestWithInherits(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(InfoLevel),
		WithFormatter(&TextFormatter{}),
		WithOutput(NewWriterOutput(&buf)),
	)
	child := l.With(Str("session", "bot:req-1"))
	child.Info("x")
	if !strings.Contains(buf.String(), "session=bot:req-1") {
		t.Fatalf("child missing inherited field: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel("debug"); err != nil || lvl != DebugLevel {
		t.Fatalf("parse debug: %v %v", lvl, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
