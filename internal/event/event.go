package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type discriminates the event payload union.
type Type string

// Stored event types emitted by session producers.
const (
	TypeProgress         Type = "progress"
	TypeMemory           Type = "memory"
	TypeSession          Type = "session"
	TypeInterventionSent Type = "intervention_sent"
	TypeUserMessage      Type = "user_message"
	TypeDebug            Type = "debug"
	TypeComplete         Type = "complete"
	TypeError            Type = "error"
	TypeTextStart        Type = "text_start"
	TypeTextDelta        Type = "text_delta"
	TypeTextEnd          Type = "text_end"
	TypeToolStart        Type = "tool_start"
	TypeToolResult       Type = "tool_result"
	TypeResult           Type = "result"
	TypeContextUsage     Type = "context_usage"
	TypeCompact          Type = "compact"
	TypeReconnect        Type = "reconnect"
)

// TypeConnected is synthesized by the wire protocol on connection
// establishment. It is never stored in the event log.
const TypeConnected Type = "connected"

// ErrMalformed indicates a payload that failed to decode or carried an
// unrecognized type.
var ErrMalformed = errors.New("event: malformed payload")

var storedTypes = map[Type]struct{}{
	TypeProgress:         {},
	TypeMemory:           {},
	TypeSession:          {},
	TypeInterventionSent: {},
	TypeUserMessage:      {},
	TypeDebug:            {},
	TypeComplete:         {},
	TypeError:            {},
	TypeTextStart:        {},
	TypeTextDelta:        {},
	TypeTextEnd:          {},
	TypeToolStart:        {},
	TypeToolResult:       {},
	TypeResult:           {},
	TypeContextUsage:     {},
	TypeCompact:          {},
	TypeReconnect:        {},
}

// Known reports whether t is a recognized stored event type.
func Known(t Type) bool {
	_, ok := storedTypes[t]
	return ok
}

// Terminal reports whether t finishes a session. Once a terminal event is
// appended, no further events may be appended for that session.
func Terminal(t Type) bool { return t == TypeComplete || t == TypeError }

// Event is the payload union keyed by Type. Optional fields are populated
// according to the type; unused fields are omitted on the wire.
type Event struct {
	Type Type `json:"type"`

	// Text carries human-readable content for progress, user_message,
	// debug, memory, text_start/delta/end and compact events.
	Text string `json:"text,omitempty"`

	// SessionID identifies the underlying agent session (session events).
	SessionID string `json:"session_id,omitempty"`

	// Result carries the final output for complete and result events.
	Result string `json:"result,omitempty"`

	// Message carries the failure description for error events and the
	// injected content for intervention_sent events.
	Message string `json:"message,omitempty"`

	// Tool fields for tool_start and tool_result events.
	Tool   string          `json:"tool,omitempty"`
	Input  json.RawMessage `json:"input,omitempty"`
	Output string          `json:"output,omitempty"`

	// Token accounting for context_usage events.
	Tokens    int `json:"tokens,omitempty"`
	MaxTokens int `json:"max_tokens,omitempty"`

	// ClientID and RequestID are set on synthetic connected events to echo
	// the resolved session key back to the subscriber.
	ClientID  string `json:"client_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Terminal reports whether the event finishes its session.
func (e Event) Terminal() bool { return Terminal(e.Type) }

// Validate checks that the event carries a recognized stored type.
func (e Event) Validate() error {
	if !Known(e.Type) {
		return fmt.Errorf("%w: type %q", ErrMalformed, e.Type)
	}
	return nil
}

// Decode parses a stored payload into the union. Unknown or missing types are
// rejected so downstream consumers only ever see the closed set.
func Decode(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Encode serializes the event for storage or the wire.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Connected builds the synthetic handshake event for a resolved session key.
func Connected(clientID, requestID string) Event {
	return Event{Type: TypeConnected, ClientID: clientID, RequestID: requestID}
}
