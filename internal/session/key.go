package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey indicates a session key string that could not be split into
// client and request identifiers.
var ErrInvalidKey = errors.New("session: invalid key")

// Key uniquely identifies one monitored session.
type Key struct {
	ClientID  string
	RequestID string
}

// Parse splits the combined form "clientId:requestId" at the first colon.
// The client id must not contain an unescaped colon; everything after the
// first separator belongs to the request id.
func Parse(s string) (Key, error) {
	idx := strings.IndexByte(s, ':')
	if idx <= 0 || idx == len(s)-1 {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return Key{ClientID: s[:idx], RequestID: s[idx+1:]}, nil
}

// New builds a Key from decomposed identifiers, validating both are present.
func New(clientID, requestID string) (Key, error) {
	if clientID == "" || requestID == "" {
		return Key{}, fmt.Errorf("%w: empty identifier", ErrInvalidKey)
	}
	return Key{ClientID: clientID, RequestID: requestID}, nil
}

// String returns the combined external encoding.
func (k Key) String() string { return k.ClientID + ":" + k.RequestID }

// IsZero reports whether the key is unset.
func (k Key) IsZero() bool { return k.ClientID == "" && k.RequestID == "" }
