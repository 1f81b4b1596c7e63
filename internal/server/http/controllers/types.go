package controllers

import (
	"github.com/rvale/sesh/internal/event"
)

// publishReq accepts the combined key form or decomposed identifiers.
type publishReq struct {
	Key       string      `json:"key,omitempty"`
	ClientID  string      `json:"client_id,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Event     event.Event `json:"event"`
}

type publishResp struct {
	ID     uint64 `json:"id"`
	TimeMs int64  `json:"time_ms"`
}

type pruneReq struct {
	AgeMs int64 `json:"age_ms,omitempty"`
}

type eventItem struct {
	ID     uint64      `json:"id"`
	TimeMs int64       `json:"time_ms"`
	Event  event.Event `json:"event"`
}
