// Package event defines the closed payload union carried by session event
// streams. Payloads are JSON objects keyed by a "type" field; decoding at the
// protocol boundary rejects anything outside the enumerated set so the hub
// and its consumers never handle untyped maps.
package event
