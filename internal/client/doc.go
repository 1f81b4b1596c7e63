// Package client maintains one logical session subscription over a
// sequence of underlying transport connections. It tracks the highest
// delivered event id, resumes from it after a disconnect with exponential
// backoff, and stops reconnecting once the session is known finished.
package client
