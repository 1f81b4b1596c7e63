// Package directorysvc derives read-only session summaries from stored
// event sequences. It scans the event log; it never mutates it, except
// for the explicit retention sweep in Prune.
package directorysvc
