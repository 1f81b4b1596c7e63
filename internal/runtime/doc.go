// Package runtime owns the storage handle and configuration for a single
// sesh node and hands out shared per-session event logs.
package runtime
