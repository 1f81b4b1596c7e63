// Package log provides sesh's structured logging facade and utilities.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context, backed by a formatter/output
// pipeline.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("hub"), log.Str("session", "bot:req-1"))
//	l.Info("subscription opened", log.Uint64("after", 3))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config, supporting
// text or JSON formatting.
//
// # Interop
//
// RedirectStdLog routes standard library log output (notably Pebble's) through
// a Logger so all process output shares one format.
package log
