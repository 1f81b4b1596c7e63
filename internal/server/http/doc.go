// Package httpserver exposes the session event API over HTTP, including
// the Server-Sent Events subscription endpoint with Last-Event-ID resume.
package httpserver
