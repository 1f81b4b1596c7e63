// Package serverrun boots the sesh server: storage runtime, event hub,
// session directory, HTTP API and the background retention sweep.
package serverrun
