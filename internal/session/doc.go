// Package session defines the composite (clientId, requestId) key that
// identifies one monitored session, along with its external string encoding.
package session
