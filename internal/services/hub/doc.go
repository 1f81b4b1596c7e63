// Package hubsvc implements the event hub: it bridges the durable per-session
// event logs to live subscriptions.
//
// A subscription is a cursor over one session's event sequence. Opening it
// replays every stored record after the caller's resume point in ascending id
// order, then tails live appends from the shared log. Because delivery always
// reads "next id greater than last delivered", an event appended concurrently
// with the replay scan appears exactly once: either in the replay batch or in
// the live tail, never both and never neither.
//
// Delivering a terminal event (complete or error) completes the subscription.
// The hub owns the registry of open subscriptions and closes all of them on
// shutdown; consumers observe stream completion, not an error.
package hubsvc
