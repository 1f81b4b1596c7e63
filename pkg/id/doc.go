// Package id provides compact, time-ordered identifiers used to tag hub
// subscriptions in logs and registries.
package id
