// Package config loads sesh configuration from JSON files and SESH_*
// environment overlays, and resolves the default data directory per host OS.
package config
