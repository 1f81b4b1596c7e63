package config

import (
	"encoding/json"
	"os"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// HTTPAddr is the listen address for the HTTP API and SSE endpoint.
	HTTPAddr string `json:"httpAddr"`
	// SubscriberBuffer is the buffered channel capacity per subscription.
	// Larger values absorb bursty producers feeding slow transports.
	SubscriberBuffer int `json:"subscriberBuffer"`
	// KeepaliveMs is the interval between SSE comment keepalives. Zero
	// disables keepalives.
	KeepaliveMs int64 `json:"keepaliveMs"`
	// RetentionAgeMs prunes finished sessions whose newest event is older
	// than this age. Zero disables automatic pruning.
	RetentionAgeMs int64 `json:"retentionAgeMs"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:         ":8080",
		SubscriberBuffer: 1024,
		KeepaliveMs:      15000,
	}
}

// Load reads configuration from a JSON file. If path is empty, returns
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
