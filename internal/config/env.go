package config

import (
	"os"
	"strconv"
)

// FromEnv overlays SESH_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("SESH_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("SESH_SUB_BUF"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SubscriberBuffer = n
		}
	}
	if v := os.Getenv("SESH_KEEPALIVE_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.KeepaliveMs = n
		}
	}
	if v := os.Getenv("SESH_RETENTION_AGE_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.RetentionAgeMs = n
		}
	}
}
