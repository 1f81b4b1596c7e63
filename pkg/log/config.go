package log

// Config declaratively describes a logger for construction from flags or env.
type Config struct {
	// Level is one of debug|info|warn|error|fatal.
	Level string `json:"level"`
	// Format is one of text|json.
	Format string `json:"format"`
}

// ApplyConfig builds a Logger from a Config. Unknown levels fail; an empty
// config yields the defaults (info, text).
func ApplyConfig(cfg *Config) (Logger, error) {
	level := InfoLevel
	if cfg != nil && cfg.Level != "" {
		parsed, err := ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	var formatter Formatter = &TextFormatter{}
	if cfg != nil && cfg.Format == "json" {
		formatter = &JSONFormatter{}
	}
	return NewLogger(WithLevel(level), WithFormatter(formatter)), nil
}
