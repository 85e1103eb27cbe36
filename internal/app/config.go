package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath  string // JSON model configuration
	RestartPath string // optional snapshot to resume from

	LogFormat  string
	Verbosity  int // numeric logging level, 10..40
	StatusPort int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.Verbosity <= 0 {
		cfg.Verbosity = 30
	}
	if cfg.StatusPort < 0 {
		return nil, errors.New("StatusPort must not be negative")
	}

	return &cfg, nil
}
