package scheduler

import (
	"time"

	appconfig "github.com/smallbiznis/tapcard/internal/config"
)

// Config controls sweep cadence.
type Config struct {
	RunInterval  time.Duration
	SweepTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval:  time.Minute,
		SweepTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.SweepTimeout <= 0 {
		c.SweepTimeout = defaults.SweepTimeout
	}
	return c
}

func ProvideConfig(cfg appconfig.Config) Config {
	return Config{RunInterval: cfg.PairingSweepInt}.withDefaults()
}
