// internal/workers/quote/calculate-quote/config.go
package calculatequote

import "time"

type Config struct {
	Timeout         time.Duration
	DefaultProvider string
	AutoAdjust      bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		DefaultProvider: "engine",
	}
}
