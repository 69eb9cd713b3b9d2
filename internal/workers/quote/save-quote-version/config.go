// internal/workers/quote/save-quote-version/config.go
package savequoteversion

import "time"

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  15 * time.Second,
		CacheTTL: time.Hour,
	}
}
