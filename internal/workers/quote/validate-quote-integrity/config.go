// internal/workers/quote/validate-quote-integrity/config.go
package validatequoteintegrity

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
