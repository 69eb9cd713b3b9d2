// internal/workers/quote/send-quote-notification/config.go
package sendquotenotification

import "time"

type Config struct {
	EmailEnabled       bool
	SMSEscalateBlocked bool
	FromEmail          string
	AWSRegion          string
	Timeout            time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled: true,
		Timeout:      30 * time.Second,
	}
}
