// internal/workers/verification/regenerate-certificate/config.go
package regeneratecertificate

import (
	"time"

	"verification-workflow/internal/common/observability"
)

type Config struct {
	Timeout       time.Duration
	Observability *observability.Observability
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
