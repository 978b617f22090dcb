// internal/workers/application/submit-application/config.go
package submitapplication

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
		Timeout: 10 * time.Second,
	}
}
