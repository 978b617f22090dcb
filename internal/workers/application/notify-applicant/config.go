// internal/workers/application/notify-applicant/config.go
package notifyapplicant

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
		Timeout: 30 * time.Second,
	}
}
