// internal/workers/verification/record-verifier-decision/config.go
package recordverifierdecision

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
