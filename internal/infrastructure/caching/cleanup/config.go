package cleanup

import (
	"time"

	"github.com/ForesightHQ/foresight-go/pkg/config"
)

// Config holds sweep worker configuration, sourced from the central config package.
type Config struct {
	SweepInterval    time.Duration
	VerboseReporting bool
	MaxSessionAge    time.Duration
}

// NewConfig creates a new sweep configuration by reading values
// from the already-initialized variables in the centralized /pkg/config package.
func NewConfig() *Config {
	return &Config{
		SweepInterval:    config.SessionSweepInterval,
		VerboseReporting: config.SessionSweepVerbose,
		MaxSessionAge:    config.MaxSessionAge,
	}
}
