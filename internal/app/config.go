package app

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/flightgrid/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PipelinePath is an .hcl file or directory. Empty selects the built-in
	// flight data pipeline.
	PipelinePath string
	// Storage overrides the pipeline's storage block when set.
	Storage *config.Storage

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	Workers         int
	FailFast        bool
}

// DefaultStorage is used when neither the command line nor the pipeline
// selects a backend.
func DefaultStorage() *config.Storage {
	return &config.Storage{Type: config.StorageLocal, Path: "data"}
}

// Validate checks the fields the app relies on.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.Storage != nil {
		if err := c.Storage.Validate(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	return nil
}
