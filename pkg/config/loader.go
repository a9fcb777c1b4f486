// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from environment variables using `env` struct tags, e.g.
//
//	type Config struct {
//	    Port     int    `env:"MARKETPLACE_HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"MARKETPLACE_LOG_LEVEL" envDefault:"info"`
//	}
//
// Missing required variables and unparsable values both surface as errors.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
