package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Credentials are validated
// for presence only; reachability is a preflight concern.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.BackoffFactor < 1 {
		return fmt.Errorf("retry.backoff_factor must be at least 1, got %v", c.Retry.BackoffFactor)
	}
	return nil
}

func (c *Config) validateResolver() error {
	for _, platform := range c.Resolver.SocialPriority {
		if strings.TrimSpace(platform) == "" {
			return fmt.Errorf("resolver.social_priority contains an empty entry")
		}
	}
	return nil
}
