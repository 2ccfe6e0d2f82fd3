package config

import (
	"fmt"
	"net"
	"net/url"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors
func Validate(cfg *Config) []error {
	var errs []error

	if _, _, err := net.SplitHostPort(cfg.Server.Listen); err != nil {
		errs = append(errs, ValidationError{"server.listen", "must be host:port"})
	}
	if cfg.Server.TriggerPerMinute < 0 {
		errs = append(errs, ValidationError{"server.trigger_per_minute", "must not be negative"})
	}
	if cfg.Server.TriggerBurst < 1 {
		errs = append(errs, ValidationError{"server.trigger_burst", "must be at least 1"})
	}

	switch cfg.State.Backend {
	case "file", "sqlite":
	default:
		errs = append(errs, ValidationError{"state.backend", "must be 'file' or 'sqlite'"})
	}

	if cfg.GitHub.APIURL != "" {
		u, err := url.Parse(cfg.GitHub.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{"github.api_url", "must be an absolute URL"})
		}
	}
	if cfg.GitHub.Timeout <= 0 {
		errs = append(errs, ValidationError{"github.timeout", "must be positive"})
	}
	if cfg.Notify.Timeout <= 0 {
		errs = append(errs, ValidationError{"notify.timeout", "must be positive"})
	}

	if cfg.Poller.MinInterval <= 0 {
		errs = append(errs, ValidationError{"poller.min_interval", "must be positive"})
	}
	if cfg.Poller.Backoff <= 0 {
		errs = append(errs, ValidationError{"poller.backoff", "must be positive"})
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{"log.level", "must be one of debug, info, warn, error"})
	}

	return errs
}
