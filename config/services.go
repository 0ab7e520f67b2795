package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the console HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeTokenReaper purges idle credentials from the Postgres token store.
	ServiceModeTokenReaper ServiceMode = "token-reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeTokenReaper}
}

// ParseServices parses a comma-separated list of service modes.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)
	for _, name := range strings.Split(servicesStr, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		mode := ServiceMode(name)
		switch mode {
		case ServiceModeHTTP, ServiceModeTokenReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service mode: %q (valid options: %v)", name, ValidServiceModes())
		}
	}
	if len(services) == 0 {
		return nil, errors.New("at least one service must be enabled")
	}
	return services, nil
}

// ReaperConfig controls the idle token reaper.
type ReaperConfig struct {
	// Interval is how often idle tokens are purged.
	Interval time.Duration `env:"TOKEN_REAPER_INTERVAL" envDefault:"10m"`

	// IdleMaxAge is how long a stored credential may go untouched before it is purged.
	// Expiry is still derived from claims; this only bounds storage growth.
	IdleMaxAge time.Duration `env:"TOKEN_REAPER_IDLE_MAX_AGE" envDefault:"168h"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	if r.Interval < time.Minute {
		r.Interval = time.Minute
	}
	if r.IdleMaxAge < time.Hour {
		r.IdleMaxAge = time.Hour
	}
}
