package registry

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wisbric/connectorplane/pkg/ratelimit"
)

// Settings holds catalog-wide tunables consumed by the proxy and
// governed proxy layers.
type Settings struct {
	MaxConcurrentRequests int     `yaml:"max_concurrent_requests"`
	DefaultTimeoutSeconds int     `yaml:"default_timeout_seconds"`
	RetryMaxAttempts      int     `yaml:"retry_max_attempts"`
	RetryBackoffSeconds   float64 `yaml:"retry_backoff_seconds"`
}

// ConnectorOverride is a per-connector slice of catalog configuration,
// attached to a RegistryEntry at registration time.
type ConnectorOverride struct {
	Enabled bool           `yaml:"enabled"`
	Config  map[string]any `yaml:"config"`
}

// Catalog is the YAML-loaded configuration document consumed by the
// registry at construction: global settings, rate limits, and
// per-connector overrides.
type Catalog struct {
	Settings     Settings                     `yaml:"settings"`
	RateLimits   ratelimit.Config             `yaml:"rate_limits"`
	PerConnector map[string]ConnectorOverride `yaml:"connectors"`
}

// LoadCatalog reads and parses the YAML catalog file at path. A missing
// file is not an error; it yields an empty config so callers can run
// with only the in-code connector defaults.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return Catalog{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Catalog{}, nil
		}
		return Catalog{}, err
	}
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}
