package ratelimit

// LimitConfig is one entry's {max_requests_per_minute, burst} pair.
type LimitConfig struct {
	MaxRequestsPerMinute int `yaml:"max_requests_per_minute"`
	Burst                int `yaml:"burst"`
}

// Config is the two-level rate-limit configuration: a default applied to
// every connector, with optional per-connector overrides.
type Config struct {
	Default      LimitConfig            `yaml:"default"`
	PerConnector map[string]LimitConfig `yaml:"per_connector"`
}

func (c Config) forConnector(id string) LimitConfig {
	if c.PerConnector != nil {
		if lc, ok := c.PerConnector[id]; ok {
			return lc
		}
	}
	return c.Default
}
