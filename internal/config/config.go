package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all process-level configuration, loaded from environment
// variables. File-based configuration (the connector catalog and the
// vault config) is loaded separately from the paths named here.
type Config struct {
	// Server
	Host string `env:"CONNECTORPLANE_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"CONNECTORPLANE_PORT" envDefault:"8080"`

	// Database (durable T1+ receipt sink). Optional: when empty, receipts
	// fall back to the in-memory sink.
	DatabaseURL string `env:"DATABASE_URL"`

	// Redis (T0 receipt batch buffer). Optional: when empty, T0 receipts
	// fall back to the in-memory sink.
	RedisURL string `env:"REDIS_URL"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Telemetry
	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics"`

	// Configuration files
	CatalogPath     string `env:"CONNECTORPLANE_CATALOG_PATH" envDefault:"config/connectors.yaml"`
	VaultConfigPath string `env:"CONNECTORPLANE_VAULT_CONFIG_PATH" envDefault:"config/vault.yaml"`

	// Feature flags
	ConnectorsEnabled  bool `env:"CONNECTORPLANE_CONNECTORS_ENABLED" envDefault:"true"`
	TrustLedgerEnabled bool `env:"CONNECTORPLANE_TRUST_LEDGER_ENABLED" envDefault:"false"`

	// SMTP/IMAP protocol adapter endpoints (optional — when unset, the
	// email connector's protocol:// requests fail at dispatch time).
	SMTPHost     string `env:"CONNECTORPLANE_SMTP_HOST"`
	SMTPPort     int    `env:"CONNECTORPLANE_SMTP_PORT" envDefault:"587"`
	SMTPUseTLS   bool   `env:"CONNECTORPLANE_SMTP_USE_TLS" envDefault:"true"`
	SMTPUsername string `env:"CONNECTORPLANE_SMTP_USERNAME"`
	SMTPPassword string `env:"CONNECTORPLANE_SMTP_PASSWORD"`
	IMAPHost     string `env:"CONNECTORPLANE_IMAP_HOST"`
	IMAPPort     int    `env:"CONNECTORPLANE_IMAP_PORT" envDefault:"993"`
	IMAPUseTLS   bool   `env:"CONNECTORPLANE_IMAP_USE_TLS" envDefault:"true"`
	IMAPUsername string `env:"CONNECTORPLANE_IMAP_USERNAME"`
	IMAPPassword string `env:"CONNECTORPLANE_IMAP_PASSWORD"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config from env: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the address the HTTP server should listen on.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
