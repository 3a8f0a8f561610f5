package vault

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig is the on-disk shape for vault configuration: storage,
// encryption, and audit sections.
type YAMLConfig struct {
	Storage struct {
		Path       string `yaml:"path"`
		BackupPath string `yaml:"backup_path"`
	} `yaml:"storage"`
	Encryption struct {
		KeyEnvVar string `yaml:"key_env_var"`
	} `yaml:"encryption"`
	Audit struct {
		LogAccess bool   `yaml:"log_access"`
		LogPath   string `yaml:"log_path"`
	} `yaml:"audit"`
}

// ToConfig converts a loaded YAMLConfig into a Config, applying defaults
// for any field left unset.
func (y YAMLConfig) ToConfig() Config {
	cfg := Config{
		StoragePath:  y.Storage.Path,
		BackupPath:   y.Storage.BackupPath,
		KeyEnvVar:    y.Encryption.KeyEnvVar,
		LogAccess:    y.Audit.LogAccess,
		AuditLogPath: y.Audit.LogPath,
	}
	if cfg.KeyEnvVar == "" {
		cfg.KeyEnvVar = "CONNECTORPLANE_VAULT_KEY"
	}
	if cfg.BackupPath == "" && cfg.StoragePath != "" {
		cfg.BackupPath = cfg.StoragePath + ".bak"
	}
	return cfg
}

// LoadYAMLConfig reads the vault configuration file at path. A missing
// file yields the defaults (in-memory storage, standard key env var).
func LoadYAMLConfig(path string) (Config, error) {
	if path == "" {
		return YAMLConfig{}.ToConfig(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return YAMLConfig{}.ToConfig(), nil
		}
		return Config{}, err
	}
	var y YAMLConfig
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return Config{}, err
	}
	return y.ToConfig(), nil
}
