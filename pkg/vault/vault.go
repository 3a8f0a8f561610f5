// Package vault implements the encrypted credential store: at-rest AEAD
// encryption, scoped per-connector access grants, and a tamper-evident
// (append-only) audit log. Secrets live in a single encrypted blob on
// disk; no external database is involved.
package vault

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wisbric/connectorplane/internal/telemetry"
	"github.com/wisbric/connectorplane/pkg/connector"
)

// Config configures where the vault persists its blob and audit log, and
// where it sources its encryption key.
type Config struct {
	StoragePath   string
	BackupPath    string
	KeyEnvVar     string
	LogAccess     bool
	AuditLogPath  string
}

// Vault is the encrypted credential store. All public methods are safe
// for concurrent use; mutating operations are serialized by mu.
type Vault struct {
	mu      sync.Mutex
	cfg     Config
	key     [32]byte
	entries map[string]*Entry
	grants  map[string]map[string]struct{} // key -> set of connector ids
	logger  *slog.Logger
	audit   *auditLog
}

// Open constructs a Vault, loading any existing blob at cfg.StoragePath.
// A decryption failure on load is logged and the vault starts empty,
// unless failFatal is true, in which case it is returned as an error.
func Open(cfg Config, logger *slog.Logger, failFatal bool) (*Vault, error) {
	if logger == nil {
		logger = slog.Default()
	}

	v := &Vault{
		cfg:     cfg,
		entries: make(map[string]*Entry),
		grants:  make(map[string]map[string]struct{}),
		logger:  logger,
		audit:   newAuditLog(cfg.AuditLogPath, cfg.LogAccess, logger),
	}

	if secret := os.Getenv(cfg.KeyEnvVar); secret != "" {
		v.key = keyFromSecret(secret)
	} else {
		key, err := generateKey()
		if err != nil {
			return nil, err
		}
		v.key = key
		logger.Warn("vault: no encryption key env var set, generated an ephemeral key",
			"env_var", cfg.KeyEnvVar,
			"note", "entries will not survive a process restart in this mode")
	}

	if err := v.load(); err != nil {
		if failFatal {
			return nil, fmt.Errorf("loading vault: %w", err)
		}
		logger.Error("vault: failed to load existing blob, starting empty", "error", err)
		v.entries = make(map[string]*Entry)
	}

	return v, nil
}

func (v *Vault) load() error {
	raw, err := os.ReadFile(v.cfg.StoragePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	plaintext, err := openBlob(v.key, raw)
	if err != nil {
		return err
	}
	var onDisk map[string]*Entry
	if err := json.Unmarshal(plaintext, &onDisk); err != nil {
		return fmt.Errorf("unmarshalling vault blob: %w", err)
	}
	v.entries = onDisk
	for _, e := range v.entries {
		if e.AccessedBy == nil {
			e.AccessedBy = make(map[string]bool)
		}
	}
	return nil
}

// save re-encrypts the full entry set and atomically replaces the blob on
// disk: existing blob -> .bak, new content written to a temp file, then
// renamed over the final path. Caller must hold mu.
func (v *Vault) save() error {
	if v.cfg.StoragePath == "" {
		return nil // in-memory only, e.g. in tests
	}

	plaintext, err := json.Marshal(v.entries)
	if err != nil {
		return fmt.Errorf("marshalling vault blob: %w", err)
	}
	ciphertext, err := sealBlob(v.key, plaintext)
	if err != nil {
		return err
	}

	if _, err := os.Stat(v.cfg.StoragePath); err == nil && v.cfg.BackupPath != "" {
		if err := copyFile(v.cfg.StoragePath, v.cfg.BackupPath); err != nil {
			v.logger.Warn("vault: failed to write backup blob", "error", err)
		}
	}

	dir := filepath.Dir(v.cfg.StoragePath)
	tmp, err := os.CreateTemp(dir, ".vault-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(ciphertext); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, v.cfg.StoragePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file into place: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o600)
}

// Store creates or replaces an entry.
func (v *Vault) Store(key, value string, typ connector.CredentialType) (*Entry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now()
	e, exists := v.entries[key]
	if !exists {
		e = &Entry{
			Key:        key,
			CreatedAt:  now,
			AccessedBy: make(map[string]bool),
		}
		v.entries[key] = e
	}
	e.Value = value
	e.Type = typ
	e.UpdatedAt = now

	if err := v.save(); err != nil {
		telemetry.VaultAccessTotal.WithLabelValues("store", "error").Inc()
		return nil, connector.Wrap(connector.KindTransportError, err, "storing vault entry %q", key)
	}
	v.audit.log("store", key, "")
	telemetry.VaultAccessTotal.WithLabelValues("store", "ok").Inc()
	return e, nil
}

// Retrieve returns the plaintext value for key. accessorID is the
// requesting connector id; an empty accessorID is treated as
// administrative and bypasses grant checks.
func (v *Vault) Retrieve(key, accessorID string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	e, ok := v.entries[key]
	if !ok {
		v.audit.log("retrieve_denied", key, accessorID)
		telemetry.VaultAccessTotal.WithLabelValues("retrieve", "not_found").Inc()
		return "", connector.Newf(connector.KindKeyNotFound, "credential %q not found", key)
	}

	if accessorID != "" && !v.isAllowedLocked(accessorID, key) {
		v.audit.log("retrieve_denied", key, accessorID)
		telemetry.VaultAccessTotal.WithLabelValues("retrieve", "denied").Inc()
		return "", connector.Newf(connector.KindPermissionDenied,
			"connector %q is not granted access to credential %q", accessorID, key)
	}

	if accessorID != "" {
		e.AccessedBy[accessorID] = true
	}
	if err := v.save(); err != nil {
		return "", connector.Wrap(connector.KindTransportError, err, "persisting access record for %q", key)
	}
	v.audit.log("retrieve", key, accessorID)
	telemetry.VaultAccessTotal.WithLabelValues("retrieve", "ok").Inc()
	return e.Value, nil
}

// Delete removes key, reporting whether anything was removed.
func (v *Vault) Delete(key string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.entries[key]; !ok {
		return false, nil
	}
	delete(v.entries, key)
	delete(v.grants, key)
	if err := v.save(); err != nil {
		return false, connector.Wrap(connector.KindTransportError, err, "deleting vault entry %q", key)
	}
	v.audit.log("delete", key, "")
	return true, nil
}

// Exists reports whether key is present.
func (v *Vault) Exists(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.entries[key]
	return ok
}

// ListKeys returns all stored key names, in no particular order.
func (v *Vault) ListKeys() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, 0, len(v.entries))
	for k := range v.entries {
		out = append(out, k)
	}
	return out
}

// Describe returns the value-free projection of an entry.
func (v *Vault) Describe(key string) (Description, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.entries[key]
	if !ok {
		return Description{}, false
	}
	return Description{Type: e.Type, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}, true
}

// CheckRequirements reports, for each required credential spec, whether
// its vault key is present.
func (v *Vault) CheckRequirements(specs []connector.CredentialSpec) map[string]bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]bool, len(specs))
	for _, s := range specs {
		_, ok := v.entries[s.VaultKey]
		out[s.VaultKey] = ok
	}
	return out
}
