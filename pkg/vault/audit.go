package vault

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// auditLog appends tamper-evident lines to a plain text log: one line per
// vault operation, each line independently readable so a partial write
// from a crash never corrupts prior entries. Writes go straight to the
// file rather than through a batched channel; vault operations are
// already serialized by Vault.mu.
type auditLog struct {
	mu      sync.Mutex
	path    string
	enabled bool
	logger  *slog.Logger
	file    *os.File
}

func newAuditLog(path string, enabled bool, logger *slog.Logger) *auditLog {
	a := &auditLog{path: path, enabled: enabled, logger: logger}
	if !enabled || path == "" {
		return a
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		logger.Warn("vault: could not open audit log, continuing without it", "path", path, "error", err)
		return a
	}
	a.file = f
	return a
}

// log appends one audit record of the form
// "<timestamp> | <action> | <key> | accessor=<id>". An empty accessor
// means the operation was administrative. A failure to write never
// blocks or fails the calling vault operation; it is only logged at
// warn level.
func (a *auditLog) log(action, key, accessorID string) {
	if !a.enabled || a.file == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	line := fmt.Sprintf("%s | %s | %s | accessor=%s\n",
		time.Now().UTC().Format(time.RFC3339), action, key, accessorID)
	if _, err := a.file.WriteString(line); err != nil {
		a.logger.Warn("vault: audit log write failed", "error", err)
	}
}
