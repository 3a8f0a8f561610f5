package vault

import (
	"time"

	"github.com/wisbric/connectorplane/pkg/connector"
)

// Entry is one stored secret. Value is plaintext and only ever held in
// memory — it must never be serialized outside the encrypted blob or
// logged.
type Entry struct {
	Key         string                    `json:"key"`
	Value       string                    `json:"value"`
	Type        connector.CredentialType  `json:"type"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
	AccessedBy  map[string]bool           `json:"accessed_by"`
}

// Description is the value-free projection of an Entry returned by
// Describe, so callers (e.g. the proxy) can branch on credential type
// without reaching into vault internals.
type Description struct {
	Type      connector.CredentialType
	CreatedAt time.Time
	UpdatedAt time.Time
}
