package connector

// CredentialType enumerates the kinds of secret a connector can require.
type CredentialType string

const (
	CredentialOAuthToken CredentialType = "oauth_token"
	CredentialBearer     CredentialType = "bearer"
	CredentialAPIKey     CredentialType = "api_key"
	CredentialBasicAuth  CredentialType = "basic_auth"
	CredentialBotToken   CredentialType = "bot_token"
	CredentialConfig     CredentialType = "config"
)

// CredentialSpec names one secret a connector needs from the vault.
// Immutable once constructed.
type CredentialSpec struct {
	Name      string
	Type      CredentialType
	VaultKey  string
	Required  bool
	Scopes    []string
}

// Source identifies who published a connector.
type Source string

const (
	SourceFirstParty Source = "first-party"
	SourceCommunity  Source = "community"
	SourceUser       Source = "user"
)

// ConnectorManifest is the immutable self-description of a connector.
// Frozen after construction: nothing in this package mutates a manifest's
// fields once the manifest has been constructed.
type ConnectorManifest struct {
	ID                  string
	Name                string
	Version             string
	Author              string
	Source              Source
	Description         string
	TargetDomains       []string
	RequiredCredentials []CredentialSpec
	DataReads           []string
	DataWrites          []string
	DoesNotAccess       []string
}

// Validate enforces the manifest invariants. Construction
// code must call this and fail loudly (not silently coerce) on violation.
func (m *ConnectorManifest) Validate() error {
	if m.ID == "" {
		return Newf(KindInvalidManifest, "manifest: id must not be empty")
	}
	if len(m.TargetDomains) == 0 {
		return Newf(KindInvalidManifest, "manifest %q: target_domains must be non-empty", m.ID)
	}
	seen := make(map[string]struct{}, len(m.TargetDomains))
	for _, d := range m.TargetDomains {
		if d == "" {
			return Newf(KindInvalidManifest, "manifest %q: target domain must not be empty", m.ID)
		}
		if _, dup := seen[d]; dup {
			return Newf(KindInvalidManifest, "manifest %q: duplicate target domain %q", m.ID, d)
		}
		seen[d] = struct{}{}
	}
	vaultKeys := make(map[string]struct{}, len(m.RequiredCredentials))
	for _, c := range m.RequiredCredentials {
		if c.VaultKey == "" {
			return Newf(KindInvalidManifest, "manifest %q: credential %q missing vault_key", m.ID, c.Name)
		}
		if _, dup := vaultKeys[c.VaultKey]; dup {
			return Newf(KindInvalidManifest, "manifest %q: duplicate vault_key %q", m.ID, c.VaultKey)
		}
		vaultKeys[c.VaultKey] = struct{}{}
	}
	return nil
}

// HasTargetDomain reports whether host is one of the manifest's exact
// target domains. No wildcard or suffix matching: equality only.
func (m *ConnectorManifest) HasTargetDomain(host string) bool {
	for _, d := range m.TargetDomains {
		if d == host {
			return true
		}
	}
	return false
}
