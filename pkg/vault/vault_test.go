package vault

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wisbric/connectorplane/pkg/connector"
)

func testVault(t *testing.T) *Vault {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONNECTORPLANE_VAULT_TEST_KEY", "unit-test-secret-do-not-use-in-prod")
	cfg := Config{
		StoragePath: filepath.Join(dir, "vault.enc"),
		BackupPath:  filepath.Join(dir, "vault.enc.bak"),
		KeyEnvVar:   "CONNECTORPLANE_VAULT_TEST_KEY",
	}
	v, err := Open(cfg, nil, true)
	require.NoError(t, err)
	return v
}

func TestStoreRetrieveRoundTrip(t *testing.T) {
	v := testVault(t)

	_, err := v.Store("slack-bot-token", "xoxb-secret", connector.CredentialBotToken)
	require.NoError(t, err)

	require.True(t, v.Exists("slack-bot-token"))
	v.Grant("slack-bot-token", "slack")

	val, err := v.Retrieve("slack-bot-token", "slack")
	require.NoError(t, err)
	require.Equal(t, "xoxb-secret", val)
}

func TestRetrieveWithoutGrantIsDenied(t *testing.T) {
	v := testVault(t)
	_, err := v.Store("discord-token", "tok", connector.CredentialBotToken)
	require.NoError(t, err)

	_, err = v.Retrieve("discord-token", "discord")
	require.Error(t, err)

	var cerr *connector.Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, connector.KindPermissionDenied, cerr.Kind)
}

func TestRetrieveUnknownKeyNotFound(t *testing.T) {
	v := testVault(t)
	_, err := v.Retrieve("does-not-exist", "anything")
	require.Error(t, err)

	var cerr *connector.Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, connector.KindKeyNotFound, cerr.Kind)
}

func TestAdministrativeRetrieveBypassesGrants(t *testing.T) {
	v := testVault(t)
	_, err := v.Store("k", "v", connector.CredentialAPIKey)
	require.NoError(t, err)

	val, err := v.Retrieve("k", "")
	require.NoError(t, err)
	require.Equal(t, "v", val)
}

func TestDeleteRemovesEntryAndGrants(t *testing.T) {
	v := testVault(t)
	_, err := v.Store("k", "v", connector.CredentialAPIKey)
	require.NoError(t, err)
	v.Grant("k", "slack")

	removed, err := v.Delete("k")
	require.NoError(t, err)
	require.True(t, removed)
	require.False(t, v.Exists("k"))
	require.Empty(t, v.ListGrants("slack"))

	removedAgain, err := v.Delete("k")
	require.NoError(t, err)
	require.False(t, removedAgain)
}

func TestRevokeAllRemovesEveryGrantForConnector(t *testing.T) {
	v := testVault(t)
	for _, k := range []string{"k1", "k2"} {
		_, err := v.Store(k, "v", connector.CredentialAPIKey)
		require.NoError(t, err)
		v.Grant(k, "slack")
	}
	v.Grant("k1", "discord")
	require.Equal(t, []string{"k1", "k2"}, v.ListGrants("slack"))

	require.Equal(t, 2, v.RevokeAll("slack"))
	require.Empty(t, v.ListGrants("slack"))
	require.Equal(t, []string{"k1"}, v.ListGrants("discord"))

	_, err := v.Retrieve("k1", "slack")
	require.Error(t, err)
	var cerr *connector.Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, connector.KindPermissionDenied, cerr.Kind)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONNECTORPLANE_VAULT_TEST_KEY2", "another-unit-test-secret")
	cfg := Config{
		StoragePath: filepath.Join(dir, "vault.enc"),
		BackupPath:  filepath.Join(dir, "vault.enc.bak"),
		KeyEnvVar:   "CONNECTORPLANE_VAULT_TEST_KEY2",
	}

	v1, err := Open(cfg, nil, true)
	require.NoError(t, err)
	_, err = v1.Store("persisted-key", "persisted-value", connector.CredentialBearer)
	require.NoError(t, err)

	v2, err := Open(cfg, nil, true)
	require.NoError(t, err)
	require.True(t, v2.Exists("persisted-key"))
	val, err := v2.Retrieve("persisted-key", "")
	require.NoError(t, err)
	require.Equal(t, "persisted-value", val)
}

func TestCheckRequirements(t *testing.T) {
	v := testVault(t)
	_, err := v.Store("present-key", "v", connector.CredentialAPIKey)
	require.NoError(t, err)

	specs := []connector.CredentialSpec{
		{Name: "api_key", Type: connector.CredentialAPIKey, VaultKey: "present-key", Required: true},
		{Name: "missing", Type: connector.CredentialAPIKey, VaultKey: "missing-key", Required: true},
	}
	result := v.CheckRequirements(specs)
	require.True(t, result["present-key"])
	require.False(t, result["missing-key"])
}

func TestGrantConnectorAccessSkipsMissingKeys(t *testing.T) {
	v := testVault(t)
	_, err := v.Store("real-key", "v", connector.CredentialAPIKey)
	require.NoError(t, err)

	granted := v.GrantConnectorAccess("slack", []string{"real-key", "ghost-key"})
	require.Equal(t, []string{"real-key"}, granted)
	require.True(t, v.IsAllowed("slack", "real-key"))
	require.False(t, v.IsAllowed("slack", "ghost-key"))
}

func TestAuditLogLineFormat(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONNECTORPLANE_VAULT_TEST_KEY3", "unit-test-secret")
	auditPath := filepath.Join(dir, "audit.log")
	cfg := Config{
		StoragePath:  filepath.Join(dir, "vault.enc"),
		KeyEnvVar:    "CONNECTORPLANE_VAULT_TEST_KEY3",
		LogAccess:    true,
		AuditLogPath: auditPath,
	}
	v, err := Open(cfg, nil, true)
	require.NoError(t, err)

	_, err = v.Store("k", "secret-value", connector.CredentialAPIKey)
	require.NoError(t, err)
	v.Grant("k", "slack")
	_, err = v.Retrieve("k", "slack")
	require.NoError(t, err)
	_, err = v.Retrieve("k", "")
	require.NoError(t, err)

	raw, err := os.ReadFile(auditPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 4)
	require.Contains(t, lines[0], "| store | k | accessor=")
	require.Contains(t, lines[2], "| retrieve | k | accessor=slack")
	// Administrative access logs an empty accessor.
	require.True(t, strings.HasSuffix(lines[3], "accessor="))
	// Plaintext never reaches the audit log.
	require.NotContains(t, string(raw), "secret-value")
}
