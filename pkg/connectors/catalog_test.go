package connectors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wisbric/connectorplane/pkg/connector"
)

func TestEveryManifestAndOperationValidates(t *testing.T) {
	for _, c := range BuiltIn() {
		m := c.Manifest()
		require.NoError(t, m.Validate(), "manifest %s", m.ID)
		for _, op := range c.Operations() {
			require.NoError(t, op.Validate(), "operation %s.%s", m.ID, op.ID)
			require.Equal(t, m.ID, op.ConnectorID, "operation %s.%s", m.ID, op.ID)
			require.Equal(t, "connector."+m.ID+"."+op.ID, op.FullCapabilityID())
		}
	}
}

func TestOperationCountsMatchCatalog(t *testing.T) {
	want := map[string]int{
		"slack":    7,
		"discord":  9,
		"teams":    10,
		"gmail":    7,
		"outlook":  7,
		"email":    7,
		"whatsapp": 8,
		"telegram": 8,
		"twilio":   6,
		"x":        3,
		"calendar": 6,
		"echo":     3,
	}
	for _, c := range BuiltIn() {
		id := c.Manifest().ID
		require.Len(t, c.Operations(), want[id], "connector %s", id)
	}
}

func TestRollbackOperationsExistOnSameConnector(t *testing.T) {
	for _, c := range BuiltIn() {
		ops := c.Operations()
		for _, op := range ops {
			if op.RollbackOperationID == "" {
				continue
			}
			require.NotNil(t, connector.OperationByID(ops, op.RollbackOperationID),
				"rollback %q of %s.%s", op.RollbackOperationID, c.Manifest().ID, op.ID)
		}
	}
}

// The non-obvious tier assignments are pinned here so a refactor cannot
// silently regress them.
func TestTierExceptions(t *testing.T) {
	tiers := map[string]connector.RiskTier{}
	for _, c := range BuiltIn() {
		for _, op := range c.Operations() {
			tiers[op.FullCapabilityID()] = op.DefaultTier
		}
	}
	require.Equal(t, connector.TierReversible, tiers["connector.telegram.send_message"])
	require.Equal(t, connector.TierControlled, tiers["connector.whatsapp.send_template_message"])
	require.Equal(t, connector.TierReversible, tiers["connector.x.post_tweet"])
	require.Equal(t, connector.TierReversible, tiers["connector.gmail.list_messages"])
}

func TestIrreversibleSendsAreT3(t *testing.T) {
	tiers := map[string]connector.RiskTier{}
	for _, c := range BuiltIn() {
		for _, op := range c.Operations() {
			tiers[op.FullCapabilityID()] = op.DefaultTier
		}
	}
	for _, cap := range []string{
		"connector.gmail.send_message",
		"connector.outlook.send_message",
		"connector.email.send_email",
		"connector.twilio.send_sms",
		"connector.whatsapp.send_text_message",
		"connector.x.delete_tweet",
		"connector.calendar.delete_event",
	} {
		require.Equal(t, connector.TierIrreversible, tiers[cap], cap)
	}
}

func TestTargetDomainsAreExactHosts(t *testing.T) {
	for _, c := range BuiltIn() {
		for _, d := range c.Manifest().TargetDomains {
			require.NotContains(t, d, "*", "connector %s", c.Manifest().ID)
			require.False(t, strings.HasPrefix(d, "."), "connector %s", c.Manifest().ID)
		}
	}
}
