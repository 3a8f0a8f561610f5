package classifier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wisbric/connectorplane/pkg/connector"
)

func TestUnknownCapabilityDefaultsToT3(t *testing.T) {
	c := New(nil, nil, nil, false)
	profile := c.Classify("connector.unknown.action", "workspace", "")
	require.Equal(t, connector.TierIrreversible, profile.Tier)
	require.False(t, profile.Reversible)
}

func TestRegisteredDefaultIsUsed(t *testing.T) {
	c := New(nil, nil, nil, false)
	c.RegisterDefault("connector.slack.post_message", connector.TierControlled)

	profile := c.Classify("connector.slack.post_message", "workspace", "")
	require.Equal(t, connector.TierControlled, profile.Tier)
}

func TestScopeEscalationRaisesTier(t *testing.T) {
	rules := []EscalationRule{
		{Capability: "connector.slack.post_message", Scope: "external", EscalateTo: connector.TierIrreversible},
	}
	c := New(rules, nil, nil, false)
	c.RegisterDefault("connector.slack.post_message", connector.TierControlled)

	profile := c.Classify("connector.slack.post_message", "external", "")
	require.Equal(t, connector.TierIrreversible, profile.Tier)
}

func TestEscalationNeverLowersTier(t *testing.T) {
	rules := []EscalationRule{
		{Capability: "connector.slack.post_message", Scope: "external", EscalateTo: connector.TierInert},
	}
	c := New(rules, nil, nil, false)
	c.RegisterDefault("connector.slack.post_message", connector.TierControlled)

	profile := c.Classify("connector.slack.post_message", "external", "")
	require.Equal(t, connector.TierControlled, profile.Tier, "escalation must never lower a tier below the default")
}

func TestPatternEscalationMatchesGlob(t *testing.T) {
	rules := []EscalationRule{
		{Capability: "connector.genericrest.post", Pattern: "*.internal.example.com", EscalateTo: connector.TierIrreversible},
	}
	c := New(rules, nil, nil, false)
	c.RegisterDefault("connector.genericrest.post", connector.TierInert)

	profile := c.Classify("connector.genericrest.post", "workspace", "admin.internal.example.com")
	require.Equal(t, connector.TierIrreversible, profile.Tier)

	profile2 := c.Classify("connector.genericrest.post", "workspace", "public.example.com")
	require.Equal(t, connector.TierInert, profile2.Tier)
}

func TestSoulEscalationRecordsReason(t *testing.T) {
	soul := []EscalationRule{
		{Capability: "connector.slack.post_message", Scope: "external", EscalateTo: connector.TierControlled, Reason: "external posting requires review"},
	}
	c := New(nil, soul, nil, false)
	c.RegisterDefault("connector.slack.post_message", connector.TierReversible)

	profile := c.Classify("connector.slack.post_message", "external", "")
	require.Equal(t, connector.TierControlled, profile.Tier)
	require.Equal(t, "external posting requires review", profile.SoulEscalation)
}

type fakeLedger struct {
	tier connector.RiskTier
	ok   bool
}

func (f fakeLedger) GetEffectiveTier(capability, scope string) (connector.RiskTier, bool) {
	return f.tier, f.ok
}

func TestTrustRelaxationOnlyLowersTier(t *testing.T) {
	c := New(nil, nil, fakeLedger{tier: connector.TierReversible, ok: true}, true)
	c.RegisterDefault("connector.slack.post_message", connector.TierControlled)

	profile := c.Classify("connector.slack.post_message", "workspace", "")
	require.Equal(t, connector.TierReversible, profile.Tier)
}

func TestTrustRelaxationNeverRaisesTier(t *testing.T) {
	c := New(nil, nil, fakeLedger{tier: connector.TierIrreversible, ok: true}, true)
	c.RegisterDefault("connector.slack.post_message", connector.TierReversible)

	profile := c.Classify("connector.slack.post_message", "workspace", "")
	require.Equal(t, connector.TierReversible, profile.Tier, "trust ledger must never raise a tier")
}

func TestSoulFloorSurvivesTrustRelaxation(t *testing.T) {
	soul := []EscalationRule{
		{Capability: "connector.slack.post_message", Scope: "workspace", EscalateTo: connector.TierControlled, Reason: "soul minimum"},
	}
	c := New(nil, soul, fakeLedger{tier: connector.TierReversible, ok: true}, true)
	c.RegisterDefault("connector.slack.post_message", connector.TierIrreversible)

	profile := c.Classify("connector.slack.post_message", "workspace", "")
	require.Equal(t, connector.TierControlled, profile.Tier,
		"trust wants to relax to T1 but the soul-mandated T2 floor wins")
}

func TestTrustDisabledIsIgnored(t *testing.T) {
	c := New(nil, nil, fakeLedger{tier: connector.TierInert, ok: true}, false)
	c.RegisterDefault("connector.slack.post_message", connector.TierControlled)

	profile := c.Classify("connector.slack.post_message", "workspace", "")
	require.Equal(t, connector.TierControlled, profile.Tier)
}
