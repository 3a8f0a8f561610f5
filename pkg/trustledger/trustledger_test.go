package trustledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wisbric/connectorplane/pkg/connector"
)

func TestNoEffectiveTierBeforeGraduation(t *testing.T) {
	l := New(5)
	_, ok := l.GetEffectiveTier("connector.slack.post_message", "external")
	require.False(t, ok)
}

func TestGraduationRequiresApproval(t *testing.T) {
	l := New(3)
	for i := 0; i < 3; i++ {
		l.RecordSuccess("connector.slack.post_message", "external")
	}
	require.True(t, l.PendingGraduation("connector.slack.post_message", "external"))

	_, ok := l.GetEffectiveTier("connector.slack.post_message", "external")
	require.False(t, ok, "no effective tier until the proposal is approved")

	require.NoError(t, l.ApproveGraduation("connector.slack.post_message", "external", connector.TierReversible))
	tier, ok := l.GetEffectiveTier("connector.slack.post_message", "external")
	require.True(t, ok)
	require.Equal(t, connector.TierReversible, tier)
}

func TestApproveWithoutPendingProposalFails(t *testing.T) {
	l := New(100)
	err := l.ApproveGraduation("connector.slack.post_message", "external", connector.TierReversible)
	require.Error(t, err)
}

func TestFailureResetsPendingProposal(t *testing.T) {
	l := New(2)
	l.RecordSuccess("connector.slack.post_message", "external")
	l.RecordSuccess("connector.slack.post_message", "external")
	require.True(t, l.PendingGraduation("connector.slack.post_message", "external"))

	l.RecordFailure("connector.slack.post_message", "external")
	require.False(t, l.PendingGraduation("connector.slack.post_message", "external"))
}

func TestHandleRollbackCountsAsFailure(t *testing.T) {
	l := New(2)
	l.RecordSuccess("connector.slack.post_message", "external")
	l.RecordSuccess("connector.slack.post_message", "external")
	require.NoError(t, l.ApproveGraduation("connector.slack.post_message", "external", connector.TierReversible))

	l.HandleRollback("connector.slack.post_message", "external")
	_, ok := l.GetEffectiveTier("connector.slack.post_message", "external")
	require.False(t, ok, "a rollback must revoke the prior graduation until re-approved")
}

func TestDefaultThresholdIsOneHundred(t *testing.T) {
	l := New(0)
	require.Equal(t, GraduationThreshold, l.threshold)
}
