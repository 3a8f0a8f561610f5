package governedproxy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wisbric/connectorplane/pkg/classifier"
	"github.com/wisbric/connectorplane/pkg/connector"
	"github.com/wisbric/connectorplane/pkg/connectors/echo"
	"github.com/wisbric/connectorplane/pkg/policyengine"
	"github.com/wisbric/connectorplane/pkg/registry"
	"github.com/wisbric/connectorplane/pkg/trustledger"
)

// fakeProxy stands in for C7: it never performs I/O, returning a
// preprogrammed response per operation id so governedproxy's own logic
// can be exercised in isolation.
type fakeProxy struct {
	responses map[string]*connector.ConnectorResponse
}

func (f *fakeProxy) Execute(_ context.Context, result *connector.ConnectorResult) *connector.ConnectorResponse {
	if resp, ok := f.responses[result.OperationID]; ok {
		return resp
	}
	return &connector.ConnectorResponse{
		OperationID: result.OperationID,
		ConnectorID: result.ConnectorID,
		StatusCode:  200,
		Success:     true,
	}
}

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(registry.Catalog{}, true)
	require.NoError(t, reg.Register(echo.New()))
	return reg
}

func TestExecuteGovernedConnectorNotFound(t *testing.T) {
	reg := newTestRegistry(t)
	clf := classifier.New(nil, nil, nil, false)
	gp := New(reg, clf, nil, &fakeProxy{}, nil, NewInMemorySink(), NewInMemorySink())

	resp := gp.ExecuteGoverned(context.Background(), "nonexistent", "get", nil)
	require.True(t, resp.IsError())
	require.Equal(t, connector.KindConnectorNotFound, resp.ErrorKind)
}

func TestExecuteGovernedOperationNotFound(t *testing.T) {
	reg := newTestRegistry(t)
	clf := classifier.New(nil, nil, nil, false)
	gp := New(reg, clf, nil, &fakeProxy{}, nil, NewInMemorySink(), NewInMemorySink())

	resp := gp.ExecuteGoverned(context.Background(), "echo", "nonexistent", nil)
	require.True(t, resp.IsError())
	require.Equal(t, connector.KindOperationNotFound, resp.ErrorKind)
}

func TestExecuteGovernedSuccessRoutesT0ToBatchSink(t *testing.T) {
	reg := newTestRegistry(t)
	clf := classifier.New(nil, nil, nil, false)
	require.NoError(t, gpRegisterTiers(t, reg, clf, "echo"))

	batch := NewInMemorySink()
	store := NewInMemorySink()
	fp := &fakeProxy{responses: map[string]*connector.ConnectorResponse{
		"get": {OperationID: "get", ConnectorID: "echo", StatusCode: 200, Success: true},
	}}
	gp := New(reg, clf, nil, fp, nil, batch, store)

	resp := gp.ExecuteGoverned(context.Background(), "echo", "get", map[string]any{"message": "hi"})
	require.False(t, resp.IsError())
	require.NotEmpty(t, resp.ReceiptID)

	require.Len(t, batch.Receipts(), 1)
	require.Empty(t, store.Receipts())
	require.Equal(t, "T0_INERT", batch.Receipts()[0].Tier)
}

func TestExecuteGovernedReversibleRoutesToStore(t *testing.T) {
	reg := newTestRegistry(t)
	clf := classifier.New(nil, nil, nil, false)
	require.NoError(t, gpRegisterTiers(t, reg, clf, "echo"))

	batch := NewInMemorySink()
	store := NewInMemorySink()
	fp := &fakeProxy{responses: map[string]*connector.ConnectorResponse{
		"post": {OperationID: "post", ConnectorID: "echo", StatusCode: 200, Success: true},
	}}
	gp := New(reg, clf, nil, fp, nil, batch, store)

	resp := gp.ExecuteGoverned(context.Background(), "echo", "post", map[string]any{"message": "hi"})
	require.False(t, resp.IsError())

	require.Empty(t, batch.Receipts())
	require.Len(t, store.Receipts(), 1)
	require.Equal(t, "T1_REVERSIBLE", store.Receipts()[0].Tier)
}

func TestExecuteGovernedPolicyDenyShortCircuits(t *testing.T) {
	reg := newTestRegistry(t)
	clf := classifier.New(nil, nil, nil, false)
	require.NoError(t, gpRegisterTiers(t, reg, clf, "echo"))

	deny := policyengine.TierThreshold{MaxRiskLevel: map[string]policyengine.RiskLevel{
		"external": policyengine.RiskLow,
	}}
	fp := &fakeProxy{responses: map[string]*connector.ConnectorResponse{
		"post": {OperationID: "post", ConnectorID: "echo", StatusCode: 200, Success: true},
	}}
	store := NewInMemorySink()
	gp := New(reg, clf, deny, fp, nil, NewInMemorySink(), store)

	// post is T1 (low risk), allowed under a low ceiling.
	resp := gp.ExecuteGoverned(context.Background(), "echo", "post", map[string]any{"message": "hi"})
	require.False(t, resp.IsError())

	// Raise the effective tier via a soul escalation so the ceiling bites.
	clfStrict := classifier.New(nil, []classifier.EscalationRule{
		{Capability: "connector.echo.post", Scope: "external", EscalateTo: connector.TierIrreversible, Reason: "test escalation"},
	}, nil, false)
	require.NoError(t, gpRegisterTiers(t, reg, clfStrict, "echo"))
	gpStrict := New(reg, clfStrict, deny, fp, nil, NewInMemorySink(), store)
	resp2 := gpStrict.ExecuteGoverned(context.Background(), "echo", "post", map[string]any{"message": "hi"})
	require.True(t, resp2.IsError())
	require.Equal(t, connector.KindPolicyDenied, resp2.ErrorKind)
}

func TestExecuteGovernedUpdatesTrustLedgerOnSuccessAndFailure(t *testing.T) {
	reg := newTestRegistry(t)
	clf := classifier.New(nil, nil, nil, false)
	require.NoError(t, gpRegisterTiers(t, reg, clf, "echo"))

	// Threshold 1: one recorded success proposes graduation, and a
	// recorded failure withdraws the proposal.
	ledger := trustledger.New(1)
	okProxy := &fakeProxy{responses: map[string]*connector.ConnectorResponse{
		"get": {OperationID: "get", ConnectorID: "echo", StatusCode: 200, Success: true},
	}}
	gp := New(reg, clf, nil, okProxy, ledger, NewInMemorySink(), NewInMemorySink())
	gp.ExecuteGoverned(context.Background(), "echo", "get", nil)
	require.True(t, ledger.PendingGraduation("connector.echo.get", "external"))

	failProxy := &fakeProxy{responses: map[string]*connector.ConnectorResponse{
		"get": {OperationID: "get", ConnectorID: "echo", StatusCode: 500, Success: false},
	}}
	gpFail := New(reg, clf, nil, failProxy, ledger, NewInMemorySink(), NewInMemorySink())
	gpFail.ExecuteGoverned(context.Background(), "echo", "get", nil)
	require.False(t, ledger.PendingGraduation("connector.echo.get", "external"))
}

func TestHandleRollbackDelegatesToTrustLedger(t *testing.T) {
	reg := newTestRegistry(t)
	clf := classifier.New(nil, nil, nil, false)
	require.NoError(t, gpRegisterTiers(t, reg, clf, "echo"))

	ledger := trustledger.New(2)
	gp := New(reg, clf, nil, &fakeProxy{}, ledger, NewInMemorySink(), NewInMemorySink())

	ledger.RecordSuccess("connector.echo.get", "external")
	ledger.RecordSuccess("connector.echo.get", "external")
	require.True(t, ledger.PendingGraduation("connector.echo.get", "external"))

	require.NoError(t, gp.HandleRollback("echo", "get"))
	require.False(t, ledger.PendingGraduation("connector.echo.get", "external"))
}

func TestGetOperationTier(t *testing.T) {
	reg := newTestRegistry(t)
	clf := classifier.New(nil, nil, nil, false)
	require.NoError(t, gpRegisterTiers(t, reg, clf, "echo"))
	gp := New(reg, clf, nil, &fakeProxy{}, nil, NewInMemorySink(), NewInMemorySink())

	tier, err := gp.GetOperationTier("echo", "post")
	require.NoError(t, err)
	require.Equal(t, connector.TierReversible, tier)
}

func gpRegisterTiers(t *testing.T, reg *registry.Registry, clf *classifier.Classifier, connectorID string) error {
	t.Helper()
	gp := New(reg, clf, nil, &fakeProxy{}, nil, NewInMemorySink(), NewInMemorySink())
	return gp.RegisterConnectorTiers(connectorID)
}
