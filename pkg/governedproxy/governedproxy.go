// Package governedproxy wraps the raw proxy with risk classification,
// policy evaluation, trust bookkeeping, and receipt emission. It is the
// single entrypoint external callers use to run
// a governed outbound call end to end.
package governedproxy

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wisbric/connectorplane/internal/telemetry"
	"github.com/wisbric/connectorplane/pkg/classifier"
	"github.com/wisbric/connectorplane/pkg/connector"
	"github.com/wisbric/connectorplane/pkg/policyengine"
	"github.com/wisbric/connectorplane/pkg/registry"
)

// ConnectorRegistry is the subset of the registry's contract this package
// depends on.
type ConnectorRegistry interface {
	Get(connectorID string) (*registry.RegistryEntry, bool)
	GetOperation(connectorID, operationID string) (*connector.ConnectorOperation, error)
}

// RawProxy is the subset of the proxy's contract this package depends on.
type RawProxy interface {
	Execute(ctx context.Context, result *connector.ConnectorResult) *connector.ConnectorResponse
}

// TrustLedger is the subset of the trust ledger's contract this package
// depends on for success/failure bookkeeping.
type TrustLedger interface {
	RecordSuccess(capability, scope string)
	RecordFailure(capability, scope string)
	HandleRollback(capability, scope string)
}

// GovernedProxy orchestrates classify -> policy -> execute -> trust ->
// receipt for every call. It is stateless between calls apart from its
// collaborators' own sinks.
type GovernedProxy struct {
	registry    ConnectorRegistry
	classifier  *classifier.Classifier
	policy      policyengine.Engine
	proxy       RawProxy
	trustLedger TrustLedger
	batchSink   ReceiptSink
	store       ReceiptSink
}

// New constructs a GovernedProxy. policy, trustLedger may be nil.
func New(reg ConnectorRegistry, clf *classifier.Classifier, policy policyengine.Engine, p RawProxy, trustLedger TrustLedger, batchSink, store ReceiptSink) *GovernedProxy {
	if policy == nil {
		policy = policyengine.AllowAll{}
	}
	return &GovernedProxy{
		registry:    reg,
		classifier:  clf,
		policy:      policy,
		proxy:       p,
		trustLedger: trustLedger,
		batchSink:   batchSink,
		store:       store,
	}
}

const externalScope = "external"

// RegisterConnectorTiers copies every operation's default tier into the
// classifier's defaults table, keyed by full_capability_id.
func (g *GovernedProxy) RegisterConnectorTiers(connectorID string) error {
	entry, ok := g.registry.Get(connectorID)
	if !ok {
		return connector.Newf(connector.KindConnectorNotFound, "connector %q not found", connectorID)
	}
	for _, op := range entry.Connector.Operations() {
		g.classifier.RegisterDefault(op.FullCapabilityID(), op.DefaultTier)
	}
	return nil
}

// GetOperationTier returns the classified tier for one operation at the
// external scope, without executing it.
func (g *GovernedProxy) GetOperationTier(connectorID, operationID string) (connector.RiskTier, error) {
	op, err := g.registry.GetOperation(connectorID, operationID)
	if err != nil {
		return 0, err
	}
	profile := g.classifier.Classify(op.FullCapabilityID(), externalScope, "")
	return profile.Tier, nil
}

// HandleRollback records a rollback event in the trust ledger for the
// given operation's capability.
func (g *GovernedProxy) HandleRollback(connectorID, operationID string) error {
	op, err := g.registry.GetOperation(connectorID, operationID)
	if err != nil {
		return err
	}
	if g.trustLedger != nil {
		g.trustLedger.HandleRollback(op.FullCapabilityID(), externalScope)
	}
	return nil
}

// ExecuteGoverned runs the full classify -> policy -> execute -> trust ->
// receipt pipeline. It always returns a well-formed ConnectorResponse.
func (g *GovernedProxy) ExecuteGoverned(ctx context.Context, connectorID, operationID string, params map[string]any) *connector.ConnectorResponse {
	entry, ok := g.registry.Get(connectorID)
	if !ok {
		return connector.ErrorResponse(operationID, connectorID,
			connector.Newf(connector.KindConnectorNotFound, "connector %q not found", connectorID))
	}
	op := connector.OperationByID(entry.Connector.Operations(), operationID)
	if op == nil {
		return connector.ErrorResponse(operationID, connectorID, connector.NotFound(connectorID, operationID).(*connector.Error))
	}

	profile := g.classifier.Classify(op.FullCapabilityID(), externalScope, "")

	decision := g.policy.Evaluate(policyengine.Intent{
		Capability: op.FullCapabilityID(),
		RiskLevel:  policyengine.RiskLevelForTier(profile.Tier),
		Scope:      externalScope,
	})
	if !decision.Allowed {
		telemetry.PolicyDenialsTotal.WithLabelValues(connectorID).Inc()
		return connector.ErrorResponse(operationID, connectorID, connector.Newf(connector.KindPolicyDenied,
			"%s", strings.Join(decision.Reasons, "; ")))
	}

	result, err := entry.Connector.Execute(operationID, params)
	if err != nil {
		cerr, ok := err.(*connector.Error)
		if !ok {
			cerr = connector.Wrap(connector.KindInvalidRequestSpec, err, "connector execute failed")
		}
		return connector.ErrorResponse(operationID, connectorID, cerr)
	}

	resp := g.proxy.Execute(ctx, result)

	if g.trustLedger != nil {
		if resp.IsError() {
			g.trustLedger.RecordFailure(op.FullCapabilityID(), externalScope)
		} else {
			g.trustLedger.RecordSuccess(op.FullCapabilityID(), externalScope)
		}
	}

	receipt := Receipt{
		ReceiptID:   uuid.NewString(),
		Timestamp:   time.Now(),
		ConnectorID: connectorID,
		OperationID: operationID,
		Capability:  op.FullCapabilityID(),
		Tier:        profile.Tier.String(),
		StatusCode:  resp.StatusCode,
		Success:     resp.Success,
	}
	g.emitReceipt(profile.Tier, receipt)
	resp.ReceiptID = receipt.ReceiptID

	outcome := "success"
	if resp.IsError() {
		outcome = "error"
	}
	telemetry.GovernedExecutionsTotal.WithLabelValues(connectorID, profile.Tier.String(), outcome).Inc()

	return resp
}

func (g *GovernedProxy) emitReceipt(tier connector.RiskTier, r Receipt) {
	sink, label := g.store, "store"
	if tier == connector.TierInert {
		sink, label = g.batchSink, "batch"
	}
	if sink == nil {
		return
	}
	_ = sink.Emit(r)
	telemetry.ReceiptsEmittedTotal.WithLabelValues(label).Inc()
}
