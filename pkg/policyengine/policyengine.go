// Package policyengine provides the governed proxy's policy evaluation
// step: given a capability and risk level, decide whether the action may
// proceed. Real deployments plug in an external engine; this package
// supplies the two reference implementations needed to exercise
// governedproxy without one wired in.
package policyengine

import "github.com/wisbric/connectorplane/pkg/connector"

// RiskLevel is the coarse three-level classification the governed proxy
// derives from a RiskTier before asking the engine: T0/T1 -> low,
// T2 -> medium, T3 -> high.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskLevelForTier maps a RiskTier to its coarse RiskLevel: T0/T1 are
// low, T2 medium, T3 high.
func RiskLevelForTier(t connector.RiskTier) RiskLevel {
	switch t {
	case connector.TierInert, connector.TierReversible:
		return RiskLow
	case connector.TierControlled:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Intent is the policy-evaluable record the governed proxy constructs
// for each action: capability plus its derived risk level.
type Intent struct {
	Capability string
	RiskLevel  RiskLevel
	Scope      string
}

// Decision is the engine's verdict. Reasons must never contain secret
// values; the governed proxy surfaces them verbatim in error responses.
type Decision struct {
	Allowed bool
	Reasons []string
}

// Engine is the governed proxy's policy collaborator.
type Engine interface {
	Evaluate(intent Intent) Decision
}

// AllowAll is the trivial reference engine: every intent is permitted.
// Useful as the default when no real policy store is configured.
type AllowAll struct{}

func (AllowAll) Evaluate(Intent) Decision { return Decision{Allowed: true} }

// TierThreshold denies any intent whose risk level exceeds a configured
// per-scope maximum. A scope with no configured maximum is unrestricted.
type TierThreshold struct {
	MaxRiskLevel map[string]RiskLevel // scope -> max allowed risk level
}

func riskRank(r RiskLevel) int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	default:
		return 2
	}
}

func (t TierThreshold) Evaluate(intent Intent) Decision {
	max, ok := t.MaxRiskLevel[intent.Scope]
	if !ok {
		return Decision{Allowed: true}
	}
	if riskRank(intent.RiskLevel) > riskRank(max) {
		return Decision{
			Allowed: false,
			Reasons: []string{"risk level " + string(intent.RiskLevel) + " exceeds maximum " + string(max) + " for scope " + intent.Scope},
		}
	}
	return Decision{Allowed: true}
}
