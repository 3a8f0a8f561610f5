// Package classifier implements the risk classifier: a pure,
// side-effect-free mapping from (capability, scope, target) to a risk
// tier, with scope/pattern escalation, soul escalation, and monotonic
// trust-ledger relaxation.
package classifier

import (
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/wisbric/connectorplane/pkg/connector"
)

// EscalationRule raises the tier for a capability when either its scope
// or its glob-style target pattern matches.
type EscalationRule struct {
	Capability string
	Scope      string // matched by exact equality against the classify call's scope
	Pattern    string // doublestar glob matched against target; empty skips the check
	EscalateTo connector.RiskTier
	Reason     string // only set for soul rules; surfaced as SoulEscalation
}

// TrustLedger is the subset of the trust ledger's contract the classifier
// consults for relaxation. Implemented by pkg/trustledger.
type TrustLedger interface {
	GetEffectiveTier(capability, scope string) (connector.RiskTier, bool)
}

// ActionRiskProfile is the classifier's output: the resolved tier plus
// the context that produced it.
type ActionRiskProfile struct {
	Capability     string
	Scope          string
	Target         string
	Tier           connector.RiskTier
	Reversible     bool // tier <= T1
	SoulEscalation string
}

// Classifier holds the configured defaults table and escalation rule
// sets. Safe for concurrent use: Classify is a pure read of configured
// state guarded by a single mutex.
type Classifier struct {
	mu                sync.RWMutex
	defaults          map[string]connector.RiskTier
	configEscalations []EscalationRule
	soulEscalations   []EscalationRule
	trustLedger       TrustLedger
	trustLedgerEnabled bool
}

// New constructs a Classifier. trustLedger may be nil, in which case
// no trust relaxation is applied.
func New(configEscalations, soulEscalations []EscalationRule, trustLedger TrustLedger, trustLedgerEnabled bool) *Classifier {
	return &Classifier{
		defaults:           make(map[string]connector.RiskTier),
		configEscalations:  configEscalations,
		soulEscalations:    soulEscalations,
		trustLedger:        trustLedger,
		trustLedgerEnabled: trustLedgerEnabled,
	}
}

// RegisterDefault sets defaults[capability] = tier. Called by the
// governed proxy's register_connector_tiers for every operation of a
// newly registered connector.
func (c *Classifier) RegisterDefault(capability string, tier connector.RiskTier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaults[capability] = tier
}

// Classify runs the four-step deterministic classification algorithm.
func (c *Classifier) Classify(capability, scope, target string) ActionRiskProfile {
	if scope == "" {
		scope = "workspace"
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	tier, ok := c.defaults[capability]
	if !ok {
		tier = connector.TierIrreversible
	}

	tier = applyEscalations(c.configEscalations, capability, scope, target, tier)

	profile := ActionRiskProfile{Capability: capability, Scope: scope, Target: target}

	// soulFloor, when set, is the minimum tier trust relaxation may not
	// cross: it names the highest tier any matching soul rule actually
	// mandated, independent of the config-escalated starting tier.
	soulFloorSet := false
	var soulFloor connector.RiskTier
	for _, rule := range c.soulEscalations {
		if rule.Capability != capability {
			continue
		}
		if !ruleMatches(rule, scope, target) {
			continue
		}
		if !soulFloorSet || rule.EscalateTo.Rank() > soulFloor.Rank() {
			soulFloor = rule.EscalateTo
			soulFloorSet = true
			profile.SoulEscalation = rule.Reason
		}
		if rule.EscalateTo.Rank() > tier.Rank() {
			tier = rule.EscalateTo
		}
	}

	if c.trustLedger != nil && c.trustLedgerEnabled {
		if effective, ok := c.trustLedger.GetEffectiveTier(capability, scope); ok && effective.Rank() < tier.Rank() {
			tier = effective
			if soulFloorSet && tier.Rank() < soulFloor.Rank() {
				tier = soulFloor
			}
		}
	}

	profile.Tier = tier
	profile.Reversible = tier.Rank() <= connector.TierReversible.Rank()
	return profile
}

// ClassifyStep is a convenience wrapper for plan-step-shaped callers:
// scope always "workspace", no target pattern.
func (c *Classifier) ClassifyStep(capability string) ActionRiskProfile {
	return c.Classify(capability, "workspace", "")
}

func applyEscalations(rules []EscalationRule, capability, scope, target string, tier connector.RiskTier) connector.RiskTier {
	for _, rule := range rules {
		if rule.Capability != capability {
			continue
		}
		if !ruleMatches(rule, scope, target) {
			continue
		}
		if rule.EscalateTo.Rank() > tier.Rank() {
			tier = rule.EscalateTo
		}
	}
	return tier
}

func ruleMatches(rule EscalationRule, scope, target string) bool {
	if rule.Scope != "" && rule.Scope == scope {
		return true
	}
	if rule.Pattern != "" && target != "" {
		if matched, err := doublestar.Match(rule.Pattern, target); err == nil && matched {
			return true
		}
	}
	return false
}
