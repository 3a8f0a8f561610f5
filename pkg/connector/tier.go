// Package connector defines the declarative connector model: manifests,
// operations, request specs, and responses. Types here are pure data —
// no I/O, no third-party dependencies. Concrete connectors live in
// pkg/connectors/...; the proxy and governed proxy consume these types.
package connector

// RiskTier is an ordered risk classification. Higher rank is more
// dangerous. Zero value is T0_INERT.
type RiskTier int

const (
	TierInert RiskTier = iota
	TierReversible
	TierControlled
	TierIrreversible
)

// String returns the canonical tier name used in receipts and logs.
func (t RiskTier) String() string {
	switch t {
	case TierInert:
		return "T0_INERT"
	case TierReversible:
		return "T1_REVERSIBLE"
	case TierControlled:
		return "T2_CONTROLLED"
	case TierIrreversible:
		return "T3_IRREVERSIBLE"
	default:
		return "T3_IRREVERSIBLE"
	}
}

// Rank returns the numeric rank (0..3), clamping unknown values to 3.
func (t RiskTier) Rank() int {
	if t < TierInert || t > TierIrreversible {
		return int(TierIrreversible)
	}
	return int(t)
}

// ParseTier maps a tier name back to a RiskTier. Unknown names map to
// TierIrreversible, matching the "unknown capabilities are most
// dangerous" rule used during classification.
func ParseTier(name string) RiskTier {
	switch name {
	case "T0_INERT":
		return TierInert
	case "T1_REVERSIBLE":
		return TierReversible
	case "T2_CONTROLLED":
		return TierControlled
	default:
		return TierIrreversible
	}
}
