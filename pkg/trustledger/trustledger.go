// Package trustledger implements the progressive-trust ledger consulted
// by the risk classifier: a counter-based store that can relax (never
// raise) a capability's effective tier after enough recorded successes
// and an explicit graduation approval.
package trustledger

import (
	"sync"

	"github.com/wisbric/connectorplane/pkg/connector"
)

// GraduationThreshold is the default number of recorded successes
// required before a capability/scope pair becomes eligible for a
// graduation proposal.
const GraduationThreshold = 100

type ledgerKey struct {
	capability string
	scope      string
}

type entry struct {
	successes int
	failures  int
	proposed  bool
	approved  bool
	tier      connector.RiskTier
}

// Ledger is the in-memory reference TrustLedger. An optional Postgres-
// backed persistence layer can wrap Ledger by loading counters at boot
// and flushing them after each mutation; Ledger itself holds no I/O
// dependency so it stays trivially testable.
type Ledger struct {
	mu        sync.Mutex
	entries   map[ledgerKey]*entry
	threshold int
}

// New constructs a Ledger with the given graduation threshold. A
// threshold of 0 uses GraduationThreshold.
func New(threshold int) *Ledger {
	if threshold <= 0 {
		threshold = GraduationThreshold
	}
	return &Ledger{entries: make(map[ledgerKey]*entry), threshold: threshold}
}

func (l *Ledger) get(capability, scope string) *entry {
	k := ledgerKey{capability, scope}
	e, ok := l.entries[k]
	if !ok {
		e = &entry{}
		l.entries[k] = e
	}
	return e
}

// RecordSuccess increments the success counter for capability/scope and
// proposes graduation once the threshold is reached.
func (l *Ledger) RecordSuccess(capability, scope string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.get(capability, scope)
	e.successes++
	if e.successes >= l.threshold {
		e.proposed = true
	}
}

// RecordFailure increments the failure counter. A failure does not erase
// accumulated successes, but resets the graduation proposal: operators
// must re-approve after any observed failure.
func (l *Ledger) RecordFailure(capability, scope string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.get(capability, scope)
	e.failures++
	e.proposed = false
	e.approved = false
}

// PendingGraduation reports whether capability/scope has crossed the
// success threshold and awaits approval.
func (l *Ledger) PendingGraduation(capability, scope string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.get(capability, scope)
	return e.proposed && !e.approved
}

// ApproveGraduation approves a pending proposal, setting the effective
// tier the classifier will adopt for this capability/scope. Fails if no
// proposal is pending.
func (l *Ledger) ApproveGraduation(capability, scope string, tier connector.RiskTier) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.get(capability, scope)
	if !e.proposed {
		return connector.Newf(connector.KindInvalidOperation,
			"no graduation proposal pending for %q at scope %q", capability, scope)
	}
	e.approved = true
	e.tier = tier
	return nil
}

// GetEffectiveTier returns the approved graduation tier for
// capability/scope, if one exists. The classifier adopts it only when it
// is strictly lower than the tier already in hand.
func (l *Ledger) GetEffectiveTier(capability, scope string) (connector.RiskTier, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ledgerKey{capability, scope}]
	if !ok || !e.approved {
		return 0, false
	}
	return e.tier, true
}

// HandleRollback records a rollback event: treated as a failure, since a
// rollback means the original action's effects had to be undone.
func (l *Ledger) HandleRollback(capability, scope string) {
	l.RecordFailure(capability, scope)
}
