package rewards

import (
	"fmt"

	"github.com/glowcircle/glow/internal/domain"
	"github.com/glowcircle/glow/internal/infra/observability"
)

// ─── Reversal Engine ────────────────────────────────────────────────────────

// Reverse appends a compensating event against a prior reversible event:
// negated delta, the original reason with a "_reversed" suffix, and a
// back-reference to the original ID. A reversal cannot itself be reversed.
// History is never mutated; the original event stays in the ledger.
//
// Reverse does not touch streak or daily-cap side state; the UndoCheckIn and
// UndoRoutineTask wrappers exist for events that carry coupled counters.
func (e *Engine) Reverse(eventID string) (domain.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var target *domain.Event
	for i := range e.state.Ledger {
		if e.state.Ledger[i].ID == eventID {
			target = &e.state.Ledger[i]
			break
		}
	}
	if target == nil {
		return domain.Rejected(fmt.Sprintf("event %s not found", eventID)), nil
	}
	if !target.Reversible || isReversed(e.state, target.ID) {
		return domain.Rejected(fmt.Sprintf("event %s is not reversible", eventID)), nil
	}

	st := e.state.Clone()
	rev := e.appendEvent(st, -target.Delta, target.Reason.Reversed(), target.Meta, false, target.ID)

	if err := e.commit(st); err != nil {
		return domain.Result{}, err
	}
	observability.ReversalsTotal.WithLabelValues(string(target.Reason)).Inc()

	return domain.Result{
		OK:      true,
		Message: fmt.Sprintf("reversed %s (%+d)", target.Reason, -target.Delta),
		EventID: rev.ID,
		Balance: domain.Balance{Lifetime: st.Lifetime, Available: st.Available},
	}, nil
}
