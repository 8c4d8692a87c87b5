package rewards

import (
	"fmt"

	"github.com/glowcircle/glow/internal/domain"
	"github.com/glowcircle/glow/internal/infra/observability"
)

// ─── Referrals ──────────────────────────────────────────────────────────────

// AddReferral rewards a successful friend referral, up to the lifetime
// ceiling. Referral rewards are not reversible.
func (e *Engine) AddReferral() (domain.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if res := validate(e.state, domain.ReasonReferFriend, domain.EventMeta{}, e.now()); !res.OK {
		observability.RejectionsTotal.WithLabelValues(string(domain.ReasonReferFriend)).Inc()
		return res, nil
	}

	st := e.state.Clone()
	before := e.state

	ev := e.appendEvent(st, domain.PointsReferral, domain.ReasonReferFriend, domain.EventMeta{}, false, "")
	st.ReferralCount++

	pings := e.notices(before, st, nil)
	if err := e.commit(st); err != nil {
		return domain.Result{}, err
	}
	observability.AppendsTotal.WithLabelValues(string(domain.ReasonReferFriend)).Inc()
	e.hub.Broadcast(pings...)

	return domain.Result{
		OK:      true,
		Message: fmt.Sprintf("referral rewarded (+%d, %d of %d)", domain.PointsReferral, st.ReferralCount, domain.ReferralCeiling),
		EventID: ev.ID,
		Balance: domain.Balance{Lifetime: st.Lifetime, Available: st.Available},
	}, nil
}
