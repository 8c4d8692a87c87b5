package rewards

import (
	"fmt"

	"github.com/glowcircle/glow/internal/domain"
	"github.com/glowcircle/glow/internal/infra/observability"
)

// ─── Grant Registry ─────────────────────────────────────────────────────────
// One-time-only bonuses gated by boolean flags. Once a key is granted it is
// never reset except by ResetAll.

// Well-known grant keys.
const (
	grantSignup    = "signup_bonus"
	grantFirstStep = "first_routine_step"
)

// streakGrantKey builds the registry key for a multiple-of-seven streak
// bonus, so each multiple pays exactly once per account lifetime.
func streakGrantKey(days int) string {
	return fmt.Sprintf("streak_bonus_%d", days)
}

// GrantOnce awards a once-only bonus. The second call for the same key
// performs no mutation and returns OK=false. Granted events are not
// reversible.
func (e *Engine) GrantOnce(key string, delta int64, reason domain.Reason) (domain.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Grants[key] {
		return domain.Rejected(fmt.Sprintf("bonus %s already granted", key)), nil
	}
	if res := validate(e.state, reason, domain.EventMeta{}, e.now()); !res.OK {
		observability.RejectionsTotal.WithLabelValues(string(reason)).Inc()
		return res, nil
	}

	st := e.state.Clone()
	before := e.state

	st.Grants[key] = true
	ev := e.appendEvent(st, delta, reason, domain.EventMeta{}, false, "")

	pings := e.notices(before, st, []string{key})
	if err := e.commit(st); err != nil {
		return domain.Result{}, err
	}
	observability.AppendsTotal.WithLabelValues(string(reason)).Inc()
	e.hub.Broadcast(pings...)

	return domain.Result{
		OK:      true,
		Message: fmt.Sprintf("+%d %s", delta, reason),
		EventID: ev.ID,
		Balance: domain.Balance{Lifetime: st.Lifetime, Available: st.Available},
	}, nil
}

// GrantSignupBonus awards the one-time signup bonus.
func (e *Engine) GrantSignupBonus() (domain.Result, error) {
	return e.GrantOnce(grantSignup, domain.PointsSignup, domain.ReasonSignupBonus)
}

// Granted reports whether a grant key has been awarded.
func (e *Engine) Granted(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Grants[key]
}
