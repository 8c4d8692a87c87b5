package rewards

import (
	"fmt"
	"time"

	"github.com/glowcircle/glow/internal/domain"
)

// ─── Action Validator ───────────────────────────────────────────────────────
// Pre-commit gate applied to every prospective user-initiated event. Rules
// run in order and the first failure rejects the action with a specific
// message. Follow-on bonus events appended inside an already-validated
// operation do not pass through here again.

// Rejection messages form a closed set so the UI can match on them.
const (
	msgRateLimited    = "too many actions, slow down"
	msgAlreadyChecked = "already checked in today"
	msgDailyCapHit    = "daily task point cap reached"
	msgReferralCap    = "referral reward limit reached"
	msgDuplicatePost  = "engagement already rewarded for this post"
)

// validate applies the rule chain against the current record. Reasons without
// a dedicated rule pass by default; each new capped or duplicate-sensitive
// reason must add its case here.
func validate(st *domain.State, reason domain.Reason, meta domain.EventMeta, now time.Time) domain.Result {
	// Rule 1: rate limit. Any reason, trailing window over the ledger tail.
	if recentAppends(st, now) >= domain.RateLimitMax {
		return domain.Rejected(msgRateLimited)
	}

	// Rule 2: per-reason guards.
	switch reason {
	case domain.ReasonDailyCheckIn:
		if hasActiveEventOn(st, domain.ReasonDailyCheckIn, domain.Day(now), nil) {
			return domain.Rejected(msgAlreadyChecked)
		}

	case domain.ReasonDailyRoutine:
		if remainingToday(st, now) <= 0 {
			return domain.Rejected(msgDailyCapHit)
		}

	case domain.ReasonReferFriend:
		if st.ReferralCount >= domain.ReferralCeiling {
			return domain.Rejected(msgReferralCap)
		}

	case domain.ReasonPostLikes, domain.ReasonPostComments:
		for _, ev := range st.Ledger {
			if ev.Reason == reason && ev.Meta.PostID == meta.PostID {
				return domain.Rejected(fmt.Sprintf("%s: %s", msgDuplicatePost, meta.PostID))
			}
		}
	}

	// Unlisted reasons pass: new action kinds work without validator changes.
	return domain.Result{OK: true}
}

// recentAppends counts ledger events inside the trailing rate-limit window.
func recentAppends(st *domain.State, now time.Time) int {
	cutoff := now.Add(-domain.RateLimitWindow)
	n := 0
	for i := len(st.Ledger) - 1; i >= 0; i-- {
		if !st.Ledger[i].Timestamp.After(cutoff) {
			break
		}
		n++
	}
	return n
}

// hasActiveEventOn reports whether an event with the given reason exists on
// the given calendar day and has not been reversed. An undone check-in does
// not block a fresh one.
func hasActiveEventOn(st *domain.State, reason domain.Reason, day string, matcher func(domain.Event) bool) bool {
	for _, ev := range st.Ledger {
		if ev.Reason != reason || domain.Day(ev.Timestamp) != day {
			continue
		}
		if matcher != nil && !matcher(ev) {
			continue
		}
		if isReversed(st, ev.ID) {
			continue
		}
		return true
	}
	return false
}
