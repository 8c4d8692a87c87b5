// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture; it depends on nothing.
package domain

import "time"

// ─── Event Reasons ──────────────────────────────────────────────────────────

// Reason identifies the business action behind a ledger event.
type Reason string

const (
	ReasonDailyCheckIn   Reason = "daily_check_in"
	ReasonDailyRoutine   Reason = "daily_routine_task"
	ReasonReferFriend    Reason = "refer_friend"
	ReasonPostLikes      Reason = "post_engagement_likes"
	ReasonPostComments   Reason = "post_engagement_comments"
	ReasonSignupBonus    Reason = "signup_bonus"
	ReasonFirstStepBonus Reason = "first_routine_step_bonus"
	ReasonSevenDayStreak Reason = "seven_day_streak_bonus"
)

// ReversedSuffix is appended to a reason when a compensating event is written.
const ReversedSuffix = "_reversed"

// Reversed returns the compensating-event reason for r.
func (r Reason) Reversed() Reason {
	return r + ReversedSuffix
}

// IsReversal reports whether r is a compensating-event reason.
func (r Reason) IsReversal() bool {
	n := len(ReversedSuffix)
	return len(r) > n && r[len(r)-n:] == ReversedSuffix
}

// IsEngagement reports whether r is a per-post engagement reward.
func (r Reason) IsEngagement() bool {
	return r == ReasonPostLikes || r == ReasonPostComments
}

// ─── Point Values ───────────────────────────────────────────────────────────

// Fixed point values per reason. Balances are plain signed integers;
// every delta in the ledger derives from one of these.
const (
	PointsCheckIn     int64 = 1
	PointsRoutineTask int64 = 1
	PointsStreakBonus int64 = 2
	PointsReferral    int64 = 5
	PointsPostLikes   int64 = 2
	PointsPostComment int64 = 3
	PointsSignup      int64 = 10
	PointsFirstStep   int64 = 5
)

// ─── Limits ─────────────────────────────────────────────────────────────────

const (
	// DailyTaskCap is the maximum routine-task points per calendar day.
	DailyTaskCap int64 = 5

	// ReferralCeiling is the lifetime cap on rewarded referrals.
	ReferralCeiling int = 20

	// RateLimitMax is the number of appends tolerated inside RateLimitWindow.
	// One more inside the window is rejected.
	RateLimitMax = 5

	// RateLimitWindow is the trailing window for the rate limiter.
	RateLimitWindow = time.Second

	// StreakBonusEvery pays a streak bonus at each multiple of this many days.
	StreakBonusEvery = 7

	// LedgerRetention caps stored history length. Events still targeted by a
	// possible reversal are retained past the cap (the tail is extended).
	LedgerRetention = 200
)

// ─── Ledger Event ───────────────────────────────────────────────────────────

// EventMeta carries the reason-specific payload of an event. Only the fields
// relevant to the reason are set; the validator switches on Reason and reads
// the matching field.
type EventMeta struct {
	TaskID     string `json:"task_id,omitempty"`
	PostID     string `json:"post_id,omitempty"`
	StreakDays int    `json:"streak_days,omitempty"`
}

// Event is one immutable row in the points ledger. Events are never mutated
// or deleted once appended; a reversal is a new event with a negated delta
// and RelatedID pointing back at the original.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Delta      int64     `json:"delta"`
	Reason     Reason    `json:"reason"`
	Meta       EventMeta `json:"meta,omitempty"`
	Reversible bool      `json:"reversible"`
	RelatedID  string    `json:"related_id,omitempty"`
}

// Balance is the pair of running totals derived by folding the ledger.
type Balance struct {
	Lifetime  int64 `json:"lifetime"`
	Available int64 `json:"available"`
}

// ─── Results ────────────────────────────────────────────────────────────────

// Result is the outcome of an engine operation. Business-rule failures are
// expressed here, never as Go errors; only persistence failures surface as
// errors to the caller.
type Result struct {
	OK      bool    `json:"ok"`
	Message string  `json:"message,omitempty"`
	EventID string  `json:"event_id,omitempty"`
	Balance Balance `json:"balance"`
}

// Rejected builds a failed Result with the given message.
func Rejected(msg string) Result {
	return Result{OK: false, Message: msg}
}
