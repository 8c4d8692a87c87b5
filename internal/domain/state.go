package domain

import "time"

// ─── Side State ─────────────────────────────────────────────────────────────

// DailyCounter tracks points granted for the capped category on one calendar
// day. A date mismatch against "today" means an implicit reset to zero before
// the cap is evaluated.
type DailyCounter struct {
	Date   string `json:"date"` // time.DateOnly
	Points int64  `json:"points"`
}

// StreakState tracks consecutive check-in days.
type StreakState struct {
	Days     int    `json:"days"`
	LastDate string `json:"last_date,omitempty"` // time.DateOnly, empty if never
}

// ─── Persisted Record ───────────────────────────────────────────────────────

// State is the full engine record handed to the persistence collaborator.
// It is serialized as a single unit; the engine owns every field and no other
// component mutates it.
type State struct {
	Lifetime      int64           `json:"lifetime_total"`
	Available     int64           `json:"available_total"`
	Ledger        []Event         `json:"ledger"`
	TrimmedDelta  int64           `json:"trimmed_delta,omitempty"`
	Grants        map[string]bool `json:"grants"`
	Daily         DailyCounter    `json:"daily_counter"`
	Streak        StreakState     `json:"streak_state"`
	ReferralCount int             `json:"referral_count"`
	Notified      map[string]bool `json:"notified,omitempty"`
}

// NewState returns an empty engine record.
func NewState() *State {
	return &State{
		Grants:   make(map[string]bool),
		Notified: make(map[string]bool),
	}
}

// Clone deep-copies the record. The engine snapshots state before a mutation
// so a failed save restores the exact pre-call state.
func (s *State) Clone() *State {
	c := &State{
		Lifetime:      s.Lifetime,
		Available:     s.Available,
		TrimmedDelta:  s.TrimmedDelta,
		Daily:         s.Daily,
		Streak:        s.Streak,
		ReferralCount: s.ReferralCount,
		Ledger:        make([]Event, len(s.Ledger)),
		Grants:        make(map[string]bool, len(s.Grants)),
		Notified:      make(map[string]bool, len(s.Notified)),
	}
	copy(c.Ledger, s.Ledger)
	for k, v := range s.Grants {
		c.Grants[k] = v
	}
	for k, v := range s.Notified {
		c.Notified[k] = v
	}
	return c
}

// FoldBalance recomputes both totals from scratch: the sum of every retained
// event's delta on top of the baseline folded out by retention trimming.
// The cached totals must always equal this fold; tests verify the equality
// after every mutation.
func (s *State) FoldBalance() Balance {
	b := Balance{Lifetime: s.TrimmedDelta, Available: s.TrimmedDelta}
	for _, e := range s.Ledger {
		b.Lifetime += e.Delta
		b.Available += e.Delta
	}
	return b
}

// Day formats t as the calendar-day key used by the daily counter and streak.
func Day(t time.Time) string {
	return t.Format(time.DateOnly)
}
