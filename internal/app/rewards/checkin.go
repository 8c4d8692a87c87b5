package rewards

import (
	"fmt"
	"time"

	"github.com/glowcircle/glow/internal/domain"
	"github.com/glowcircle/glow/internal/infra/observability"
)

// ─── Daily Check-In & Streak ────────────────────────────────────────────────

// CheckIn records today's check-in: +1 reversible point, streak increment,
// and a +2 non-reversible bonus at each multiple of seven consecutive days.
// The check-in event and any bonus commit as one snapshot save.
func (e *Engine) CheckIn() (domain.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if res := validate(e.state, domain.ReasonDailyCheckIn, domain.EventMeta{}, now); !res.OK {
		observability.RejectionsTotal.WithLabelValues(string(domain.ReasonDailyCheckIn)).Inc()
		return res, nil
	}

	st := e.state.Clone()
	before := e.state

	days := nextStreakDays(st.Streak, now)
	st.Streak = domain.StreakState{Days: days, LastDate: domain.Day(now)}

	ev := e.appendEvent(st, domain.PointsCheckIn, domain.ReasonDailyCheckIn,
		domain.EventMeta{StreakDays: days}, true, "")

	var granted []string
	bonus := false
	if days%domain.StreakBonusEvery == 0 {
		key := streakGrantKey(days)
		if !st.Grants[key] {
			st.Grants[key] = true
			e.appendEvent(st, domain.PointsStreakBonus, domain.ReasonSevenDayStreak,
				domain.EventMeta{StreakDays: days}, false, "")
			granted = append(granted, key)
			bonus = true
		}
	}

	pings := e.notices(before, st, granted)
	if err := e.commit(st); err != nil {
		return domain.Result{}, err
	}
	observability.AppendsTotal.WithLabelValues(string(domain.ReasonDailyCheckIn)).Inc()
	if bonus {
		observability.AppendsTotal.WithLabelValues(string(domain.ReasonSevenDayStreak)).Inc()
	}
	e.hub.Broadcast(pings...)

	msg := fmt.Sprintf("checked in: streak %d day(s)", days)
	if bonus {
		msg += fmt.Sprintf(", +%d streak bonus", domain.PointsStreakBonus)
	}
	return domain.Result{
		OK:      true,
		Message: msg,
		EventID: ev.ID,
		Balance: domain.Balance{Lifetime: st.Lifetime, Available: st.Available},
	}, nil
}

// UndoCheckIn reverses today's check-in and rolls back the streak increment.
// If the undone check-in had just earned a multiple-of-seven bonus, the bonus
// is rolled back with it and its grant flag cleared, so re-earning the streak
// later pays it again. The reversal and the side-state rollback commit
// atomically.
func (e *Engine) UndoCheckIn() (domain.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	today := domain.Day(now)

	ev, ok := findReversible(e.state, domain.ReasonDailyCheckIn, func(ev domain.Event) bool {
		return domain.Day(ev.Timestamp) == today
	})
	if !ok {
		return domain.Rejected("no check-in to undo today"), nil
	}

	st := e.state.Clone()
	rev := e.appendEvent(st, -ev.Delta, ev.Reason.Reversed(), ev.Meta, false, ev.ID)

	// Streak rollback: the undone check-in carried its streak count.
	days := ev.Meta.StreakDays
	if days <= 1 {
		st.Streak = domain.StreakState{}
	} else {
		st.Streak = domain.StreakState{
			Days:     days - 1,
			LastDate: domain.Day(now.AddDate(0, 0, -1)),
		}
	}

	// Coupled bonus rollback.
	if days > 0 && days%domain.StreakBonusEvery == 0 {
		key := streakGrantKey(days)
		if st.Grants[key] {
			if bev, found := findStreakBonus(st, days, today); found {
				e.appendEvent(st, -bev.Delta, bev.Reason.Reversed(), bev.Meta, false, bev.ID)
				delete(st.Grants, key)
			}
		}
	}

	if err := e.commit(st); err != nil {
		return domain.Result{}, err
	}
	observability.ReversalsTotal.WithLabelValues(string(ev.Reason)).Inc()

	return domain.Result{
		OK:      true,
		Message: fmt.Sprintf("check-in undone: streak %d day(s)", st.Streak.Days),
		EventID: rev.ID,
		Balance: domain.Balance{Lifetime: st.Lifetime, Available: st.Available},
	}, nil
}

// ─── Streak Helpers ─────────────────────────────────────────────────────────

// nextStreakDays computes the streak count a check-in at now would carry.
// A gap of more than one day breaks the streak: the re-establishing check-in
// is day one.
func nextStreakDays(s domain.StreakState, now time.Time) int {
	if s.Days > 0 && s.LastDate == domain.Day(now.AddDate(0, 0, -1)) {
		return s.Days + 1
	}
	return 1
}

// findStreakBonus locates today's streak-bonus event for the given day count,
// skipping any that were already compensated.
func findStreakBonus(st *domain.State, days int, today string) (domain.Event, bool) {
	for i := len(st.Ledger) - 1; i >= 0; i-- {
		ev := st.Ledger[i]
		if ev.Reason != domain.ReasonSevenDayStreak || ev.Meta.StreakDays != days {
			continue
		}
		if domain.Day(ev.Timestamp) != today || isReversed(st, ev.ID) {
			continue
		}
		return ev, true
	}
	return domain.Event{}, false
}
