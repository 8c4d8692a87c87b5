package rewards

import (
	"fmt"
	"time"

	"github.com/glowcircle/glow/internal/domain"
	"github.com/glowcircle/glow/internal/infra/observability"
)

// ─── Routine Tasks & Daily Cap ──────────────────────────────────────────────

// CompleteRoutineTask awards a reversible point for finishing a routine task,
// bounded by the daily cap. The very first completed task ever also pays the
// once-only first-step bonus in the same transaction.
func (e *Engine) CompleteRoutineTask(taskID string) (domain.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	meta := domain.EventMeta{TaskID: taskID}
	if res := validate(e.state, domain.ReasonDailyRoutine, meta, now); !res.OK {
		observability.RejectionsTotal.WithLabelValues(string(domain.ReasonDailyRoutine)).Inc()
		return res, nil
	}

	st := e.state.Clone()
	before := e.state

	today := domain.Day(now)
	if st.Daily.Date != today {
		st.Daily = domain.DailyCounter{Date: today}
	}

	ev := e.appendEvent(st, domain.PointsRoutineTask, domain.ReasonDailyRoutine, meta, true, "")
	st.Daily.Points += domain.PointsRoutineTask

	var granted []string
	if !st.Grants[grantFirstStep] {
		st.Grants[grantFirstStep] = true
		e.appendEvent(st, domain.PointsFirstStep, domain.ReasonFirstStepBonus, domain.EventMeta{}, false, "")
		granted = append(granted, grantFirstStep)
	}

	pings := e.notices(before, st, granted)
	if err := e.commit(st); err != nil {
		return domain.Result{}, err
	}
	observability.AppendsTotal.WithLabelValues(string(domain.ReasonDailyRoutine)).Inc()
	e.hub.Broadcast(pings...)

	left := domain.DailyTaskCap - st.Daily.Points
	msg := fmt.Sprintf("task %s complete (+%d, %d point(s) left today)", taskID, domain.PointsRoutineTask, left)
	if len(granted) > 0 {
		msg += fmt.Sprintf(", +%d first step bonus", domain.PointsFirstStep)
	}
	return domain.Result{
		OK:      true,
		Message: msg,
		EventID: ev.ID,
		Balance: domain.Balance{Lifetime: st.Lifetime, Available: st.Available},
	}, nil
}

// UndoRoutineTask reverses today's most recent completion of the given task
// and hands the point back to the daily allowance. The reversal and the
// counter decrement commit atomically.
func (e *Engine) UndoRoutineTask(taskID string) (domain.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	today := domain.Day(now)

	ev, ok := findReversible(e.state, domain.ReasonDailyRoutine, func(ev domain.Event) bool {
		return ev.Meta.TaskID == taskID && domain.Day(ev.Timestamp) == today
	})
	if !ok {
		return domain.Rejected(fmt.Sprintf("no completion of task %s to undo today", taskID)), nil
	}

	st := e.state.Clone()
	rev := e.appendEvent(st, -ev.Delta, ev.Reason.Reversed(), ev.Meta, false, ev.ID)

	if st.Daily.Date == today && st.Daily.Points >= ev.Delta {
		st.Daily.Points -= ev.Delta
	}

	if err := e.commit(st); err != nil {
		return domain.Result{}, err
	}
	observability.ReversalsTotal.WithLabelValues(string(ev.Reason)).Inc()

	return domain.Result{
		OK:      true,
		Message: fmt.Sprintf("task %s undone (%d point(s) left today)", taskID, remainingToday(st, now)),
		EventID: rev.ID,
		Balance: domain.Balance{Lifetime: st.Lifetime, Available: st.Available},
	}, nil
}

// remainingToday computes today's remaining routine-task allowance. A stored
// date other than today means the counter implicitly resets to the full cap.
func remainingToday(st *domain.State, now time.Time) int64 {
	if st.Daily.Date != domain.Day(now) {
		return domain.DailyTaskCap
	}
	left := domain.DailyTaskCap - st.Daily.Points
	if left < 0 {
		return 0
	}
	return left
}
