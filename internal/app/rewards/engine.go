// Package rewards implements the points ledger and rewards engine: an
// append-only event ledger, once-only grant registry, daily caps, check-in
// streaks, and reversible actions.
//
// The engine is single-writer: one logical session issues actions one at a
// time, and every operation holds the engine mutex for its full span so the
// validator's cap and duplicate checks and the subsequent append form one
// critical section. Balance figures change only by appending events.
package rewards

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glowcircle/glow/internal/domain"
	"github.com/glowcircle/glow/internal/infra/observability"
)

// ─── Engine ─────────────────────────────────────────────────────────────────

// Engine owns the ledger and all derived counters. External callers never
// mutate them directly, only through the documented operations.
type Engine struct {
	mu    sync.Mutex
	state *domain.State
	store domain.StateStore
	hub   *NoticeHub

	// Injectable clock for testing.
	now func() time.Time

	// Injectable ID generator for testing.
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the engine clock (deterministic tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the event ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// NewEngine loads the persisted record from store and returns a ready engine.
func NewEngine(store domain.StateStore, opts ...Option) (*Engine, error) {
	st, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load engine state: %w", err)
	}
	if st == nil {
		st = domain.NewState()
	}
	if st.Grants == nil {
		st.Grants = make(map[string]bool)
	}
	if st.Notified == nil {
		st.Notified = make(map[string]bool)
	}

	e := &Engine{
		state: st,
		store: store,
		hub:   NewNoticeHub(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	observability.BalanceAvailable.Set(float64(st.Available))
	observability.StreakDays.Set(float64(st.Streak.Days))
	return e, nil
}

// Hub returns the notice hub for subscribers (UI layer, SSE feed).
func (e *Engine) Hub() *NoticeHub { return e.hub }

// ─── Commit ─────────────────────────────────────────────────────────────────

// commit persists the mutated record and swaps it in. On save failure the
// in-memory state is left exactly as it was before the call and the error
// propagates; retry and backoff belong to the caller's layer.
func (e *Engine) commit(st *domain.State) error {
	if err := e.store.Save(st); err != nil {
		observability.SaveFailures.Inc()
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	e.state = st
	observability.BalanceAvailable.Set(float64(st.Available))
	observability.StreakDays.Set(float64(st.Streak.Days))
	return nil
}

// appendEvent writes one event into the working record and updates the cached
// totals. Retention trimming never drops an event that could still be the
// target of a reversal; the tail is extended instead.
func (e *Engine) appendEvent(st *domain.State, delta int64, reason domain.Reason, meta domain.EventMeta, reversible bool, relatedID string) domain.Event {
	ev := domain.Event{
		ID:         e.newID(),
		Timestamp:  e.now(),
		Delta:      delta,
		Reason:     reason,
		Meta:       meta,
		Reversible: reversible,
		RelatedID:  relatedID,
	}
	st.Ledger = append(st.Ledger, ev)
	st.Lifetime += delta
	st.Available += delta

	for len(st.Ledger) > domain.LedgerRetention {
		head := st.Ledger[0]
		if head.Reversible && !isReversed(st, head.ID) {
			break
		}
		st.TrimmedDelta += head.Delta
		st.Ledger = st.Ledger[1:]
	}
	return ev
}

// notices inspects a commit-ready record and marks any achievement pings that
// should fire. Returned notices are broadcast only after the save succeeds.
func (e *Engine) notices(before, after *domain.State, granted []string) []domain.Notice {
	var out []domain.Notice

	if before.Lifetime == 0 && after.Lifetime > 0 && !after.Notified[domain.NoticeFirstPoint] {
		after.Notified[domain.NoticeFirstPoint] = true
		out = append(out, domain.Notice{
			Kind:    domain.NoticeFirstPoint,
			Message: "first point earned",
			Balance: after.Available,
		})
	}
	for _, key := range granted {
		if key == grantSignup && !after.Notified[domain.NoticeSignupBonus] {
			after.Notified[domain.NoticeSignupBonus] = true
			out = append(out, domain.Notice{
				Kind:    domain.NoticeSignupBonus,
				Message: "signup bonus awarded",
				Balance: after.Available,
			})
		}
	}
	return out
}

// ─── Queries ────────────────────────────────────────────────────────────────

// Balance returns the cached totals. They always equal the ledger fold.
func (e *Engine) Balance() domain.Balance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.Balance{Lifetime: e.state.Lifetime, Available: e.state.Available}
}

// TotalLifetime returns the lifetime point total.
func (e *Engine) TotalLifetime() int64 { return e.Balance().Lifetime }

// TotalAvailable returns the spendable point total.
func (e *Engine) TotalAvailable() int64 { return e.Balance().Available }

// RecentEvents returns up to n most recent ledger events, newest first.
func (e *Engine) RecentEvents(n int) []domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	ledger := e.state.Ledger
	if n <= 0 || n > len(ledger) {
		n = len(ledger)
	}
	out := make([]domain.Event, n)
	for i := 0; i < n; i++ {
		out[i] = ledger[len(ledger)-1-i]
	}
	return out
}

// FindReversible returns the most recent event with the given reason that is
// reversible, not yet reversed, and accepted by matcher (nil matches all).
func (e *Engine) FindReversible(reason domain.Reason, matcher func(domain.Event) bool) (domain.Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return findReversible(e.state, reason, matcher)
}

// StreakDays returns the current consecutive check-in count.
func (e *Engine) StreakDays() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Streak.Days
}

// ReferralCount returns the lifetime rewarded referral count.
func (e *Engine) ReferralCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ReferralCount
}

// RemainingToday reports the routine-task points still grantable today.
func (e *Engine) RemainingToday() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return remainingToday(e.state, e.now())
}

// ─── Generic Earn ───────────────────────────────────────────────────────────

// Earn validates and appends a single point-affecting event. It is the open
// entry point for action kinds without dedicated wrappers; capped or
// duplicate-sensitive reasons are enforced by the validator. relatedID may
// back-reference a prior event and is normally empty.
func (e *Engine) Earn(delta int64, reason domain.Reason, meta domain.EventMeta, reversible bool, relatedID string) (domain.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if res := validate(e.state, reason, meta, e.now()); !res.OK {
		observability.RejectionsTotal.WithLabelValues(string(reason)).Inc()
		return res, nil
	}

	st := e.state.Clone()
	before := e.state
	ev := e.appendEvent(st, delta, reason, meta, reversible, relatedID)
	pings := e.notices(before, st, nil)

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

// ─── Reset ──────────────────────────────────────────────────────────────────

// ResetAll wipes the ledger, grants, counters, and streak. Dev/test only;
// this is the one path that discards history.
func (e *Engine) ResetAll() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commit(domain.NewState())
}

// ─── Internal Lookups ───────────────────────────────────────────────────────

func isReversed(st *domain.State, eventID string) bool {
	for _, ev := range st.Ledger {
		if ev.RelatedID == eventID {
			return true
		}
	}
	return false
}

func findReversible(st *domain.State, reason domain.Reason, matcher func(domain.Event) bool) (domain.Event, bool) {
	for i := len(st.Ledger) - 1; i >= 0; i-- {
		ev := st.Ledger[i]
		if ev.Reason != reason || !ev.Reversible {
			continue
		}
		if matcher != nil && !matcher(ev) {
			continue
		}
		if isReversed(st, ev.ID) {
			continue
		}
		return ev, true
	}
	return domain.Event{}, false
}
