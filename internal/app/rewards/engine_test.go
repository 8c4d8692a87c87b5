package rewards

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glowcircle/glow/internal/domain"
)

// ─── Test Fixtures ──────────────────────────────────────────────────────────

// memStore is an in-memory StateStore with a switchable failure mode.
type memStore struct {
	st       *domain.State
	saves    int
	failNext bool
}

func (m *memStore) Load() (*domain.State, error) {
	if m.st == nil {
		return domain.NewState(), nil
	}
	return m.st.Clone(), nil
}

func (m *memStore) Save(st *domain.State) error {
	if m.failNext {
		m.failNext = false
		return errors.New("disk full")
	}
	m.st = st.Clone()
	m.saves++
	return nil
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func (c *fakeClock) NextDay() { c.t = c.t.AddDate(0, 0, 1) }

func newTestEngine(t *testing.T) (*Engine, *memStore, *fakeClock) {
	t.Helper()
	ms := &memStore{}
	clk := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	n := 0
	e, err := NewEngine(ms,
		WithClock(clk.Now),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("ev-%d", n) }),
	)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e, ms, clk
}

// assertFold verifies the core consistency invariant: cached totals always
// equal the fold of the ledger.
func assertFold(t *testing.T, e *Engine) {
	t.Helper()
	b := e.state.FoldBalance()
	if e.state.Lifetime != b.Lifetime || e.state.Available != b.Available {
		t.Fatalf("cached totals (%d, %d) diverged from ledger fold (%d, %d)",
			e.state.Lifetime, e.state.Available, b.Lifetime, b.Available)
	}
}

// earnOK appends a passing event and advances past the rate-limit window.
func earnOK(t *testing.T, e *Engine, clk *fakeClock, delta int64, reason domain.Reason) domain.Result {
	t.Helper()
	res, err := e.Earn(delta, reason, domain.EventMeta{}, false, "")
	if err != nil {
		t.Fatalf("Earn(%d, %s) error = %v", delta, reason, err)
	}
	if !res.OK {
		t.Fatalf("Earn(%d, %s) rejected: %s", delta, reason, res.Message)
	}
	clk.Advance(1100 * time.Millisecond)
	assertFold(t, e)
	return res
}

// ─── Earn & Balance ─────────────────────────────────────────────────────────

func TestEarn_UpdatesBothTotals(t *testing.T) {
	e, _, clk := newTestEngine(t)

	earnOK(t, e, clk, 3, "admin_adjust")
	earnOK(t, e, clk, 2, "admin_adjust")

	b := e.Balance()
	if b.Lifetime != 5 {
		t.Errorf("TotalLifetime() = %d, want 5", b.Lifetime)
	}
	if b.Available != 5 {
		t.Errorf("TotalAvailable() = %d, want 5", b.Available)
	}
}

func TestEarn_SpendReducesBothTotals(t *testing.T) {
	e, _, clk := newTestEngine(t)

	earnOK(t, e, clk, 10, "admin_adjust")
	earnOK(t, e, clk, -4, "reward_redemption")

	b := e.Balance()
	if b.Lifetime != 6 || b.Available != 6 {
		t.Errorf("Balance() = (%d, %d), want (6, 6)", b.Lifetime, b.Available)
	}
}

func TestEarn_UnlistedReasonPassesValidator(t *testing.T) {
	e, _, _ := newTestEngine(t)

	res, err := e.Earn(1, "brand_new_action_kind", domain.EventMeta{}, false, "")
	if err != nil {
		t.Fatalf("Earn() error = %v", err)
	}
	if !res.OK {
		t.Errorf("unlisted reason rejected: %s", res.Message)
	}
}

// ─── Persistence Failure ────────────────────────────────────────────────────

func TestEarn_PersistenceFailureLeavesStateUntouched(t *testing.T) {
	e, ms, clk := newTestEngine(t)
	earnOK(t, e, clk, 5, "admin_adjust")

	ms.failNext = true
	_, err := e.Earn(3, "admin_adjust", domain.EventMeta{}, false, "")
	if err == nil {
		t.Fatal("Earn() with failing store: error = nil, want persistence error")
	}
	if !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("error = %v, want wrapped ErrPersistence", err)
	}

	b := e.Balance()
	if b.Available != 5 {
		t.Errorf("balance after failed save = %d, want 5 (unchanged)", b.Available)
	}
	if got := len(e.state.Ledger); got != 1 {
		t.Errorf("ledger length after failed save = %d, want 1", got)
	}
	assertFold(t, e)

	// The engine recovers once the store does.
	clk.Advance(1100 * time.Millisecond)
	earnOK(t, e, clk, 3, "admin_adjust")
	if got := e.TotalAvailable(); got != 8 {
		t.Errorf("balance after recovery = %d, want 8", got)
	}
}

func TestCheckIn_PersistenceFailureDropsFollowOnToo(t *testing.T) {
	e, ms, clk := newTestEngine(t)

	// Reach day 6 so the next check-in would pay the streak bonus.
	for i := 0; i < 6; i++ {
		if res, err := e.CheckIn(); err != nil || !res.OK {
			t.Fatalf("CheckIn() day %d = (%+v, %v)", i+1, res, err)
		}
		clk.NextDay()
	}

	ms.failNext = true
	if _, err := e.CheckIn(); err == nil {
		t.Fatal("CheckIn() with failing store: error = nil, want persistence error")
	}

	if got := e.StreakDays(); got != 6 {
		t.Errorf("StreakDays() after failed save = %d, want 6", got)
	}
	if got := e.TotalAvailable(); got != 6 {
		t.Errorf("balance after failed save = %d, want 6", got)
	}
	if e.state.Grants[streakGrantKey(7)] {
		t.Error("streak bonus grant flag set despite failed save")
	}
	assertFold(t, e)
}

// ─── Queries ────────────────────────────────────────────────────────────────

func TestRecentEvents_NewestFirst(t *testing.T) {
	e, _, clk := newTestEngine(t)

	earnOK(t, e, clk, 1, "a")
	earnOK(t, e, clk, 2, "b")
	earnOK(t, e, clk, 3, "c")

	events := e.RecentEvents(2)
	if len(events) != 2 {
		t.Fatalf("RecentEvents(2) returned %d events, want 2", len(events))
	}
	if events[0].Reason != "c" || events[1].Reason != "b" {
		t.Errorf("RecentEvents(2) order = [%s, %s], want [c, b]", events[0].Reason, events[1].Reason)
	}

	all := e.RecentEvents(0)
	if len(all) != 3 {
		t.Errorf("RecentEvents(0) returned %d events, want all 3", len(all))
	}
}

func TestFindReversible_SkipsReversedAndNonReversible(t *testing.T) {
	e, _, clk := newTestEngine(t)

	res, err := e.Earn(1, "daily_check_in", domain.EventMeta{}, true, "")
	if err != nil || !res.OK {
		t.Fatalf("Earn() = (%+v, %v)", res, err)
	}
	clk.Advance(1100 * time.Millisecond)

	ev, ok := e.FindReversible(domain.ReasonDailyCheckIn, nil)
	if !ok || ev.ID != res.EventID {
		t.Fatalf("FindReversible() = (%s, %v), want (%s, true)", ev.ID, ok, res.EventID)
	}

	if rres, err := e.Reverse(ev.ID); err != nil || !rres.OK {
		t.Fatalf("Reverse() = (%+v, %v)", rres, err)
	}

	if _, ok := e.FindReversible(domain.ReasonDailyCheckIn, nil); ok {
		t.Error("FindReversible() found an already-reversed event")
	}
}

// ─── Retention ──────────────────────────────────────────────────────────────

func TestRetention_CapsHistory(t *testing.T) {
	e, _, clk := newTestEngine(t)

	for i := 0; i < domain.LedgerRetention+30; i++ {
		earnOK(t, e, clk, 1, "admin_adjust")
	}

	if got := len(e.state.Ledger); got != domain.LedgerRetention {
		t.Errorf("ledger length = %d, want %d", got, domain.LedgerRetention)
	}
	// Trimmed deltas fold into the baseline, so totals survive the cap.
	if got := e.TotalLifetime(); got != int64(domain.LedgerRetention+30) {
		t.Errorf("TotalLifetime() = %d, want %d", got, domain.LedgerRetention+30)
	}
}

func TestRetention_KeepsStillReversibleTail(t *testing.T) {
	e, _, clk := newTestEngine(t)

	first, err := e.Earn(1, "daily_check_in", domain.EventMeta{}, true, "")
	if err != nil || !first.OK {
		t.Fatalf("Earn() = (%+v, %v)", first, err)
	}
	clk.Advance(1100 * time.Millisecond)

	for i := 0; i < domain.LedgerRetention+50; i++ {
		earnOK(t, e, clk, 1, "admin_adjust")
	}

	if got := len(e.state.Ledger); got != domain.LedgerRetention+51 {
		t.Errorf("ledger length = %d, want %d (tail extended)", got, domain.LedgerRetention+51)
	}
	if e.state.Ledger[0].ID != first.EventID {
		t.Errorf("oldest event = %s, want still-reversible %s", e.state.Ledger[0].ID, first.EventID)
	}
}

// ─── Reset ──────────────────────────────────────────────────────────────────

func TestResetAll_WipesEverything(t *testing.T) {
	e, _, clk := newTestEngine(t)

	if res, err := e.CheckIn(); err != nil || !res.OK {
		t.Fatalf("CheckIn() = (%+v, %v)", res, err)
	}
	clk.Advance(1100 * time.Millisecond)
	if res, err := e.GrantSignupBonus(); err != nil || !res.OK {
		t.Fatalf("GrantSignupBonus() = (%+v, %v)", res, err)
	}

	if err := e.ResetAll(); err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}

	if got := e.TotalAvailable(); got != 0 {
		t.Errorf("balance after reset = %d, want 0", got)
	}
	if got := e.StreakDays(); got != 0 {
		t.Errorf("StreakDays() after reset = %d, want 0", got)
	}
	if e.Granted(grantSignup) {
		t.Error("signup grant survived reset")
	}

	// Grants are live again after the reset.
	if res, err := e.GrantSignupBonus(); err != nil || !res.OK {
		t.Errorf("GrantSignupBonus() after reset = (%+v, %v), want granted", res, err)
	}
}

// ─── Reload ─────────────────────────────────────────────────────────────────

func TestNewEngine_ResumesFromStore(t *testing.T) {
	e, ms, clk := newTestEngine(t)
	earnOK(t, e, clk, 7, "admin_adjust")

	e2, err := NewEngine(ms, WithClock(clk.Now))
	if err != nil {
		t.Fatalf("NewEngine() reload error = %v", err)
	}
	if got := e2.TotalAvailable(); got != 7 {
		t.Errorf("reloaded balance = %d, want 7", got)
	}
	assertFold(t, e2)
}
