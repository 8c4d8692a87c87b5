package rewards

import (
	"testing"
	"time"

	"github.com/glowcircle/glow/internal/domain"
)

// ─── Rate Limiting ──────────────────────────────────────────────────────────

func TestValidate_RateLimitRejectsSixthInWindow(t *testing.T) {
	e, _, clk := newTestEngine(t)

	// Five distinct earns inside one second pass.
	for i := 0; i < domain.RateLimitMax; i++ {
		res, err := e.Earn(1, "admin_adjust", domain.EventMeta{}, false, "")
		if err != nil {
			t.Fatalf("Earn() #%d error = %v", i+1, err)
		}
		if !res.OK {
			t.Fatalf("Earn() #%d rejected: %s", i+1, res.Message)
		}
		clk.Advance(100 * time.Millisecond)
	}

	// The sixth inside the trailing window is rejected with no balance change.
	res, err := e.Earn(1, "admin_adjust", domain.EventMeta{}, false, "")
	if err != nil {
		t.Fatalf("Earn() #6 error = %v", err)
	}
	if res.OK {
		t.Fatal("Earn() #6 inside rate window: OK = true, want rejection")
	}
	if res.Message != msgRateLimited {
		t.Errorf("message = %q, want %q", res.Message, msgRateLimited)
	}
	if got := e.TotalAvailable(); got != 5 {
		t.Errorf("balance after rejected earn = %d, want 5", got)
	}
	assertFold(t, e)

	// After the window elapses, calls succeed again.
	clk.Advance(domain.RateLimitWindow)
	res, err = e.Earn(1, "admin_adjust", domain.EventMeta{}, false, "")
	if err != nil {
		t.Fatalf("Earn() after window error = %v", err)
	}
	if !res.OK {
		t.Errorf("Earn() after window rejected: %s", res.Message)
	}
}

// ─── Duplicate Check-In ─────────────────────────────────────────────────────

func TestValidate_SecondCheckInSameDayRejected(t *testing.T) {
	e, _, clk := newTestEngine(t)

	if res, err := e.CheckIn(); err != nil || !res.OK {
		t.Fatalf("CheckIn() = (%+v, %v)", res, err)
	}
	clk.Advance(2 * time.Hour)

	res, err := e.CheckIn()
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if res.OK {
		t.Fatal("second CheckIn() same day: OK = true, want rejection")
	}
	if res.Message != msgAlreadyChecked {
		t.Errorf("message = %q, want %q", res.Message, msgAlreadyChecked)
	}
	if got := e.TotalAvailable(); got != 1 {
		t.Errorf("balance = %d, want 1", got)
	}
}

// ─── Post Engagement Guard ──────────────────────────────────────────────────

func TestValidate_DuplicateEngagementPerPostRejected(t *testing.T) {
	e, _, clk := newTestEngine(t)
	meta := domain.EventMeta{PostID: "post-42"}

	res, err := e.Earn(domain.PointsPostLikes, domain.ReasonPostLikes, meta, false, "")
	if err != nil || !res.OK {
		t.Fatalf("first engagement = (%+v, %v)", res, err)
	}
	clk.Advance(1100 * time.Millisecond)

	res, err = e.Earn(domain.PointsPostLikes, domain.ReasonPostLikes, meta, false, "")
	if err != nil {
		t.Fatalf("Earn() error = %v", err)
	}
	if res.OK {
		t.Fatal("duplicate engagement for same post: OK = true, want rejection")
	}
	if got := e.TotalAvailable(); got != domain.PointsPostLikes {
		t.Errorf("balance = %d, want %d (first reward only)", got, domain.PointsPostLikes)
	}

	// A different reason for the same post is its own idempotency key.
	res, err = e.Earn(domain.PointsPostComment, domain.ReasonPostComments, meta, false, "")
	if err != nil || !res.OK {
		t.Errorf("comments reward for same post = (%+v, %v), want OK", res, err)
	}

	// A different post passes.
	clk.Advance(1100 * time.Millisecond)
	res, err = e.Earn(domain.PointsPostLikes, domain.ReasonPostLikes, domain.EventMeta{PostID: "post-43"}, false, "")
	if err != nil || !res.OK {
		t.Errorf("likes reward for new post = (%+v, %v), want OK", res, err)
	}
}

// ─── Referral Ceiling ───────────────────────────────────────────────────────

func TestValidate_ReferralCeiling(t *testing.T) {
	e, _, clk := newTestEngine(t)

	for i := 0; i < domain.ReferralCeiling; i++ {
		res, err := e.AddReferral()
		if err != nil {
			t.Fatalf("AddReferral() #%d error = %v", i+1, err)
		}
		if !res.OK {
			t.Fatalf("AddReferral() #%d rejected: %s", i+1, res.Message)
		}
		clk.Advance(1100 * time.Millisecond)
	}

	res, err := e.AddReferral()
	if err != nil {
		t.Fatalf("AddReferral() #21 error = %v", err)
	}
	if res.OK {
		t.Fatal("21st AddReferral(): OK = true, want rejection")
	}
	if res.Message != msgReferralCap {
		t.Errorf("message = %q, want %q", res.Message, msgReferralCap)
	}

	want := int64(domain.ReferralCeiling) * domain.PointsReferral
	if got := e.TotalAvailable(); got != want {
		t.Errorf("balance = %d, want %d (20 referrals × %d)", got, want, domain.PointsReferral)
	}
	if got := e.ReferralCount(); got != domain.ReferralCeiling {
		t.Errorf("ReferralCount() = %d, want %d", got, domain.ReferralCeiling)
	}
	assertFold(t, e)
}

// ─── Rule Ordering ──────────────────────────────────────────────────────────

func TestValidate_RateLimitRunsBeforeReasonGuards(t *testing.T) {
	e, _, clk := newTestEngine(t)

	if res, err := e.CheckIn(); err != nil || !res.OK {
		t.Fatalf("CheckIn() = (%+v, %v)", res, err)
	}
	// Fill the rest of the rate window: the check-in itself counts too.
	for i := 0; i < domain.RateLimitMax-1; i++ {
		if res, err := e.Earn(1, "admin_adjust", domain.EventMeta{}, false, ""); err != nil || !res.OK {
			t.Fatalf("Earn() #%d = (%+v, %v)", i+1, res, err)
		}
	}
	_ = clk

	// Already checked in AND rate-limited: rule 1 wins.
	res, err := e.CheckIn()
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if res.OK || res.Message != msgRateLimited {
		t.Errorf("result = (%v, %q), want rate-limit rejection first", res.OK, res.Message)
	}
}
