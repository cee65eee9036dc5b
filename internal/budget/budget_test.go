package budget

import "testing"

func TestPolicy_InvalidStreakTerminates(t *testing.T) {
	p := NewPolicy(5)
	for i := 0; i < 4; i++ {
		if p.Observe(OutcomeInvalid) {
			t.Fatalf("terminated early at invalid attempt %d", i+1)
		}
	}
	if !p.Observe(OutcomeInvalid) {
		t.Error("expected termination on 5th consecutive invalid attempt")
	}
	if p.Streak(OutcomeInvalid) != 5 {
		t.Errorf("expected invalid streak 5, got %d", p.Streak(OutcomeInvalid))
	}
}

func TestPolicy_StreaksAreIndependent(t *testing.T) {
	p := NewPolicy(5)

	// 4 of each failure kind: no single streak reaches the cap.
	for i := 0; i < 4; i++ {
		if p.Observe(OutcomeInvalid) || p.Observe(OutcomeCollision) || p.Observe(OutcomeOversized) {
			t.Fatal("terminated with all streaks below the cap")
		}
	}
	if p.Attempts() != 12 {
		t.Errorf("expected 12 attempts, got %d", p.Attempts())
	}

	// The 5th collision tips only the collision streak.
	if !p.Observe(OutcomeCollision) {
		t.Error("expected termination on 5th collision")
	}
}

func TestPolicy_DuplicatePreviousNeverTerminates(t *testing.T) {
	p := NewPolicy(2)
	for i := 0; i < 20; i++ {
		if p.Observe(OutcomeDuplicatePrevious) {
			t.Fatal("previous-run duplicates must not gate termination")
		}
	}
	if p.Attempts() != 20 {
		t.Errorf("expected 20 attempts recorded, got %d", p.Attempts())
	}
}

func TestPolicy_ValidDoesNotCount(t *testing.T) {
	p := NewPolicy(1)
	if p.Observe(OutcomeValid) {
		t.Error("a valid outcome must never terminate generation")
	}
	if p.Streak(OutcomeInvalid)+p.Streak(OutcomeCollision)+p.Streak(OutcomeOversized) != 0 {
		t.Error("valid outcome must not touch failure streaks")
	}
}

func TestNewPolicy_DefaultCap(t *testing.T) {
	p := NewPolicy(0)
	if p.MaxFailStreak() != DefaultMaxFailStreak {
		t.Errorf("expected default cap %d, got %d", DefaultMaxFailStreak, p.MaxFailStreak())
	}
}
