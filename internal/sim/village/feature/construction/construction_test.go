package construction

import "testing"

func TestDailyProgress(t *testing.T) {
	if got := DailyProgress(0, Rule{}); got != 1 {
		t.Fatalf("baseline progress should be 1, got %d", got)
	}
	if got := DailyProgress(3, Rule{}); got != 1 {
		t.Fatalf("builders without bonus should not change progress, got %d", got)
	}
	if got := DailyProgress(0, Rule{RequireBuilder: true}); got != 0 {
		t.Fatalf("expected stalled project, got %d", got)
	}
	if got := DailyProgress(2, Rule{RequireBuilder: true, BuilderBonus: 1}); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestDaysLeftAfter(t *testing.T) {
	if got := DaysLeftAfter(5, 1); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
	if got := DaysLeftAfter(1, 3); got != 0 {
		t.Fatalf("expected clamped 0, got %d", got)
	}
	if got := DaysLeftAfter(5, 0); got != 5 {
		t.Fatalf("no progress should keep days, got %d", got)
	}
}
