package spin

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPackages(t *testing.T) {
	want := map[int]string{10: "500", 25: "1000", 50: "1500"}
	pkgs := Packages()
	if len(pkgs) != len(want) {
		t.Fatalf("got %d packages, want %d", len(pkgs), len(want))
	}
	for _, p := range pkgs {
		cost, ok := want[p.Spins]
		if !ok {
			t.Errorf("unexpected package of %d spins", p.Spins)
			continue
		}
		if !p.Cost.Equal(decimal.RequireFromString(cost)) {
			t.Errorf("package %d: cost %s, want %s", p.Spins, p.Cost, cost)
		}
	}
}

func TestEffectiveFreeSpins(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	if got := effectiveFreeSpins(3, &today, 10, now); got != 3 {
		t.Errorf("same-day counter projected to %d, want 3", got)
	}
	if got := effectiveFreeSpins(0, &yesterday, 10, now); got != 10 {
		t.Errorf("stale counter projected to %d, want 10", got)
	}
	if got := effectiveFreeSpins(0, nil, 10, now); got != 10 {
		t.Errorf("never-reset counter projected to %d, want 10", got)
	}
}
