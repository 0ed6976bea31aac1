package formula

import (
	"testing"

	"fantasy-value-lab/internal/domain"
)

func TestStarterMultiplier_CategoricalLookup(t *testing.T) {
	p := domain.DefaultParameterSet()

	tests := []struct {
		status domain.StarterStatus
		want   float64
	}{
		{domain.StarterConfirmed, 1.0},
		{domain.StarterRotation, p.RotationPenalty},
		{domain.StarterBench, p.BenchPenalty},
		{domain.StarterOut, 0.0},
		{domain.StarterUnknown, p.RotationPenalty}, // never silently assume starter
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			s := &domain.RawSnapshot{StarterStatus: tt.status}
			if got := starterMultiplier(s, p); got != tt.want {
				t.Errorf("status %s: expected %.2f, got %.2f", tt.status, tt.want, got)
			}
		})
	}
}

func TestStarterMultiplier_OverrideWins(t *testing.T) {
	p := domain.DefaultParameterSet()

	// Imported data says starter, a manual override rules the player out.
	s := &domain.RawSnapshot{
		StarterStatus:   domain.StarterConfirmed,
		StarterOverride: ptr(domain.StarterOut),
	}
	if got := starterMultiplier(s, p); got != 0.0 {
		t.Errorf("override must take precedence, got %.2f", got)
	}

	// And the reverse: override promotes a benched player.
	s = &domain.RawSnapshot{
		StarterStatus:   domain.StarterBench,
		StarterOverride: ptr(domain.StarterConfirmed),
	}
	if got := starterMultiplier(s, p); got != 1.0 {
		t.Errorf("override must take precedence, got %.2f", got)
	}
}

func TestStarterMultiplier_NilSnapshotDefaultsToRotation(t *testing.T) {
	p := domain.DefaultParameterSet()
	if got := starterMultiplier(nil, p); got != p.RotationPenalty {
		t.Errorf("absent signal must default to rotation penalty, got %.2f", got)
	}
}
