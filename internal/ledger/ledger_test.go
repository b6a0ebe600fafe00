package ledger

import (
	"testing"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

func TestPredictionIDDeterministic(t *testing.T) {
	a := PredictionID("soccer", "match-001", "2026-08-31")
	b := PredictionID("soccer", "match-001", "2026-08-31")

	if a != b {
		t.Errorf("same inputs produced different IDs: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("ID length = %d, want 32 hex chars", len(a))
	}
}

func TestPredictionIDDistinct(t *testing.T) {
	base := PredictionID("soccer", "match-001", "2026-08-31")

	tests := []struct {
		name string
		id   string
	}{
		{name: "Different sport", id: PredictionID("hockey", "match-001", "2026-08-31")},
		{name: "Different match", id: PredictionID("soccer", "match-002", "2026-08-31")},
		{name: "Different date", id: PredictionID("soccer", "match-001", "2026-09-01")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.id == base {
				t.Errorf("ID collides with base: %s", tt.id)
			}
		})
	}
}

func TestPredictionIDNoDelimiterCollision(t *testing.T) {
	// The separator keeps ("ab","c") and ("a","bc") apart
	a := PredictionID("soccer", "ab", "2026-08-31")
	b := PredictionID("soccerab", "", "2026-08-31")

	if a == b {
		t.Error("field boundaries collapsed in the ID derivation")
	}
}

func TestAlertLevelsAtOrAbove(t *testing.T) {
	tests := []struct {
		name string
		min  models.AlertLevel
		want int
	}{
		{name: "High only", min: models.AlertHigh, want: 1},
		{name: "Medium and above", min: models.AlertMedium, want: 2},
		{name: "Low and above", min: models.AlertLow, want: 3},
		{name: "No filter", min: models.AlertNone, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := alertLevelsAtOrAbove(tt.min)
			if len(got) != tt.want {
				t.Errorf("levels = %v, want %d entries", got, tt.want)
			}
			for _, l := range got {
				if tt.min == models.AlertHigh && l != models.AlertHigh {
					t.Errorf("unexpected level %v in high-only filter", l)
				}
			}
		})
	}
}

func TestNullHelpers(t *testing.T) {
	if nullOutcome(nil).Valid {
		t.Error("nil outcome should scan as NULL")
	}
	out := models.OutcomeAway
	no := nullOutcome(&out)
	if !no.Valid || no.String != "away" {
		t.Errorf("nullOutcome = %+v, want valid 'away'", no)
	}

	if nullFloat(nil).Valid {
		t.Error("nil float should scan as NULL")
	}
	f := 2.45
	nf := nullFloat(&f)
	if !nf.Valid || nf.Float64 != 2.45 {
		t.Errorf("nullFloat = %+v, want valid 2.45", nf)
	}
}
