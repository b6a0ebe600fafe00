package narrative_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/narrative"
	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

func testPrompt() contracts.NarrativePrompt {
	return contracts.NarrativePrompt{
		SportKey: "soccer",
		League:   "epl",
		HomeTeam: "Arsenal",
		AwayTeam: "Fulham",
		Signals: models.UniversalSignals{
			Form:         models.SubSignal{Label: "clear", Lean: models.LeanHome, Magnitude: 30},
			StrengthEdge: models.SubSignal{Label: "solid", Lean: models.LeanHome, Magnitude: 25},
			ClarityScore: 85,
			Confidence:   models.ConfidenceHigh,
		},
		Intel: models.MarketIntel{
			SportKey: "soccer",
			League:   "epl",
			HasDraw:  true,
			ModelProbability: models.OutcomeSet{
				Home: 0.58, Away: 0.18, Draw: func() *float64 { d := 0.24; return &d }(),
			},
			ValueEdge: models.ValueEdge{
				Outcome:     models.OutcomeHome,
				Strength:    models.EdgeModerate,
				EdgePercent: 5.5,
			},
		},
	}
}

func TestFallbackDeterministic(t *testing.T) {
	a := narrative.Fallback(testPrompt())
	b := narrative.Fallback(testPrompt())

	if a.Narrative != b.Narrative {
		t.Error("identical prompts produced different narratives")
	}
	if a.Favored != b.Favored || a.Confidence != b.Confidence {
		t.Error("identical prompts produced different insight fields")
	}
}

func TestFallbackContent(t *testing.T) {
	insight := narrative.Fallback(testPrompt())

	if !insight.Fallback {
		t.Error("fallback insight not marked as fallback")
	}
	if insight.Favored != models.OutcomeHome {
		t.Errorf("favored = %v, want home", insight.Favored)
	}
	if insight.Confidence != models.ConfidenceHigh {
		t.Errorf("confidence = %v, want high", insight.Confidence)
	}
	if !strings.Contains(insight.Narrative, "Arsenal") {
		t.Errorf("narrative does not name the favored team: %q", insight.Narrative)
	}
	if err := narrative.Validate(&insight, true); err != nil {
		t.Errorf("fallback insight fails its own contract: %v", err)
	}
}

func TestFallbackRiskFactors(t *testing.T) {
	prompt := testPrompt()
	prompt.Signals.Confidence = models.ConfidenceLow
	prompt.Signals.Availability.AwayImpact = models.ImpactCritical
	prompt.Intel.MarginPercent = 9.5
	prompt.Intel.LineMovement = &models.LineMovement{
		Outcome: models.OutcomeHome, Direction: models.MovementShortening,
		Magnitude: 0.12, SteamMove: true,
	}

	insight := narrative.Fallback(prompt)

	if len(insight.RiskFactors) != 4 {
		t.Fatalf("risk factors = %v, want 4 entries", insight.RiskFactors)
	}

	joined := strings.Join(insight.RiskFactors, "; ")
	for _, want := range []string{"clarity", "Fulham", "line movement", "margin"} {
		if !strings.Contains(joined, want) {
			t.Errorf("risk factors %q missing %q", joined, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		insight    *models.Insight
		hasDraw    bool
		shouldFail bool
	}{
		{
			name: "Valid home insight",
			insight: &models.Insight{
				Favored: models.OutcomeHome, Confidence: models.ConfidenceHigh, Narrative: "ok",
			},
		},
		{
			name: "Draw favored in three-way market",
			insight: &models.Insight{
				Favored: models.OutcomeDraw, Confidence: models.ConfidenceLow, Narrative: "ok",
			},
			hasDraw: true,
		},
		{
			name: "Draw favored in two-way market",
			insight: &models.Insight{
				Favored: models.OutcomeDraw, Confidence: models.ConfidenceLow, Narrative: "ok",
			},
			shouldFail: true,
		},
		{
			name: "Unknown favored side",
			insight: &models.Insight{
				Favored: "both", Confidence: models.ConfidenceLow, Narrative: "ok",
			},
			shouldFail: true,
		},
		{
			name: "Unknown confidence tier",
			insight: &models.Insight{
				Favored: models.OutcomeHome, Confidence: "certain", Narrative: "ok",
			},
			shouldFail: true,
		},
		{
			name: "Empty narrative",
			insight: &models.Insight{
				Favored: models.OutcomeHome, Confidence: models.ConfidenceHigh, Narrative: "  ",
			},
			shouldFail: true,
		},
		{
			name:       "Nil insight",
			shouldFail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := narrative.Validate(tt.insight, tt.hasDraw)
			if tt.shouldFail {
				if !errors.Is(err, models.ErrNarrativeUnavailable) {
					t.Errorf("error = %v, want ErrNarrativeUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseInsight(t *testing.T) {
	valid := []byte(`{"favored":"home","confidence":"medium","narrative":"Home side should edge it."}`)
	insight, err := narrative.ParseInsight(valid, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if insight.Favored != models.OutcomeHome || insight.Confidence != models.ConfidenceMedium {
		t.Errorf("parsed insight = %+v", insight)
	}

	if _, err := narrative.ParseInsight([]byte(`{"favored":`), true); !errors.Is(err, models.ErrNarrativeUnavailable) {
		t.Errorf("malformed JSON error = %v, want ErrNarrativeUnavailable", err)
	}
	if _, err := narrative.ParseInsight([]byte(`{"favored":"draw","confidence":"low","narrative":"x"}`), false); err == nil {
		t.Error("expected error for draw in a two-way market")
	}
}

func TestServiceFallbackPaths(t *testing.T) {
	prompt := testPrompt()
	ctx := context.Background()

	tests := []struct {
		name         string
		oracle       contracts.NarrativeOracle
		wantFallback bool
	}{
		{
			name:         "Nil oracle",
			oracle:       nil,
			wantFallback: true,
		},
		{
			name:         "Oracle error",
			oracle:       &narrative.StaticOracle{Err: errors.New("timeout")},
			wantFallback: true,
		},
		{
			name: "Oracle returns invalid insight",
			oracle: &narrative.StaticOracle{
				Insight: &models.Insight{Favored: "both", Confidence: "low", Narrative: "x"},
			},
			wantFallback: true,
		},
		{
			name: "Oracle returns malformed payload",
			oracle: &narrative.StaticOracle{
				Raw: []byte("not json at all"), HasDraw: true,
			},
			wantFallback: true,
		},
		{
			name: "Oracle returns valid insight",
			oracle: &narrative.StaticOracle{
				Insight: &models.Insight{
					Favored:    models.OutcomeHome,
					Confidence: models.ConfidenceMedium,
					Narrative:  "Arsenal at home is the play.",
				},
			},
			wantFallback: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := narrative.NewService(tt.oracle)
			insight := svc.Insight(ctx, prompt)

			if insight.Fallback != tt.wantFallback {
				t.Errorf("fallback = %v, want %v", insight.Fallback, tt.wantFallback)
			}
			if err := narrative.Validate(&insight, true); err != nil {
				t.Errorf("service returned invalid insight: %v", err)
			}
		})
	}
}
