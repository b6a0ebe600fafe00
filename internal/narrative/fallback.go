package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// Fallback builds a deterministic insight directly from the computed stats.
// Same inputs always yield the same text, which keeps the pipeline testable
// without a live text-generation service.
func Fallback(prompt contracts.NarrativePrompt) models.Insight {
	intel := prompt.Intel
	sig := prompt.Signals

	favored := intel.PredictedOutcome()
	favoredName := sideName(favored, prompt.HomeTeam, prompt.AwayTeam)
	prob, _ := intel.ModelProbability.Get(favored)

	var b strings.Builder
	fmt.Fprintf(&b, "%s are favored at %.0f%% model probability.", favoredName, prob*100)

	if sig.Form.Lean != models.LeanEven {
		fmt.Fprintf(&b, " Recent form shows a %s edge for the %s side.",
			sig.Form.Label, sig.Form.Lean)
	}
	if sig.StrengthEdge.Lean != models.LeanEven {
		fmt.Fprintf(&b, " Season strength leans %s (%s).",
			sig.StrengthEdge.Lean, sig.StrengthEdge.Label)
	}
	if intel.ValueEdge.Strength != models.EdgeNone {
		fmt.Fprintf(&b, " The market underprices the %s side by %.1f points (%s edge).",
			intel.ValueEdge.Outcome, intel.ValueEdge.EdgePercent, intel.ValueEdge.Strength)
	} else {
		b.WriteString(" The model broadly agrees with the market price.")
	}

	return models.Insight{
		Favored:     favored,
		Confidence:  sig.Confidence,
		Narrative:   b.String(),
		RiskFactors: riskFactors(prompt),
		Fallback:    true,
	}
}

func riskFactors(prompt contracts.NarrativePrompt) []string {
	var risks []string
	sig := prompt.Signals

	if sig.Confidence == models.ConfidenceLow {
		risks = append(risks, "low data clarity behind the signals")
	}
	if sig.Availability.HomeImpact == models.ImpactHigh || sig.Availability.HomeImpact == models.ImpactCritical {
		risks = append(risks, fmt.Sprintf("%s squad heavily depleted", prompt.HomeTeam))
	}
	if sig.Availability.AwayImpact == models.ImpactHigh || sig.Availability.AwayImpact == models.ImpactCritical {
		risks = append(risks, fmt.Sprintf("%s squad heavily depleted", prompt.AwayTeam))
	}
	if prompt.Intel.LineMovement != nil && prompt.Intel.LineMovement.SteamMove {
		risks = append(risks, "sharp line movement against the closing price")
	}
	if prompt.Intel.MarginPercent > 8 {
		risks = append(risks, "heavy bookmaker margin in this market")
	}

	return risks
}

func sideName(o models.Outcome, home, away string) string {
	switch o {
	case models.OutcomeHome:
		return home
	case models.OutcomeAway:
		return away
	default:
		return "Neither side (draw)"
	}
}

// StaticOracle is a fixture-driven oracle for tests: it returns a canned
// insight or error without any external call.
type StaticOracle struct {
	Insight *models.Insight
	Raw     []byte // when set, parsed as an untrusted payload
	Err     error
	HasDraw bool
}

// Generate implements contracts.NarrativeOracle
func (s *StaticOracle) Generate(_ context.Context, _ contracts.NarrativePrompt) (*models.Insight, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Raw != nil {
		return ParseInsight(s.Raw, s.HasDraw)
	}
	return s.Insight, nil
}
