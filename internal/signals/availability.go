package signals

import (
	"strings"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// Positions whose loss hurts disproportionately, across sports
var highValuePositions = map[string]float64{
	"goalkeeper":  1.5,
	"quarterback": 1.5,
	"pitcher":     1.4,
	"goaltender":  1.5,
	"striker":     1.2,
	"center":      1.1,
}

// availabilitySignal maps injury/suspension counts and position importance
// to impact tiers, leaning toward the less-damaged side. Raw lists are
// kept on the signal for display; they never feed other signals.
func availabilitySignal(input models.RawMatchInput, penalize func(float64, string)) models.AvailabilitySignal {
	// nil means the source never answered; an empty list is a real answer
	if input.HomeAbsences == nil && input.AwayAbsences == nil {
		penalize(penaltyNoAbsences, "absences")
		return models.AvailabilitySignal{
			SubSignal:  models.SubSignal{Label: "unavailable", Lean: models.LeanEven},
			HomeImpact: models.ImpactLow,
			AwayImpact: models.ImpactLow,
		}
	}

	homeScore := absenceImpact(input.HomeAbsences)
	awayScore := absenceImpact(input.AwayAbsences)

	// A heavier absence burden leans the signal toward the opponent
	diff := awayScore - homeScore
	lean := models.LeanEven
	if diff > 0.5 {
		lean = models.LeanHome
	} else if diff < -0.5 {
		lean = models.LeanAway
	}

	homeTier := impactTier(homeScore)
	awayTier := impactTier(awayScore)

	label := "healthy"
	if homeTier != models.ImpactLow || awayTier != models.ImpactLow {
		label = "depleted"
	}

	return models.AvailabilitySignal{
		SubSignal: models.SubSignal{
			Label:     label,
			Lean:      lean,
			Magnitude: round1(clamp(absAbs(diff)*15, 0, 100)),
		},
		HomeImpact:   homeTier,
		AwayImpact:   awayTier,
		HomeAbsences: input.HomeAbsences,
		AwayAbsences: input.AwayAbsences,
	}
}

// absenceImpact scores a team's absence list: status severity times
// positional importance, doubled for designated key players
func absenceImpact(absences []models.Absence) float64 {
	score := 0.0
	for _, a := range absences {
		severity := 1.0
		if a.Status == models.AbsenceDoubtful {
			severity = 0.5
		}

		weight := 1.0
		if w, ok := highValuePositions[strings.ToLower(a.Position)]; ok {
			weight = w
		}
		if a.KeyPlayer {
			weight *= 2.0
		}

		score += severity * weight
	}
	return score
}

func impactTier(score float64) models.ImpactTier {
	switch {
	case score >= 5.0:
		return models.ImpactCritical
	case score >= 3.0:
		return models.ImpactHigh
	case score >= 1.5:
		return models.ImpactMedium
	default:
		return models.ImpactLow
	}
}

func absAbs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
