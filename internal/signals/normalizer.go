// Package signals converts raw per-sport match data into the five universal
// signals the edge calculator consumes. Normalization is a pure function:
// deterministic, no I/O, no hidden state. Missing inputs degrade the clarity
// score instead of being fabricated.
package signals

import (
	"fmt"
	"math"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/edge-engine/sports"
)

// Sub-metric sample-size floor: venue splits with fewer fixtures than this
// are omitted from the lean computation
const minSplitSample = 2

// Clarity penalties per missing input
const (
	penaltyNoForm     = 18.0
	penaltyNoRecord   = 25.0
	penaltyThinSplit  = 8.0
	penaltyNoH2H      = 10.0
	penaltyNoAbsences = 12.0
	penaltyNoBaseline = 5.0
)

// Normalize converts raw match input into universal signals using the
// sport's calibration profile. The returned gaps list names every input
// that was missing or too thin to use; each gap already lowered the
// clarity score.
func Normalize(input models.RawMatchInput, profile *sports.Profile) (models.UniversalSignals, []string) {
	clarity := 100.0
	var gaps []string

	penalize := func(amount float64, gap string) {
		clarity -= amount
		gaps = append(gaps, gap)
	}

	form := formSignal(input, penalize)
	strength := strengthSignal(input, penalize)
	tempo := tempoSignal(input, profile, penalize)
	efficiency := efficiencySignal(input, penalize)
	availability := availabilitySignal(input, penalize)

	if input.HeadToHead == nil {
		penalize(penaltyNoH2H, "head_to_head")
	}

	clarity = clamp(clarity, 0, 100)

	return models.UniversalSignals{
		Form:         form,
		StrengthEdge: strength,
		Tempo:        tempo,
		Efficiency:   efficiency,
		Availability: availability,
		ClarityScore: clarity,
		Confidence:   confidenceFor(clarity),
	}, gaps
}

// confidenceFor maps clarity to a tier. Monotonic non-decreasing by
// construction: fixed ascending cut points.
func confidenceFor(clarity float64) models.ConfidenceTier {
	switch {
	case clarity >= 70:
		return models.ConfidenceHigh
	case clarity >= 40:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// formSignal weights recent results more heavily than older ones and leans
// toward the side with the better weighted score
func formSignal(input models.RawMatchInput, penalize func(float64, string)) models.SubSignal {
	homeScore, homeOK := weightedForm(input.HomeForm)
	awayScore, awayOK := weightedForm(input.AwayForm)

	if !homeOK || !awayOK {
		penalize(penaltyNoForm, "form")
		return models.SubSignal{Label: "unknown", Lean: models.LeanEven, Magnitude: 0}
	}

	diff := homeScore - awayScore
	magnitude := math.Abs(diff) * 100

	lean := models.LeanEven
	if diff > 0 {
		lean = models.LeanHome
	} else if diff < 0 {
		lean = models.LeanAway
	}

	return models.SubSignal{
		Label:     formLabel(magnitude),
		Lean:      lean,
		Magnitude: round1(magnitude),
	}
}

// weightedForm scores a form string (most recent first) in [0,1].
// Result i of n carries weight n-i, so the latest result counts most.
func weightedForm(form string) (float64, bool) {
	if form == "" {
		return 0, false
	}

	var points, weights float64
	n := len(form)
	for i, r := range form {
		w := float64(n - i)
		switch r {
		case 'W', 'w':
			points += w
		case 'D', 'd':
			points += w * 0.5
		case 'L', 'l':
			// zero points
		default:
			continue // unparseable character, skip it
		}
		weights += w
	}

	if weights == 0 {
		return 0, false
	}
	return points / weights, true
}

func formLabel(magnitude float64) string {
	switch {
	case magnitude >= 35:
		return "dominant"
	case magnitude >= 20:
		return "clear"
	case magnitude >= 8:
		return "slight"
	default:
		return "even"
	}
}

// strengthSignal blends season win rate, scoring differential, and venue
// split bias into a 0-100 lean with a direction, clamped to sane bounds
func strengthSignal(input models.RawMatchInput, penalize func(float64, string)) models.SubSignal {
	home, away := input.HomeRecord, input.AwayRecord

	if home.Played == 0 || away.Played == 0 {
		penalize(penaltyNoRecord, "season_record")
		return models.SubSignal{Label: "unknown", Lean: models.LeanEven, Magnitude: 0}
	}

	winDiff := winRate(home) - winRate(away)
	goalDiff := perGameDiff(home) - perGameDiff(away)

	// Venue split bias: home team's record at home vs away team's on the
	// road. Omitted below the sample floor.
	splitDiff := 0.0
	splitUsable := home.SplitPlayed >= minSplitSample && away.SplitPlayed >= minSplitSample
	if splitUsable {
		splitDiff = float64(home.SplitWon)/float64(home.SplitPlayed) -
			float64(away.SplitWon)/float64(away.SplitPlayed)
	} else {
		penalize(penaltyThinSplit, "venue_split")
	}

	// Blend into a lean magnitude on a 0-100 scale. Win rate dominates,
	// scoring differential and split bias refine it.
	raw := winDiff*55 + goalDiff*12 + splitDiff*25
	magnitude := clamp(math.Abs(raw), 0, 90)

	lean := models.LeanEven
	if raw > 0 {
		lean = models.LeanHome
	} else if raw < 0 {
		lean = models.LeanAway
	}

	return models.SubSignal{
		Label:     strengthLabel(magnitude),
		Lean:      lean,
		Magnitude: round1(magnitude),
	}
}

func strengthLabel(magnitude float64) string {
	switch {
	case magnitude >= 30:
		return "commanding"
	case magnitude >= 15:
		return "solid"
	case magnitude >= 5:
		return "marginal"
	default:
		return "balanced"
	}
}

// tempoSignal buckets the combined scoring rate of both teams against the
// sport's league baseline
func tempoSignal(input models.RawMatchInput, profile *sports.Profile, penalize func(float64, string)) models.TempoSignal {
	home, away := input.HomeRecord, input.AwayRecord

	if home.Played == 0 || away.Played == 0 || profile.TempoBaseline <= 0 {
		if profile.TempoBaseline <= 0 {
			penalize(penaltyNoBaseline, "tempo_baseline")
		}
		return models.TempoSignal{Bucket: models.TempoMedium, CombinedRate: 0, Baseline: profile.TempoBaseline}
	}

	homeRate := float64(home.Scored+home.Conceded) / float64(home.Played)
	awayRate := float64(away.Scored+away.Conceded) / float64(away.Played)
	combined := (homeRate + awayRate) / 2

	bucket := models.TempoMedium
	ratio := combined / profile.TempoBaseline
	if ratio >= 1.10 {
		bucket = models.TempoHigh
	} else if ratio <= 0.90 {
		bucket = models.TempoLow
	}

	return models.TempoSignal{
		Bucket:       bucket,
		CombinedRate: round1(combined),
		Baseline:     profile.TempoBaseline,
	}
}

// efficiencySignal compares scoring vs conceding efficiency and reports
// which side is advantaged and whether attack or defense drives it
func efficiencySignal(input models.RawMatchInput, penalize func(float64, string)) models.EfficiencySignal {
	home, away := input.HomeRecord, input.AwayRecord

	if home.Played == 0 || away.Played == 0 {
		// season_record penalty already applied by strengthSignal, so the
		// gap is not double-counted here
		return models.EfficiencySignal{
			SubSignal: models.SubSignal{Label: "unknown", Lean: models.LeanEven},
			Aspect:    models.AspectAttack,
		}
	}

	attackGap := float64(home.Scored)/float64(home.Played) - float64(away.Scored)/float64(away.Played)
	// Positive defenseGap means the home side concedes less per game
	defenseGap := float64(away.Conceded)/float64(away.Played) - float64(home.Conceded)/float64(home.Played)

	total := attackGap + defenseGap
	lean := models.LeanEven
	if total > 0 {
		lean = models.LeanHome
	} else if total < 0 {
		lean = models.LeanAway
	}

	aspect := models.AspectAttack
	if math.Abs(defenseGap) > math.Abs(attackGap) {
		aspect = models.AspectDefense
	}

	magnitude := clamp(math.Abs(total)*20, 0, 100)

	return models.EfficiencySignal{
		SubSignal: models.SubSignal{
			Label:     fmt.Sprintf("%s-driven", aspect),
			Lean:      lean,
			Magnitude: round1(magnitude),
		},
		Aspect: aspect,
	}
}

func winRate(r models.TeamRecord) float64 {
	if r.Played == 0 {
		return 0
	}
	return float64(r.Won) / float64(r.Played)
}

func perGameDiff(r models.TeamRecord) float64 {
	if r.Played == 0 {
		return 0
	}
	return float64(r.Scored-r.Conceded) / float64(r.Played)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
