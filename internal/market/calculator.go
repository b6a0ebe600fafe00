// Package market turns normalized signals plus bookmaker odds into market
// intelligence: fair implied probabilities, a calibrated model probability,
// per-outcome edges, and an optional line-movement read. Pure computation,
// no I/O.
package market

import (
	"fmt"
	"math"
	"time"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/oddsmath"
	"github.com/XavierBriggs/fortuna/services/edge-engine/sports"
)

// Config holds the fixed edge-classification and movement thresholds
type Config struct {
	// Edge strength cut points, percentage points
	StrongEdge   float64 `yaml:"strong_edge"`
	ModerateEdge float64 `yaml:"moderate_edge"`
	SlightEdge   float64 `yaml:"slight_edge"`

	// MaxDeviation bounds how far the model may move from implied
	// probability at calibration factor 1.0
	MaxDeviation float64 `yaml:"max_deviation"`

	// SteamThreshold is the relative odds change that flags a steam move
	SteamThreshold float64 `yaml:"steam_threshold"`
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{
		StrongEdge:     10.0,
		ModerateEdge:   5.0,
		SlightEdge:     3.0,
		MaxDeviation:   0.18,
		SteamThreshold: 0.08,
	}
}

// Calculator computes market intel for one match at a time
type Calculator struct {
	catalog *sports.Catalog
	cfg     Config
}

// NewCalculator creates a calculator bound to a sport catalog
func NewCalculator(catalog *sports.Catalog, cfg Config) *Calculator {
	return &Calculator{catalog: catalog, cfg: cfg}
}

// ComputeEdge derives model probabilities from signals, removes the
// bookmaker margin from the quoted odds, and reports per-outcome edges.
// previousOdds, when present, adds advisory line-movement metadata.
//
// Failure modes: models.ErrNoMarketData when a required side's odds are
// missing, models.ErrInvalidOdds when any quoted value is <= 1.0 or
// non-finite. Both abort only this match.
func (c *Calculator) ComputeEdge(
	sig models.UniversalSignals,
	odds models.Odds,
	hasDraw bool,
	sportKey, league string,
	previousOdds *models.Odds,
) (*models.MarketIntel, error) {
	quoted, err := collectOdds(odds, hasDraw)
	if err != nil {
		return nil, err
	}

	fair, margin, err := oddsmath.RemoveOverround(quoted)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidOdds, err)
	}

	implied := toOutcomeSet(fair, hasDraw)

	profile := c.catalog.Profile(sportKey)
	calibration := profile.Calibration(league)
	model := c.modelProbabilities(sig, implied, hasDraw, calibration.CalibrationFactor)

	edges := edgeSet(model, implied, hasDraw)
	best := argmaxEdge(edges, hasDraw)
	bestEdge, _ := edges.Get(best)

	intel := &models.MarketIntel{
		SportKey:           sportKey,
		League:             league,
		HasDraw:            hasDraw,
		Odds:               odds,
		ImpliedProbability: implied,
		ModelProbability:   model,
		MarginPercent:      oddsmath.Round4(margin * 100),
		ValueEdge: models.ValueEdge{
			Outcome:     best,
			Strength:    c.classifyEdge(bestEdge),
			EdgePercent: oddsmath.Round4(bestEdge),
		},
		ComputedAt: time.Now().UTC(),
	}

	if previousOdds != nil {
		intel.LineMovement = c.detectMovement(odds, *previousOdds, hasDraw)
	}

	intel.Recommendation = recommend(intel)

	return intel, nil
}

// collectOdds validates and orders quoted odds as [home, away] or
// [home, draw, away]
func collectOdds(odds models.Odds, hasDraw bool) ([]float64, error) {
	if odds.Home == 0 || odds.Away == 0 {
		return nil, models.ErrNoMarketData
	}
	if hasDraw && (odds.Draw == nil || *odds.Draw == 0) {
		return nil, models.ErrNoMarketData
	}

	quoted := []float64{odds.Home, odds.Away}
	if hasDraw {
		quoted = []float64{odds.Home, *odds.Draw, odds.Away}
	}
	for _, o := range quoted {
		if err := oddsmath.ValidateDecimal(o); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidOdds, err)
		}
	}
	return quoted, nil
}

// modelProbabilities shifts the implied probabilities by the signal tilt,
// scaled by clarity and the league calibration factor, then renormalizes.
// Poorly calibrated leagues stay close to market consensus.
func (c *Calculator) modelProbabilities(
	sig models.UniversalSignals,
	implied models.OutcomeSet,
	hasDraw bool,
	calibrationFactor float64,
) models.OutcomeSet {
	tilt := signalTilt(sig)

	// Clarity gates how much of the tilt is trusted
	tilt *= sig.ClarityScore / 100.0

	shift := tilt * c.cfg.MaxDeviation * calibrationFactor

	home := clampProb(implied.Home + shift)
	away := clampProb(implied.Away - shift)

	if !hasDraw {
		total := home + away
		return models.OutcomeSet{
			Home: oddsmath.Round4(home / total),
			Away: oddsmath.Round4(away / total),
		}
	}

	// Draw markets: the model takes no independent view on the draw, so
	// the implied draw probability rides along and the shift moves mass
	// between the two sides
	draw := clampProb(*implied.Draw)
	total := home + away + draw
	d := oddsmath.Round4(draw / total)
	return models.OutcomeSet{
		Home: oddsmath.Round4(home / total),
		Away: oddsmath.Round4(away / total),
		Draw: &d,
	}
}

// signalTilt collapses the directional signals into one home-positive
// value in [-1, 1]. Form and season strength dominate; efficiency and
// availability refine.
func signalTilt(sig models.UniversalSignals) float64 {
	tilt := leanValue(sig.Form.Lean)*sig.Form.Magnitude/100*0.35 +
		leanValue(sig.StrengthEdge.Lean)*sig.StrengthEdge.Magnitude/100*0.35 +
		leanValue(sig.Efficiency.Lean)*sig.Efficiency.Magnitude/100*0.15 +
		leanValue(sig.Availability.Lean)*sig.Availability.Magnitude/100*0.15

	if tilt > 1 {
		return 1
	}
	if tilt < -1 {
		return -1
	}
	return tilt
}

func leanValue(l models.Lean) float64 {
	switch l {
	case models.LeanHome:
		return 1
	case models.LeanAway:
		return -1
	default:
		return 0
	}
}

func (c *Calculator) classifyEdge(edge float64) models.EdgeStrength {
	switch {
	case edge > c.cfg.StrongEdge:
		return models.EdgeStrong
	case edge > c.cfg.ModerateEdge:
		return models.EdgeModerate
	case edge > c.cfg.SlightEdge:
		return models.EdgeSlight
	default:
		return models.EdgeNone
	}
}

// detectMovement compares current odds to a previous snapshot and reports
// the sharpest per-outcome change. Advisory metadata only.
func (c *Calculator) detectMovement(current, previous models.Odds, hasDraw bool) *models.LineMovement {
	type pair struct {
		outcome  models.Outcome
		now, was float64
	}

	pairs := []pair{
		{models.OutcomeHome, current.Home, previous.Home},
		{models.OutcomeAway, current.Away, previous.Away},
	}
	if hasDraw && current.Draw != nil && previous.Draw != nil {
		pairs = append(pairs, pair{models.OutcomeDraw, *current.Draw, *previous.Draw})
	}

	var best *models.LineMovement
	for _, p := range pairs {
		if p.was <= 1.0 || p.now <= 1.0 {
			continue
		}
		magnitude := math.Abs(p.now-p.was) / p.was
		if best != nil && magnitude <= best.Magnitude {
			continue
		}

		direction := models.MovementStable
		if p.now < p.was {
			direction = models.MovementShortening
		} else if p.now > p.was {
			direction = models.MovementDrifting
		}

		best = &models.LineMovement{
			Outcome:   p.outcome,
			Direction: direction,
			Magnitude: oddsmath.Round4(magnitude),
			SteamMove: magnitude >= c.cfg.SteamThreshold,
		}
	}

	return best
}

// argmaxEdge returns the outcome with the highest edge. Stable home, draw,
// away order with strictly-greater comparison: an exact tie resolves to
// the home side.
func argmaxEdge(edges models.OutcomeSet, hasDraw bool) models.Outcome {
	best := models.OutcomeHome
	bestEdge := edges.Home
	if hasDraw && edges.Draw != nil && *edges.Draw > bestEdge {
		best = models.OutcomeDraw
		bestEdge = *edges.Draw
	}
	if edges.Away > bestEdge {
		best = models.OutcomeAway
	}
	return best
}

func edgeSet(model, implied models.OutcomeSet, hasDraw bool) models.OutcomeSet {
	set := models.OutcomeSet{
		Home: oddsmath.Round4((model.Home - implied.Home) * 100),
		Away: oddsmath.Round4((model.Away - implied.Away) * 100),
	}
	if hasDraw && model.Draw != nil && implied.Draw != nil {
		d := oddsmath.Round4((*model.Draw - *implied.Draw) * 100)
		set.Draw = &d
	}
	return set
}

// EdgeSet exposes the per-outcome edges of an intel result; downstream
// snapshot writes persist all of them
func EdgeSet(intel *models.MarketIntel) models.OutcomeSet {
	return edgeSet(intel.ModelProbability, intel.ImpliedProbability, intel.HasDraw)
}

func recommend(intel *models.MarketIntel) string {
	if intel.ValueEdge.Strength == models.EdgeNone {
		return "NO BET - model aligns with market"
	}
	note := ""
	if intel.LineMovement != nil && intel.LineMovement.SteamMove {
		note = ", steam detected"
	}
	return fmt.Sprintf("BACK %s - %s edge (%+.1f pts%s)",
		intel.ValueEdge.Outcome, intel.ValueEdge.Strength, intel.ValueEdge.EdgePercent, note)
}

func toOutcomeSet(fair []float64, hasDraw bool) models.OutcomeSet {
	if !hasDraw {
		return models.OutcomeSet{
			Home: oddsmath.Round4(fair[0]),
			Away: oddsmath.Round4(fair[1]),
		}
	}
	d := oddsmath.Round4(fair[1])
	return models.OutcomeSet{
		Home: oddsmath.Round4(fair[0]),
		Away: oddsmath.Round4(fair[2]),
		Draw: &d,
	}
}

func clampProb(p float64) float64 {
	if p < 0.02 {
		return 0.02
	}
	if p > 0.96 {
		return 0.96
	}
	return p
}
