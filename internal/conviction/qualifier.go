// Package conviction turns a winner-side model probability into a bounded
// 1-10 conviction score and decides whether the market edge qualifies as a
// value bet.
package conviction

import (
	"math"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/edge-engine/sports"
)

// Config holds the fixed value-bet qualification thresholds
type Config struct {
	// MaxOdds is the ceiling on the predicted side's decimal price
	MaxOdds float64 `yaml:"max_odds"`

	// MinProb is the floor on the predicted side's model probability
	MinProb float64 `yaml:"min_prob"`

	// MinEdge is the minimum edge in percentage points
	MinEdge float64 `yaml:"min_edge"`
}

// DefaultConfig returns the standard qualification thresholds
func DefaultConfig() Config {
	return Config{
		MaxOdds: 3.50,
		MinProb: 0.40,
		MinEdge: 3.0,
	}
}

// Qualifier applies conviction capping and value-bet rules per sport
type Qualifier struct {
	catalog *sports.Catalog
	cfg     Config
}

// NewQualifier creates a qualifier bound to a sport catalog
func NewQualifier(catalog *sports.Catalog, cfg Config) *Qualifier {
	return &Qualifier{catalog: catalog, cfg: cfg}
}

// Conviction maps the winner-side model probability to a 1-10 score:
// round(p * 12) clamped to [1,10], then capped by the sport's ceiling.
// The cap applies after clamping, never before.
func (q *Qualifier) Conviction(winnerProb float64, sportKey string) int {
	raw := int(math.Round(winnerProb * 12))
	if raw < 1 {
		raw = 1
	}
	if raw > 10 {
		raw = 10
	}

	cap := q.catalog.Profile(sportKey).ConvictionCap
	if cap > 0 && raw > cap {
		raw = cap
	}
	return raw
}

// Qualify evaluates the intel against the value-bet rules. A value bet
// qualifies only when every rule holds:
//   - the predicted side's odds are at or under the ceiling
//   - its model probability is at or above the floor
//   - the edge meets the minimum
//   - the value-edge side IS the main predicted winner (no contrarian
//     side bets)
//
// Returns nil when any rule fails.
func (q *Qualifier) Qualify(intel *models.MarketIntel) *models.ValueBet {
	winner := intel.PredictedOutcome()

	if intel.ValueEdge.Outcome != winner {
		return nil
	}
	if intel.ValueEdge.EdgePercent < q.cfg.MinEdge {
		return nil
	}

	prob, ok := intel.ModelProbability.Get(winner)
	if !ok || prob < q.cfg.MinProb {
		return nil
	}

	odds, ok := intel.Odds.Outcome(winner)
	if !ok || odds > q.cfg.MaxOdds {
		return nil
	}

	return &models.ValueBet{
		Side:        winner,
		Odds:        odds,
		ModelProb:   prob,
		EdgePercent: intel.ValueEdge.EdgePercent,
	}
}

// ShouldEmit gates whether a prediction is recorded at all: the winner-side
// model probability must clear the league's minimum. Distinct from the
// value-bet thresholds.
func (q *Qualifier) ShouldEmit(intel *models.MarketIntel) bool {
	winner := intel.PredictedOutcome()
	prob, ok := intel.ModelProbability.Get(winner)
	if !ok {
		return false
	}

	calibration := q.catalog.Profile(intel.SportKey).Calibration(intel.League)
	return prob >= calibration.MinWinnerProb
}
