package models

import "time"

// EdgeStrength classifies a value edge against fixed thresholds
type EdgeStrength string

const (
	EdgeStrong   EdgeStrength = "strong"
	EdgeModerate EdgeStrength = "moderate"
	EdgeSlight   EdgeStrength = "slight"
	EdgeNone     EdgeStrength = "none"
)

// Odds holds decimal odds per outcome. Draw is nil for two-way markets.
type Odds struct {
	Home float64  `json:"home"`
	Away float64  `json:"away"`
	Draw *float64 `json:"draw,omitempty"`
}

// Outcome returns the quoted price for an outcome; ok is false when the
// market has no such side
func (o Odds) Outcome(out Outcome) (float64, bool) {
	switch out {
	case OutcomeHome:
		return o.Home, o.Home != 0
	case OutcomeAway:
		return o.Away, o.Away != 0
	case OutcomeDraw:
		if o.Draw != nil {
			return *o.Draw, true
		}
	}
	return 0, false
}

// OutcomeSet maps each market outcome to a value; Draw is only meaningful
// when the market carries one
type OutcomeSet struct {
	Home float64  `json:"home"`
	Away float64  `json:"away"`
	Draw *float64 `json:"draw,omitempty"`
}

// Get returns the value for an outcome; ok is false for a draw lookup on a
// two-way set
func (s OutcomeSet) Get(o Outcome) (float64, bool) {
	switch o {
	case OutcomeHome:
		return s.Home, true
	case OutcomeAway:
		return s.Away, true
	case OutcomeDraw:
		if s.Draw != nil {
			return *s.Draw, true
		}
	}
	return 0, false
}

// ValueEdge is the best positive model-vs-market gap in the market
type ValueEdge struct {
	Outcome     Outcome      `json:"outcome"`
	Strength    EdgeStrength `json:"strength"`
	EdgePercent float64      `json:"edge_pct"` // percentage points
}

// MovementDirection describes how an outcome's price moved
type MovementDirection string

const (
	MovementShortening MovementDirection = "shortening" // odds went down, money on
	MovementDrifting   MovementDirection = "drifting"   // odds went up
	MovementStable     MovementDirection = "stable"
)

// LineMovement is advisory metadata comparing current odds to a prior
// snapshot of the same market
type LineMovement struct {
	Outcome   Outcome           `json:"outcome"`
	Direction MovementDirection `json:"direction"`
	Magnitude float64           `json:"magnitude"` // relative odds change, 0..1
	SteamMove bool              `json:"steam_move"`
}

// MarketIntel is the output of the edge calculator for one match
type MarketIntel struct {
	SportKey string `json:"sport_key"`
	League   string `json:"league"`
	HasDraw  bool   `json:"has_draw"`

	Odds               Odds       `json:"odds"`
	ImpliedProbability OutcomeSet `json:"implied_probability"`
	ModelProbability   OutcomeSet `json:"model_probability"`
	MarginPercent      float64    `json:"margin_pct"`

	ValueEdge      ValueEdge     `json:"value_edge"`
	LineMovement   *LineMovement `json:"line_movement,omitempty"`
	Recommendation string        `json:"recommendation"`

	ComputedAt time.Time `json:"computed_at"`
}

// PredictedOutcome returns the outcome with the highest model probability.
// Exact ties resolve in favor of the home side (stable home, draw, away
// evaluation order with strictly-greater comparison).
func (m MarketIntel) PredictedOutcome() Outcome {
	best := OutcomeHome
	bestProb := m.ModelProbability.Home
	if m.HasDraw && m.ModelProbability.Draw != nil && *m.ModelProbability.Draw > bestProb {
		best = OutcomeDraw
		bestProb = *m.ModelProbability.Draw
	}
	if m.ModelProbability.Away > bestProb {
		best = OutcomeAway
	}
	return best
}
