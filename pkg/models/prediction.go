package models

import "time"

// ResolutionState tracks whether a prediction has been settled
type ResolutionState string

const (
	ResolutionPending ResolutionState = "pending"
	ResolutionSettled ResolutionState = "settled"
)

// AlertLevel grades a snapshot's best edge for downstream alerting
type AlertLevel string

const (
	AlertHigh   AlertLevel = "HIGH"
	AlertMedium AlertLevel = "MEDIUM"
	AlertLow    AlertLevel = "LOW"
	AlertNone   AlertLevel = ""
)

// Prediction is the persisted record of one analyzed match. Exactly one row
// exists per (sport, match, analysis date); repeated same-day runs refresh
// mutable fields only.
type Prediction struct {
	ID       string `json:"id"` // deterministic, derived from sport+match+date
	MatchRef string `json:"match_ref"`
	SportKey string `json:"sport_key"`
	League   string `json:"league"`

	HomeTeam string    `json:"home_team"`
	AwayTeam string    `json:"away_team"`
	Kickoff  time.Time `json:"kickoff"`

	AnalysisDate string `json:"analysis_date"` // YYYY-MM-DD

	PredictedOutcome Outcome `json:"predicted_outcome"`
	Reasoning        string  `json:"reasoning"`
	Conviction       int     `json:"conviction"` // 1-10, sport-capped

	Odds        float64 `json:"odds"`         // predicted side's price at analysis time
	ImpliedProb float64 `json:"implied_prob"` // predicted side's no-margin probability
	OpeningOdds float64 `json:"opening_odds"` // predicted side's price at first write

	ValueBetSide *Outcome `json:"value_bet_side,omitempty"`
	ValueBetOdds *float64 `json:"value_bet_odds,omitempty"`
	ValueBetEdge *float64 `json:"value_bet_edge,omitempty"`

	Outcome    *Outcome        `json:"outcome,omitempty"` // actual result, once known
	Resolution ResolutionState `json:"resolution"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OddsSnapshot is the always-current consensus view of a match's market,
// keyed by (match, sport, bookmaker="consensus"). Point-in-time only; every
// fresh analysis overwrites the previous write.
type OddsSnapshot struct {
	MatchRef  string `json:"match_ref"`
	SportKey  string `json:"sport_key"`
	Bookmaker string `json:"bookmaker"` // always "consensus" for engine writes
	League    string `json:"league"`

	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	MatchDate string `json:"match_date"` // YYYY-MM-DD

	Odds      Odds       `json:"odds"`
	ModelProb OutcomeSet `json:"model_prob"`
	Edge      OutcomeSet `json:"edge"` // percentage points per outcome

	HasValueEdge bool       `json:"has_value_edge"`
	AlertLevel   AlertLevel `json:"alert_level"`

	OpeningOdds *Odds     `json:"opening_odds,omitempty"` // retained from first write
	UpdatedAt   time.Time `json:"updated_at"`
}

// AlertLevelForEdge derives the coarse alert grade from the best edge
// magnitude in percentage points
func AlertLevelForEdge(bestEdge float64) AlertLevel {
	switch {
	case bestEdge >= 10.0:
		return AlertHigh
	case bestEdge >= 5.0:
		return AlertMedium
	case bestEdge >= 3.0:
		return AlertLow
	default:
		return AlertNone
	}
}
