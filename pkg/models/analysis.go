package models

import "time"

// AnalysisSchemaVersion is the current cached-response schema. Entries
// written under older versions are coerced on read (see internal/cache).
const AnalysisSchemaVersion = 2

// TTLClass distinguishes sweep-produced entries from on-demand ones
type TTLClass string

const (
	TTLLong  TTLClass = "long"  // pre-computed by a scheduled sweep
	TTLShort TTLClass = "short" // computed on demand
)

// ValueBet is a qualified value-bet recommendation
type ValueBet struct {
	Side        Outcome `json:"side"`
	Odds        float64 `json:"odds"`
	ModelProb   float64 `json:"model_prob"`
	EdgePercent float64 `json:"edge_pct"`
}

// Insight is the structured narrative contract: what the engine expects back
// from the narrative oracle, or builds itself from stats when the oracle
// fails
type Insight struct {
	Favored     Outcome        `json:"favored"`
	Confidence  ConfidenceTier `json:"confidence"`
	Narrative   string         `json:"narrative"`
	RiskFactors []string       `json:"risk_factors,omitempty"`
	Fallback    bool           `json:"fallback"` // true when deterministically derived
}

// MatchAnalysis is the full computed response for one match: the shape that
// flows through the cache and out of the HTTP surface
type MatchAnalysis struct {
	SchemaVersion int `json:"schema_version"`

	SportKey string    `json:"sport_key"`
	League   string    `json:"league"`
	MatchRef string    `json:"match_ref"`
	HomeTeam string    `json:"home_team"`
	AwayTeam string    `json:"away_team"`
	Kickoff  time.Time `json:"kickoff"`

	Signals UniversalSignals `json:"signals"`
	Intel   MarketIntel      `json:"intel"`
	Insight Insight          `json:"insight"`

	Conviction int       `json:"conviction"`
	ValueBet   *ValueBet `json:"value_bet,omitempty"`

	// Degraded lists non-critical inputs that were unavailable; an
	// unavailable input is never reported as "no edge found"
	Degraded []string `json:"degraded,omitempty"`

	PredictionID string    `json:"prediction_id,omitempty"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
	TTLClass     TTLClass  `json:"ttl_class"`
}
