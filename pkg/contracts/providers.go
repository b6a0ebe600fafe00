// Package contracts defines the interfaces the edge engine consumes. Raw
// provider clients live outside this service; the engine only depends on
// these shapes.
package contracts

import (
	"context"
	"time"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// OddsProvider returns bookmaker quotes and upcoming fixtures per sport.
// Implementations must return models.ErrRateLimited (wrapped is fine) when
// the upstream starts refusing calls, so the batch controller can halt the
// sweep instead of burning the remaining quota.
type OddsProvider interface {
	// ListFixtures returns fixtures kicking off on the given date
	ListFixtures(ctx context.Context, sportKey string, date time.Time) ([]models.Fixture, error)

	// FetchOdds returns current consensus decimal odds for a fixture
	FetchOdds(ctx context.Context, fixture models.Fixture) (models.Odds, error)
}

// StatsProvider returns per-sport form, season, head-to-head and absence
// data. FetchRecords is critical path; the rest are best-effort.
type StatsProvider interface {
	// FetchRecords returns season records and form strings for both teams
	FetchRecords(ctx context.Context, fixture models.Fixture) (home, away models.TeamRecord, homeForm, awayForm string, err error)

	// FetchHeadToHead returns the head-to-head summary, or nil when the
	// teams have no recorded meetings
	FetchHeadToHead(ctx context.Context, fixture models.Fixture) (*models.HeadToHead, error)

	// FetchAbsences returns injury/suspension lists for both teams; nil
	// slices mean the source was unavailable
	FetchAbsences(ctx context.Context, fixture models.Fixture) (home, away []models.Absence, err error)
}

// NarrativeOracle generates the human-readable insight for an analysis. It
// is an untrusted, best-effort collaborator: any error or malformed output
// makes the engine fall back to a deterministic stats-built insight.
type NarrativeOracle interface {
	Generate(ctx context.Context, prompt NarrativePrompt) (*models.Insight, error)
}

// NarrativePrompt is the structured input handed to the oracle
type NarrativePrompt struct {
	SportKey string                  `json:"sport_key"`
	League   string                  `json:"league"`
	HomeTeam string                  `json:"home_team"`
	AwayTeam string                  `json:"away_team"`
	Signals  models.UniversalSignals `json:"signals"`
	Intel    models.MarketIntel      `json:"intel"`
	Hints    []string                `json:"hints,omitempty"`
}
