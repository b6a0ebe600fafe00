package contracts

import (
	"context"
	"time"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// PredictionStore is the prediction ledger boundary. Correctness under
// concurrent sweeps and on-demand requests relies on uniquely-keyed
// idempotent upserts here, not on in-process locking.
type PredictionStore interface {
	// UpsertPrediction persists a prediction keyed by (sport, match,
	// analysis date). On conflict it refreshes mutable fields only and
	// never touches a settled outcome. Returns the stored row.
	UpsertPrediction(ctx context.Context, p models.Prediction) (*models.Prediction, error)

	// GetPrediction fetches by deterministic ID; a missing prediction is
	// nil, nil, not an error
	GetPrediction(ctx context.Context, id string) (*models.Prediction, error)

	// RecordOutcome settles a prediction; settled rows become immutable
	// to later upserts
	RecordOutcome(ctx context.Context, id string, outcome models.Outcome) error

	// UpsertSnapshot overwrites the consensus odds snapshot keyed by
	// (match, sport, bookmaker), preserving opening odds from the first
	// write
	UpsertSnapshot(ctx context.Context, s models.OddsSnapshot) error

	// ListSnapshots returns current snapshots for a sport, optionally
	// filtered to a minimum alert level
	ListSnapshots(ctx context.Context, sportKey string, minAlert models.AlertLevel) ([]models.OddsSnapshot, error)
}

// ResponseCache stores full computed responses keyed by
// (home, away, sport, date). Date-grained: the key is stable across calls at
// different times of the same day.
type ResponseCache interface {
	Get(ctx context.Context, key CacheKey) (*models.MatchAnalysis, bool, error)
	Set(ctx context.Context, key CacheKey, analysis *models.MatchAnalysis, class models.TTLClass) error
}

// CacheKey identifies one cached analysis
type CacheKey struct {
	HomeTeam  string
	AwayTeam  string
	SportKey  string
	MatchDate string // YYYY-MM-DD
}

// NewCacheKey builds a key from a fixture, truncating kickoff to its date
func NewCacheKey(homeTeam, awayTeam, sportKey string, kickoff time.Time) CacheKey {
	return CacheKey{
		HomeTeam:  homeTeam,
		AwayTeam:  awayTeam,
		SportKey:  sportKey,
		MatchDate: kickoff.UTC().Format("2006-01-02"),
	}
}
