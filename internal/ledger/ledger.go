// Package ledger persists predictions and consensus odds snapshots in
// Postgres. Idempotency is enforced at the storage boundary with
// uniquely-keyed upserts: one prediction per (sport, match, analysis date),
// one snapshot per (match, sport, bookmaker). Concurrent sweeps and
// on-demand requests racing on the same key are safe because the outputs
// are deterministic functions of the same inputs and last-write-wins on
// mutable fields.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// Store implements contracts.PredictionStore on Postgres
type Store struct {
	db *sql.DB
}

// NewStore creates a ledger store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// PredictionID derives the deterministic prediction key from the sport key,
// external match identifier, and analysis date. Explicitly not wall-clock
// time: repeated runs the same day produce the same ID and update rather
// than duplicate.
func PredictionID(sportKey, matchRef, analysisDate string) string {
	sum := sha256.Sum256([]byte(sportKey + "|" + matchRef + "|" + analysisDate))
	return fmt.Sprintf("%x", sum[:16])
}

// EnsureSchema creates the ledger tables if they do not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS predictions (
			id                TEXT PRIMARY KEY,
			match_ref         TEXT NOT NULL,
			sport_key         TEXT NOT NULL,
			league            TEXT NOT NULL DEFAULT '',
			home_team         TEXT NOT NULL,
			away_team         TEXT NOT NULL,
			kickoff           TIMESTAMPTZ NOT NULL,
			analysis_date     DATE NOT NULL,
			predicted_outcome TEXT NOT NULL,
			reasoning         TEXT NOT NULL DEFAULT '',
			conviction        INT NOT NULL,
			odds              DOUBLE PRECISION NOT NULL,
			implied_prob      DOUBLE PRECISION NOT NULL,
			opening_odds      DOUBLE PRECISION NOT NULL,
			value_bet_side    TEXT,
			value_bet_odds    DOUBLE PRECISION,
			value_bet_edge    DOUBLE PRECISION,
			outcome           TEXT,
			resolution        TEXT NOT NULL DEFAULT 'pending',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (sport_key, match_ref, analysis_date)
		);

		CREATE TABLE IF NOT EXISTS odds_snapshots (
			match_ref      TEXT NOT NULL,
			sport_key      TEXT NOT NULL,
			bookmaker      TEXT NOT NULL DEFAULT 'consensus',
			league         TEXT NOT NULL DEFAULT '',
			home_team      TEXT NOT NULL,
			away_team      TEXT NOT NULL,
			match_date     DATE NOT NULL,
			home_odds      DOUBLE PRECISION NOT NULL,
			away_odds      DOUBLE PRECISION NOT NULL,
			draw_odds      DOUBLE PRECISION,
			home_prob      DOUBLE PRECISION NOT NULL,
			away_prob      DOUBLE PRECISION NOT NULL,
			draw_prob      DOUBLE PRECISION,
			home_edge      DOUBLE PRECISION NOT NULL,
			away_edge      DOUBLE PRECISION NOT NULL,
			draw_edge      DOUBLE PRECISION,
			has_value_edge BOOLEAN NOT NULL DEFAULT FALSE,
			alert_level    TEXT NOT NULL DEFAULT '',
			opening_home   DOUBLE PRECISION,
			opening_away   DOUBLE PRECISION,
			opening_draw   DOUBLE PRECISION,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (match_ref, sport_key, bookmaker)
		);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure ledger schema: %w", err)
	}
	return nil
}

// UpsertPrediction persists a prediction. On key conflict it refreshes the
// mutable fields (outcome call, reasoning, conviction, odds, value-bet
// fields) and leaves opening odds and any settled outcome untouched.
func (s *Store) UpsertPrediction(ctx context.Context, p models.Prediction) (*models.Prediction, error) {
	if p.ID == "" {
		p.ID = PredictionID(p.SportKey, p.MatchRef, p.AnalysisDate)
	}
	if p.OpeningOdds == 0 {
		p.OpeningOdds = p.Odds
	}

	const query = `
		INSERT INTO predictions (
			id, match_ref, sport_key, league, home_team, away_team,
			kickoff, analysis_date, predicted_outcome, reasoning,
			conviction, odds, implied_prob, opening_odds,
			value_bet_side, value_bet_odds, value_bet_edge, resolution
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, 'pending'
		)
		ON CONFLICT (sport_key, match_ref, analysis_date) DO UPDATE SET
			predicted_outcome = EXCLUDED.predicted_outcome,
			reasoning         = EXCLUDED.reasoning,
			conviction        = EXCLUDED.conviction,
			odds              = EXCLUDED.odds,
			implied_prob      = EXCLUDED.implied_prob,
			value_bet_side    = EXCLUDED.value_bet_side,
			value_bet_odds    = EXCLUDED.value_bet_odds,
			value_bet_edge    = EXCLUDED.value_bet_edge,
			updated_at        = now()
		WHERE predictions.resolution = 'pending'
		RETURNING id
	`

	var id string
	err := s.db.QueryRowContext(ctx, query,
		p.ID, p.MatchRef, p.SportKey, p.League, p.HomeTeam, p.AwayTeam,
		p.Kickoff, p.AnalysisDate, string(p.PredictedOutcome), p.Reasoning,
		p.Conviction, p.Odds, p.ImpliedProb, p.OpeningOdds,
		nullOutcome(p.ValueBetSide), nullFloat(p.ValueBetOdds), nullFloat(p.ValueBetEdge),
	).Scan(&id)

	if err == sql.ErrNoRows {
		// Row exists and is settled: the DO UPDATE WHERE clause declined
		// it. Return the stored row unchanged.
		return s.GetPrediction(ctx, PredictionID(p.SportKey, p.MatchRef, p.AnalysisDate))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert prediction: %w", err)
	}

	return s.GetPrediction(ctx, id)
}

// GetPrediction fetches a prediction by its deterministic ID. A missing
// row returns nil, nil.
func (s *Store) GetPrediction(ctx context.Context, id string) (*models.Prediction, error) {
	const query = `
		SELECT id, match_ref, sport_key, league, home_team, away_team,
		       kickoff, to_char(analysis_date, 'YYYY-MM-DD'),
		       predicted_outcome, reasoning, conviction, odds, implied_prob,
		       opening_odds, value_bet_side, value_bet_odds, value_bet_edge,
		       outcome, resolution, created_at, updated_at
		FROM predictions
		WHERE id = $1
	`

	var p models.Prediction
	var vbSide, outcome sql.NullString
	var vbOdds, vbEdge sql.NullFloat64
	var predicted, resolution string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.MatchRef, &p.SportKey, &p.League, &p.HomeTeam, &p.AwayTeam,
		&p.Kickoff, &p.AnalysisDate,
		&predicted, &p.Reasoning, &p.Conviction, &p.Odds, &p.ImpliedProb,
		&p.OpeningOdds, &vbSide, &vbOdds, &vbEdge,
		&outcome, &resolution, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction: %w", err)
	}

	p.PredictedOutcome = models.Outcome(predicted)
	p.Resolution = models.ResolutionState(resolution)
	if vbSide.Valid {
		side := models.Outcome(vbSide.String)
		p.ValueBetSide = &side
	}
	if vbOdds.Valid {
		p.ValueBetOdds = &vbOdds.Float64
	}
	if vbEdge.Valid {
		p.ValueBetEdge = &vbEdge.Float64
	}
	if outcome.Valid {
		o := models.Outcome(outcome.String)
		p.Outcome = &o
	}

	return &p, nil
}

// RecordOutcome settles a prediction. Settled rows become immutable to
// later upserts; settling an already-settled row is a no-op.
func (s *Store) RecordOutcome(ctx context.Context, id string, outcome models.Outcome) error {
	const query = `
		UPDATE predictions
		SET outcome = $2, resolution = 'settled', updated_at = now()
		WHERE id = $1 AND resolution = 'pending'
	`

	res, err := s.db.ExecContext(ctx, query, id, string(outcome))
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read settlement result: %w", err)
	}
	if affected == 0 {
		// Either missing or already settled; only missing is an error
		p, err := s.GetPrediction(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("prediction not found: %s", id)
		}
	}
	return nil
}

func nullOutcome(o *models.Outcome) sql.NullString {
	if o == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*o), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
