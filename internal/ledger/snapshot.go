package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// UpsertSnapshot overwrites the consensus odds snapshot for a match. Every
// fresh analysis replaces model probabilities, per-outcome edges, and the
// alert level; opening odds are retained from the first write. Point in
// time only, no history.
func (s *Store) UpsertSnapshot(ctx context.Context, snap models.OddsSnapshot) error {
	if snap.Bookmaker == "" {
		snap.Bookmaker = "consensus"
	}

	const query = `
		INSERT INTO odds_snapshots (
			match_ref, sport_key, bookmaker, league, home_team, away_team,
			match_date, home_odds, away_odds, draw_odds,
			home_prob, away_prob, draw_prob,
			home_edge, away_edge, draw_edge,
			has_value_edge, alert_level,
			opening_home, opening_away, opening_draw, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18,
			$8, $9, $10, now()
		)
		ON CONFLICT (match_ref, sport_key, bookmaker) DO UPDATE SET
			league         = EXCLUDED.league,
			home_team      = EXCLUDED.home_team,
			away_team      = EXCLUDED.away_team,
			match_date     = EXCLUDED.match_date,
			home_odds      = EXCLUDED.home_odds,
			away_odds      = EXCLUDED.away_odds,
			draw_odds      = EXCLUDED.draw_odds,
			home_prob      = EXCLUDED.home_prob,
			away_prob      = EXCLUDED.away_prob,
			draw_prob      = EXCLUDED.draw_prob,
			home_edge      = EXCLUDED.home_edge,
			away_edge      = EXCLUDED.away_edge,
			draw_edge      = EXCLUDED.draw_edge,
			has_value_edge = EXCLUDED.has_value_edge,
			alert_level    = EXCLUDED.alert_level,
			updated_at     = now()
	`

	_, err := s.db.ExecContext(ctx, query,
		snap.MatchRef, snap.SportKey, snap.Bookmaker, snap.League,
		snap.HomeTeam, snap.AwayTeam, snap.MatchDate,
		snap.Odds.Home, snap.Odds.Away, nullFloat(snap.Odds.Draw),
		snap.ModelProb.Home, snap.ModelProb.Away, nullFloat(snap.ModelProb.Draw),
		snap.Edge.Home, snap.Edge.Away, nullFloat(snap.Edge.Draw),
		snap.HasValueEdge, string(snap.AlertLevel),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert odds snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns current snapshots for a sport, newest first,
// optionally filtered to a minimum alert level
func (s *Store) ListSnapshots(ctx context.Context, sportKey string, minAlert models.AlertLevel) ([]models.OddsSnapshot, error) {
	query := `
		SELECT match_ref, sport_key, bookmaker, league, home_team, away_team,
		       to_char(match_date, 'YYYY-MM-DD'),
		       home_odds, away_odds, draw_odds,
		       home_prob, away_prob, draw_prob,
		       home_edge, away_edge, draw_edge,
		       has_value_edge, alert_level,
		       opening_home, opening_away, opening_draw, updated_at
		FROM odds_snapshots
		WHERE sport_key = $1
	`
	args := []interface{}{sportKey}

	if levels := alertLevelsAtOrAbove(minAlert); levels != nil {
		query += ` AND alert_level = ANY($2)`
		args = append(args, levelArray(levels))
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.OddsSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

func scanSnapshot(rows *sql.Rows) (*models.OddsSnapshot, error) {
	var snap models.OddsSnapshot
	var drawOdds, drawProb, drawEdge sql.NullFloat64
	var openHome, openAway, openDraw sql.NullFloat64
	var alert string

	err := rows.Scan(
		&snap.MatchRef, &snap.SportKey, &snap.Bookmaker, &snap.League,
		&snap.HomeTeam, &snap.AwayTeam, &snap.MatchDate,
		&snap.Odds.Home, &snap.Odds.Away, &drawOdds,
		&snap.ModelProb.Home, &snap.ModelProb.Away, &drawProb,
		&snap.Edge.Home, &snap.Edge.Away, &drawEdge,
		&snap.HasValueEdge, &alert,
		&openHome, &openAway, &openDraw, &snap.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	snap.AlertLevel = models.AlertLevel(alert)
	if drawOdds.Valid {
		snap.Odds.Draw = &drawOdds.Float64
	}
	if drawProb.Valid {
		snap.ModelProb.Draw = &drawProb.Float64
	}
	if drawEdge.Valid {
		snap.Edge.Draw = &drawEdge.Float64
	}
	if openHome.Valid && openAway.Valid {
		opening := models.Odds{Home: openHome.Float64, Away: openAway.Float64}
		if openDraw.Valid {
			opening.Draw = &openDraw.Float64
		}
		snap.OpeningOdds = &opening
	}

	return &snap, nil
}

func levelArray(levels []models.AlertLevel) interface{} {
	strs := make([]string, len(levels))
	for i, l := range levels {
		strs[i] = string(l)
	}
	return pq.Array(strs)
}

// alertLevelsAtOrAbove expands a minimum level into the matching set;
// nil means no filtering
func alertLevelsAtOrAbove(min models.AlertLevel) []models.AlertLevel {
	switch min {
	case models.AlertHigh:
		return []models.AlertLevel{models.AlertHigh}
	case models.AlertMedium:
		return []models.AlertLevel{models.AlertHigh, models.AlertMedium}
	case models.AlertLow:
		return []models.AlertLevel{models.AlertHigh, models.AlertMedium, models.AlertLow}
	default:
		return nil
	}
}
