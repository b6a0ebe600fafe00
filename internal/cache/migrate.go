package cache

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// decodeAnalysis reads a cached payload, upgrading legacy schema versions
// to the current shape. The coercion is a one-time step on ingestion,
// never part of the computation path: by the time an analysis leaves this
// package it is always current-schema.
func decodeAnalysis(data []byte) (*models.MatchAnalysis, error) {
	var probe struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("unreadable cache entry: %w", err)
	}

	if probe.SchemaVersion >= models.AnalysisSchemaVersion {
		var analysis models.MatchAnalysis
		if err := json.Unmarshal(data, &analysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
		return &analysis, nil
	}

	return coerceLegacy(data)
}

// legacyAnalysis is the v1 cached shape: the narrative was a bare string
// with no explicit favored side or confidence tier
type legacyAnalysis struct {
	SchemaVersion int    `json:"schema_version"`
	SportKey      string `json:"sport_key"`
	League        string `json:"league"`
	MatchRef      string `json:"match_ref"`
	HomeTeam      string `json:"home_team"`
	AwayTeam      string `json:"away_team"`

	Signals models.UniversalSignals `json:"signals"`
	Intel   models.MarketIntel      `json:"intel"`

	Narrative  string           `json:"narrative"`
	Conviction int              `json:"conviction"`
	ValueBet   *models.ValueBet `json:"value_bet,omitempty"`
}

// coerceLegacy re-derives the structured insight fields a v1 entry never
// stored: favored side from the model probabilities, confidence from the
// signal tier, falling back to scanning the free text when the numbers are
// absent.
func coerceLegacy(data []byte) (*models.MatchAnalysis, error) {
	var legacy legacyAnalysis
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal legacy analysis: %w", err)
	}

	favored := legacy.Intel.PredictedOutcome()
	if legacy.Intel.ModelProbability.Home == 0 && legacy.Intel.ModelProbability.Away == 0 {
		favored = favoredFromText(legacy.Narrative, legacy.HomeTeam, legacy.AwayTeam)
	}

	confidence := legacy.Signals.Confidence
	if confidence == "" {
		confidence = models.ConfidenceLow
	}

	return &models.MatchAnalysis{
		SchemaVersion: models.AnalysisSchemaVersion,
		SportKey:      legacy.SportKey,
		League:        legacy.League,
		MatchRef:      legacy.MatchRef,
		HomeTeam:      legacy.HomeTeam,
		AwayTeam:      legacy.AwayTeam,
		Signals:       legacy.Signals,
		Intel:         legacy.Intel,
		Insight: models.Insight{
			Favored:    favored,
			Confidence: confidence,
			Narrative:  legacy.Narrative,
			Fallback:   true,
		},
		Conviction: legacy.Conviction,
		ValueBet:   legacy.ValueBet,
		TTLClass:   models.TTLShort,
	}, nil
}

// favoredFromText is the last-resort read of a legacy free-text narrative:
// whichever team is named first is taken as favored, home on no mention
func favoredFromText(narrative, homeTeam, awayTeam string) models.Outcome {
	text := strings.ToLower(narrative)
	homeIdx := strings.Index(text, strings.ToLower(homeTeam))
	awayIdx := strings.Index(text, strings.ToLower(awayTeam))

	switch {
	case awayIdx >= 0 && (homeIdx < 0 || awayIdx < homeIdx):
		return models.OutcomeAway
	default:
		return models.OutcomeHome
	}
}
