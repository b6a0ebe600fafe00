// Package narrative mediates between the engine and the external
// narrative-generation oracle. The oracle is untrusted and best-effort:
// every response is validated against the insight contract, and any
// failure, timeout, or malformed payload is replaced by a deterministic
// insight built from the computed stats.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// Service wraps an oracle with validation and fallback
type Service struct {
	oracle contracts.NarrativeOracle
}

// NewService creates a narrative service. A nil oracle is valid and means
// every insight is built deterministically.
func NewService(oracle contracts.NarrativeOracle) *Service {
	return &Service{oracle: oracle}
}

// Insight returns a narrative insight for the analysis. Never fails: oracle
// problems degrade to the stats-built fallback, marked as such.
func (s *Service) Insight(ctx context.Context, prompt contracts.NarrativePrompt) models.Insight {
	if s.oracle == nil {
		return Fallback(prompt)
	}

	insight, err := s.oracle.Generate(ctx, prompt)
	if err != nil {
		log.Printf("narrative oracle failed for %s vs %s, using fallback: %v",
			prompt.HomeTeam, prompt.AwayTeam, err)
		return Fallback(prompt)
	}

	if err := Validate(insight, prompt.Intel.HasDraw); err != nil {
		log.Printf("narrative oracle returned invalid insight for %s vs %s, using fallback: %v",
			prompt.HomeTeam, prompt.AwayTeam, err)
		return Fallback(prompt)
	}

	return *insight
}

// ParseInsight decodes and validates a raw oracle payload. Oracle client
// implementations should run their responses through this before returning.
func ParseInsight(raw []byte, hasDraw bool) (*models.Insight, error) {
	var insight models.Insight
	if err := json.Unmarshal(raw, &insight); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrNarrativeUnavailable, err)
	}
	if err := Validate(&insight, hasDraw); err != nil {
		return nil, err
	}
	return &insight, nil
}

// Validate checks an insight against the contract the engine expects
func Validate(insight *models.Insight, hasDraw bool) error {
	if insight == nil {
		return fmt.Errorf("%w: nil insight", models.ErrNarrativeUnavailable)
	}

	switch insight.Favored {
	case models.OutcomeHome, models.OutcomeAway:
	case models.OutcomeDraw:
		if !hasDraw {
			return fmt.Errorf("%w: draw favored in a two-way market", models.ErrNarrativeUnavailable)
		}
	default:
		return fmt.Errorf("%w: unknown favored side %q", models.ErrNarrativeUnavailable, insight.Favored)
	}

	switch insight.Confidence {
	case models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow:
	default:
		return fmt.Errorf("%w: unknown confidence tier %q", models.ErrNarrativeUnavailable, insight.Confidence)
	}

	if strings.TrimSpace(insight.Narrative) == "" {
		return fmt.Errorf("%w: empty narrative text", models.ErrNarrativeUnavailable)
	}

	return nil
}
