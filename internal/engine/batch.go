package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// SweepStats summarizes one sweep run
type SweepStats struct {
	RunID    string        `json:"run_id"`
	SportKey string        `json:"sport_key"`
	Date     string        `json:"date"`
	Total    int           `json:"total"`
	Analyzed int           `json:"analyzed"`
	Failed   int           `json:"failed"`
	Degraded int           `json:"degraded"`
	Skipped  int           `json:"skipped"` // budget exhausted or rate-limit halt
	Elapsed  time.Duration `json:"elapsed"`
}

// Sweep analyzes every fixture for a sport on a date. Matches run
// sequentially with an inter-match delay to respect provider rate limits;
// the soft wall-clock budget is checked between matches, never
// mid-computation. A rate-limit error from a provider halts the sweep
// rather than counting as a per-match failure.
func (e *Engine) Sweep(ctx context.Context, sportKey string, date time.Time) (*SweepStats, error) {
	runID := uuid.NewString()
	stats := &SweepStats{
		RunID:    runID,
		SportKey: sportKey,
		Date:     date.Format("2006-01-02"),
	}

	if e.lock != nil {
		ok, err := e.lock.Acquire(ctx, sportKey, runID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("sweep already running for %s", sportKey)
		}
		defer func() {
			if err := e.lock.Release(context.Background(), sportKey, runID); err != nil {
				log.Printf("failed to release sweep lock for %s: %v", sportKey, err)
			}
		}()
	}

	start := e.now()
	deadline := start.Add(e.opts.SweepBudget)

	fixtures, err := e.odds.ListFixtures(ctx, sportKey, date)
	if err != nil {
		if errors.Is(err, models.ErrRateLimited) {
			return stats, err
		}
		return nil, fmt.Errorf("sweep fixture listing failed: %w", err)
	}
	stats.Total = len(fixtures)

	limiter := rate.NewLimiter(rate.Every(e.opts.MatchDelay), 1)

	for i, fixture := range fixtures {
		// Budget check between matches: in-flight work finishes, no new
		// match starts past the deadline
		if e.opts.SweepBudget > 0 && e.now().After(deadline) {
			stats.Skipped = len(fixtures) - i
			log.Printf("sweep %s budget exhausted after %d/%d matches", runID, i, len(fixtures))
			break
		}

		if err := limiter.Wait(ctx); err != nil {
			stats.Skipped = len(fixtures) - i
			break
		}

		analysis, err := e.AnalyzeMatch(ctx, fixture, nil, models.TTLLong)
		if err != nil {
			if errors.Is(err, models.ErrRateLimited) {
				// Provider cut us off: stop making calls for this sweep
				stats.Skipped = len(fixtures) - i
				log.Printf("sweep %s halted by provider rate limit at %d/%d", runID, i, len(fixtures))
				break
			}
			stats.Failed++
			e.recordSweepResult("failed")
			log.Printf("sweep %s: analysis failed for %s: %v", runID, fixture.MatchRef, err)
			continue
		}

		stats.Analyzed++
		e.recordSweepResult("analyzed")
		if len(analysis.Degraded) > 0 {
			stats.Degraded++
		}
	}

	stats.Elapsed = e.now().Sub(start)
	if e.metrics != nil {
		e.metrics.SweepDuration.Observe(stats.Elapsed.Seconds())
	}

	log.Printf("sweep %s complete: sport=%s analyzed=%d failed=%d degraded=%d skipped=%d elapsed=%s",
		runID, sportKey, stats.Analyzed, stats.Failed, stats.Degraded, stats.Skipped, stats.Elapsed)

	return stats, nil
}

func (e *Engine) recordSweepResult(result string) {
	if e.metrics != nil {
		e.metrics.SweepMatchTotal.WithLabelValues(result).Inc()
	}
}
