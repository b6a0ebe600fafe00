// Package engine orchestrates the full analysis pipeline: provider
// fetches, signal normalization, edge computation, conviction and
// value-bet qualification, narrative generation, and the ledger and cache
// writes. I/O happens around the edge calculation, never inside it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/cache"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/conviction"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/ledger"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/market"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/narrative"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/signals"
	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/edge-engine/sports"
)

// ErrFixtureNotFound - no fixture matched the requested teams and date
var ErrFixtureNotFound = errors.New("fixture not found")

// Options tunes pipeline behavior
type Options struct {
	// FetchParallelism bounds concurrent optional sub-fetches per match
	FetchParallelism int

	// Sweep pacing and budget
	MatchDelay  time.Duration
	SweepBudget time.Duration
}

// DefaultOptions returns standard pipeline tuning
func DefaultOptions() Options {
	return Options{
		FetchParallelism: 3,
		MatchDelay:       2 * time.Second,
		SweepBudget:      20 * time.Minute,
	}
}

// Engine runs the analysis pipeline
type Engine struct {
	odds      contracts.OddsProvider
	stats     contracts.StatsProvider
	narrative *narrative.Service
	store     contracts.PredictionStore
	cache     contracts.ResponseCache
	lock      *cache.SweepLock

	catalog    *sports.Catalog
	calculator *market.Calculator
	qualifier  *conviction.Qualifier
	metrics    *metrics.Metrics

	opts Options
	now  func() time.Time
}

// New creates an engine. lock and m may be nil (no sweep lease, no
// metrics); everything else is required.
func New(
	odds contracts.OddsProvider,
	stats contracts.StatsProvider,
	oracle contracts.NarrativeOracle,
	store contracts.PredictionStore,
	responseCache contracts.ResponseCache,
	lock *cache.SweepLock,
	catalog *sports.Catalog,
	marketCfg market.Config,
	valueCfg conviction.Config,
	m *metrics.Metrics,
	opts Options,
) *Engine {
	if opts.FetchParallelism <= 0 {
		opts.FetchParallelism = DefaultOptions().FetchParallelism
	}
	return &Engine{
		odds:       odds,
		stats:      stats,
		narrative:  narrative.NewService(oracle),
		store:      store,
		cache:      responseCache,
		lock:       lock,
		catalog:    catalog,
		calculator: market.NewCalculator(catalog, marketCfg),
		qualifier:  conviction.NewQualifier(catalog, valueCfg),
		metrics:    m,
		opts:       opts,
		now:        time.Now,
	}
}

// AnalyzeMatch runs the full pipeline for one fixture and writes the
// ledger and cache. previousOdds, when known, feeds line-movement
// detection. Only critical-path failures (odds, season records) return an
// error; optional sources degrade.
func (e *Engine) AnalyzeMatch(ctx context.Context, fixture models.Fixture, previousOdds *models.Odds, class models.TTLClass) (*models.MatchAnalysis, error) {
	// Critical path: odds first, cheapest way to find a dead market
	odds, err := e.odds.FetchOdds(ctx, fixture)
	if err != nil {
		return nil, fmt.Errorf("odds fetch failed for %s: %w", fixture.MatchRef, err)
	}

	homeRecord, awayRecord, homeForm, awayForm, err := e.stats.FetchRecords(ctx, fixture)
	if err != nil {
		return nil, fmt.Errorf("records fetch failed for %s: %w", fixture.MatchRef, err)
	}

	input := models.RawMatchInput{
		SportKey:   fixture.SportKey,
		League:     fixture.League,
		MatchRef:   fixture.MatchRef,
		HomeTeam:   fixture.HomeTeam,
		AwayTeam:   fixture.AwayTeam,
		Kickoff:    fixture.Kickoff,
		HomeForm:   homeForm,
		AwayForm:   awayForm,
		HomeRecord: homeRecord,
		AwayRecord: awayRecord,
	}

	// Optional sources run with bounded parallelism and are joined before
	// edge calculation; failures degrade to "unavailable"
	degraded := e.fetchOptional(ctx, fixture, &input)

	profile := e.catalog.Profile(fixture.SportKey)
	sig, gaps := signals.Normalize(input, profile)
	degraded = append(degraded, gaps...)

	intel, err := e.calculator.ComputeEdge(sig, odds, profile.HasDraw, fixture.SportKey, fixture.League, previousOdds)
	if err != nil {
		e.countError(fixture.SportKey, err)
		return nil, err
	}

	winner := intel.PredictedOutcome()
	winnerProb, _ := intel.ModelProbability.Get(winner)
	conv := e.qualifier.Conviction(winnerProb, fixture.SportKey)
	valueBet := e.qualifier.Qualify(intel)

	insight := e.narrative.Insight(ctx, contracts.NarrativePrompt{
		SportKey: fixture.SportKey,
		League:   fixture.League,
		HomeTeam: fixture.HomeTeam,
		AwayTeam: fixture.AwayTeam,
		Signals:  sig,
		Intel:    *intel,
	})

	analysis := &models.MatchAnalysis{
		SchemaVersion: models.AnalysisSchemaVersion,
		SportKey:      fixture.SportKey,
		League:        fixture.League,
		MatchRef:      fixture.MatchRef,
		HomeTeam:      fixture.HomeTeam,
		AwayTeam:      fixture.AwayTeam,
		Kickoff:       fixture.Kickoff,
		Signals:       sig,
		Intel:         *intel,
		Insight:       insight,
		Conviction:    conv,
		ValueBet:      valueBet,
		Degraded:      dedupe(degraded),
		AnalyzedAt:    e.now().UTC(),
		TTLClass:      class,
	}

	if err := e.persist(ctx, fixture, analysis, intel, winner, conv, valueBet); err != nil {
		return nil, err
	}

	key := contracts.NewCacheKey(fixture.HomeTeam, fixture.AwayTeam, fixture.SportKey, fixture.Kickoff)
	if err := e.cache.Set(ctx, key, analysis, class); err != nil {
		// Cache is an optimization; a write failure must not fail the match
		log.Printf("cache write failed for %s: %v", fixture.MatchRef, err)
	}

	if e.metrics != nil {
		e.metrics.AnalysesTotal.WithLabelValues(fixture.SportKey).Inc()
		if valueBet != nil {
			e.metrics.ValueBetsTotal.WithLabelValues(fixture.SportKey).Inc()
		}
	}

	return analysis, nil
}

// fetchOptional launches head-to-head and absence fetches with bounded
// parallelism and joins them. Each failure is recorded as a degraded
// source, never an error.
func (e *Engine) fetchOptional(ctx context.Context, fixture models.Fixture, input *models.RawMatchInput) []string {
	type task struct {
		name string
		run  func() error
	}

	var mu sync.Mutex
	var degraded []string

	tasks := []task{
		{name: "head_to_head", run: func() error {
			h2h, err := e.stats.FetchHeadToHead(ctx, fixture)
			if err != nil {
				return err
			}
			mu.Lock()
			input.HeadToHead = h2h
			mu.Unlock()
			return nil
		}},
		{name: "absences", run: func() error {
			home, away, err := e.stats.FetchAbsences(ctx, fixture)
			if err != nil {
				return err
			}
			mu.Lock()
			input.HomeAbsences = home
			input.AwayAbsences = away
			mu.Unlock()
			return nil
		}},
	}

	sem := make(chan struct{}, e.opts.FetchParallelism)
	var wg sync.WaitGroup

	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := t.run(); err != nil {
				log.Printf("optional fetch %s failed for %s: %v", t.name, fixture.MatchRef, err)
				mu.Lock()
				degraded = append(degraded, t.name)
				mu.Unlock()
			}
		}(t)
	}

	wg.Wait()
	return degraded
}

// persist writes the snapshot (always) and the prediction (when the league
// gate passes) for a completed analysis
func (e *Engine) persist(
	ctx context.Context,
	fixture models.Fixture,
	analysis *models.MatchAnalysis,
	intel *models.MarketIntel,
	winner models.Outcome,
	conv int,
	valueBet *models.ValueBet,
) error {
	edges := market.EdgeSet(intel)

	snapshot := models.OddsSnapshot{
		MatchRef:     fixture.MatchRef,
		SportKey:     fixture.SportKey,
		Bookmaker:    "consensus",
		League:       fixture.League,
		HomeTeam:     fixture.HomeTeam,
		AwayTeam:     fixture.AwayTeam,
		MatchDate:    fixture.Kickoff.UTC().Format("2006-01-02"),
		Odds:         intel.Odds,
		ModelProb:    intel.ModelProbability,
		Edge:         edges,
		HasValueEdge: intel.ValueEdge.Strength != models.EdgeNone,
		AlertLevel:   models.AlertLevelForEdge(intel.ValueEdge.EdgePercent),
	}
	if err := e.store.UpsertSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("snapshot write failed for %s: %w", fixture.MatchRef, err)
	}

	if !e.qualifier.ShouldEmit(intel) {
		return nil
	}

	analysisDate := e.now().UTC().Format("2006-01-02")
	winnerOdds, _ := intel.Odds.Outcome(winner)
	impliedProb, _ := intel.ImpliedProbability.Get(winner)

	prediction := models.Prediction{
		ID:               ledger.PredictionID(fixture.SportKey, fixture.MatchRef, analysisDate),
		MatchRef:         fixture.MatchRef,
		SportKey:         fixture.SportKey,
		League:           fixture.League,
		HomeTeam:         fixture.HomeTeam,
		AwayTeam:         fixture.AwayTeam,
		Kickoff:          fixture.Kickoff,
		AnalysisDate:     analysisDate,
		PredictedOutcome: winner,
		Reasoning:        analysis.Insight.Narrative,
		Conviction:       conv,
		Odds:             winnerOdds,
		ImpliedProb:      impliedProb,
	}
	if valueBet != nil {
		prediction.ValueBetSide = &valueBet.Side
		prediction.ValueBetOdds = &valueBet.Odds
		prediction.ValueBetEdge = &valueBet.EdgePercent
	}

	stored, err := e.store.UpsertPrediction(ctx, prediction)
	if err != nil {
		return fmt.Errorf("prediction write failed for %s: %w", fixture.MatchRef, err)
	}

	analysis.PredictionID = stored.ID
	return nil
}

// GetOrCompute serves an on-demand request: reuse a cached analysis for
// (home, away, sport, date) unless the fixture is inside the kickoff
// bypass window, in which case late-breaking data forces a fresh run.
func (e *Engine) GetOrCompute(ctx context.Context, homeTeam, awayTeam, sportKey string, date time.Time) (*models.MatchAnalysis, error) {
	key := contracts.NewCacheKey(homeTeam, awayTeam, sportKey, date)

	cached, hit, err := e.cache.Get(ctx, key)
	if err != nil {
		log.Printf("cache read failed for %s/%s: %v", homeTeam, awayTeam, err)
	}
	if hit && !cache.ShouldBypass(cached.Kickoff, e.now()) {
		if e.metrics != nil {
			e.metrics.CacheHits.Inc()
		}
		return cached, nil
	}
	if e.metrics != nil {
		if hit {
			e.metrics.CacheBypasses.Inc()
		} else {
			e.metrics.CacheMisses.Inc()
		}
	}

	fixture, err := e.findFixture(ctx, homeTeam, awayTeam, sportKey, date)
	if err != nil {
		return nil, err
	}

	// A bypassed pre-match entry still carries the last known odds for
	// movement detection
	var previousOdds *models.Odds
	if hit {
		previousOdds = &cached.Intel.Odds
	}

	return e.AnalyzeMatch(ctx, fixture, previousOdds, models.TTLShort)
}

// findFixture locates the fixture for a team pair on a date
func (e *Engine) findFixture(ctx context.Context, homeTeam, awayTeam, sportKey string, date time.Time) (models.Fixture, error) {
	fixtures, err := e.odds.ListFixtures(ctx, sportKey, date)
	if err != nil {
		return models.Fixture{}, fmt.Errorf("fixture lookup failed: %w", err)
	}

	for _, f := range fixtures {
		if teamsMatch(f.HomeTeam, homeTeam) && teamsMatch(f.AwayTeam, awayTeam) {
			return f, nil
		}
	}

	return models.Fixture{}, fmt.Errorf("%w: %s vs %s on %s",
		ErrFixtureNotFound, homeTeam, awayTeam, date.Format("2006-01-02"))
}

func teamsMatch(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (e *Engine) countError(sportKey string, err error) {
	if e.metrics == nil {
		return
	}
	reason := "other"
	switch {
	case errors.Is(err, models.ErrNoMarketData):
		reason = "no_market_data"
	case errors.Is(err, models.ErrInvalidOdds):
		reason = "invalid_odds"
	case errors.Is(err, models.ErrRateLimited):
		reason = "rate_limited"
	}
	e.metrics.AnalysisErrors.WithLabelValues(sportKey, reason).Inc()
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
