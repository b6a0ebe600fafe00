package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/conviction"
	"github.com/XavierBriggs/fortuna/services/edge-engine/internal/market"
	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/edge-engine/sports"
)

// fakeOdds serves canned fixtures and odds, optionally failing per match
type fakeOdds struct {
	fixtures []models.Fixture
	odds     map[string]models.Odds
	oddsErr  map[string]error
	listErr  error

	mu         sync.Mutex
	fetchCalls int
}

func (f *fakeOdds) ListFixtures(_ context.Context, sportKey string, _ time.Time) ([]models.Fixture, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Fixture
	for _, fx := range f.fixtures {
		if fx.SportKey == sportKey {
			out = append(out, fx)
		}
	}
	return out, nil
}

func (f *fakeOdds) FetchOdds(_ context.Context, fixture models.Fixture) (models.Odds, error) {
	f.mu.Lock()
	f.fetchCalls++
	f.mu.Unlock()

	if err, ok := f.oddsErr[fixture.MatchRef]; ok {
		return models.Odds{}, err
	}
	o, ok := f.odds[fixture.MatchRef]
	if !ok {
		return models.Odds{}, models.ErrNoMarketData
	}
	return o, nil
}

// fakeStats serves identical canned records for every fixture
type fakeStats struct {
	homeRecord models.TeamRecord
	awayRecord models.TeamRecord
	homeForm   string
	awayForm   string

	recordsErr  error
	h2hErr      error
	absencesErr error
}

func (f *fakeStats) FetchRecords(_ context.Context, _ models.Fixture) (models.TeamRecord, models.TeamRecord, string, string, error) {
	if f.recordsErr != nil {
		return models.TeamRecord{}, models.TeamRecord{}, "", "", f.recordsErr
	}
	return f.homeRecord, f.awayRecord, f.homeForm, f.awayForm, nil
}

func (f *fakeStats) FetchHeadToHead(_ context.Context, _ models.Fixture) (*models.HeadToHead, error) {
	if f.h2hErr != nil {
		return nil, f.h2hErr
	}
	return &models.HeadToHead{Meetings: 4, HomeWins: 2, AwayWins: 1, Draws: 1, TotalGoals: 11}, nil
}

func (f *fakeStats) FetchAbsences(_ context.Context, _ models.Fixture) ([]models.Absence, []models.Absence, error) {
	if f.absencesErr != nil {
		return nil, nil, f.absencesErr
	}
	return []models.Absence{}, []models.Absence{}, nil
}

// fakeStore is an in-memory ledger with the same upsert semantics as the
// Postgres implementation
type fakeStore struct {
	mu          sync.Mutex
	predictions map[string]models.Prediction
	snapshots   map[string]models.OddsSnapshot
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		predictions: make(map[string]models.Prediction),
		snapshots:   make(map[string]models.OddsSnapshot),
	}
}

func (s *fakeStore) UpsertPrediction(_ context.Context, p models.Prediction) (*models.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.predictions[p.ID]
	if ok {
		if existing.Resolution != models.ResolutionPending {
			return &existing, nil
		}
		// Opening odds are set once, on first write
		p.OpeningOdds = existing.OpeningOdds
		p.CreatedAt = existing.CreatedAt
	} else {
		p.OpeningOdds = p.Odds
		p.CreatedAt = time.Now()
	}
	p.Resolution = models.ResolutionPending
	p.UpdatedAt = time.Now()
	s.predictions[p.ID] = p
	return &p, nil
}

func (s *fakeStore) GetPrediction(_ context.Context, id string) (*models.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.predictions[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *fakeStore) RecordOutcome(_ context.Context, id string, outcome models.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.predictions[id]
	if !ok || p.Resolution != models.ResolutionPending {
		return nil
	}
	p.Outcome = &outcome
	p.Resolution = models.ResolutionSettled
	s.predictions[id] = p
	return nil
}

func (s *fakeStore) UpsertSnapshot(_ context.Context, snap models.OddsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := snap.MatchRef + "|" + snap.SportKey + "|" + snap.Bookmaker
	s.snapshots[key] = snap
	return nil
}

func (s *fakeStore) ListSnapshots(_ context.Context, sportKey string, _ models.AlertLevel) ([]models.OddsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.OddsSnapshot
	for _, snap := range s.snapshots {
		if snap.SportKey == sportKey {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *fakeStore) predictionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.predictions)
}

// fakeCache is an in-memory response cache
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*models.MatchAnalysis
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*models.MatchAnalysis)}
}

func (c *fakeCache) cacheKey(k contracts.CacheKey) string {
	return fmt.Sprintf("%s|%s|%s|%s", k.SportKey, k.HomeTeam, k.AwayTeam, k.MatchDate)
}

func (c *fakeCache) Get(_ context.Context, key contracts.CacheKey) (*models.MatchAnalysis, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.entries[c.cacheKey(key)]
	return a, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key contracts.CacheKey, analysis *models.MatchAnalysis, class models.TTLClass) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	analysis.TTLClass = class
	c.entries[c.cacheKey(key)] = analysis
	c.sets++
	return nil
}

func nbaFixture(ref string) models.Fixture {
	return models.Fixture{
		MatchRef: ref,
		SportKey: "basketball",
		League:   "nba",
		HomeTeam: "Celtics",
		AwayTeam: "Wizards",
		Kickoff:  time.Date(2026, 9, 1, 23, 0, 0, 0, time.UTC),
	}
}

// strongHomeStats produces clearly home-leaning signals
func strongHomeStats() *fakeStats {
	return &fakeStats{
		homeRecord: models.TeamRecord{
			Played: 20, Won: 17, Lost: 3,
			Scored: 2300, Conceded: 2100,
			SplitPlayed: 10, SplitWon: 9,
		},
		awayRecord: models.TeamRecord{
			Played: 20, Won: 4, Lost: 16,
			Scored: 2100, Conceded: 2300,
			SplitPlayed: 10, SplitWon: 1,
		},
		homeForm: "WWWWW",
		awayForm: "LLLLL",
	}
}

// evenStats produces signals that lean nowhere
func evenStats() *fakeStats {
	rec := models.TeamRecord{
		Played: 20, Won: 10, Lost: 10,
		Scored: 2200, Conceded: 2200,
		SplitPlayed: 10, SplitWon: 5,
	}
	return &fakeStats{
		homeRecord: rec,
		awayRecord: rec,
		homeForm:   "WLWLW",
		awayForm:   "WLWLW",
	}
}

func testEngine(odds contracts.OddsProvider, stats contracts.StatsProvider, store *fakeStore, cache *fakeCache) *Engine {
	return New(
		odds, stats, nil, store, cache, nil,
		sports.DefaultCatalog(),
		market.DefaultConfig(),
		conviction.DefaultConfig(),
		nil,
		Options{FetchParallelism: 2, MatchDelay: time.Millisecond, SweepBudget: time.Minute},
	)
}

func TestAnalyzeMatchFullPipeline(t *testing.T) {
	fixture := nbaFixture("nba-001")
	odds := &fakeOdds{
		fixtures: []models.Fixture{fixture},
		odds:     map[string]models.Odds{"nba-001": {Home: 1.80, Away: 2.10}},
	}
	store := newFakeStore()
	cache := newFakeCache()
	eng := testEngine(odds, strongHomeStats(), store, cache)

	analysis, err := eng.AnalyzeMatch(context.Background(), fixture, nil, models.TTLLong)
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisSchemaVersion, analysis.SchemaVersion)
	assert.Equal(t, models.OutcomeHome, analysis.Intel.PredictedOutcome())
	assert.False(t, analysis.Intel.HasDraw)
	assert.Greater(t, analysis.Intel.ModelProbability.Home, analysis.Intel.ImpliedProbability.Home)
	assert.GreaterOrEqual(t, analysis.Conviction, 1)
	assert.LessOrEqual(t, analysis.Conviction, 9) // basketball cap

	require.NotNil(t, analysis.ValueBet)
	assert.Equal(t, models.OutcomeHome, analysis.ValueBet.Side)
	assert.Equal(t, 1.80, analysis.ValueBet.Odds)

	// Narrative came from the deterministic fallback (nil oracle)
	assert.True(t, analysis.Insight.Fallback)
	assert.Equal(t, models.OutcomeHome, analysis.Insight.Favored)

	// Snapshot always written, prediction written past the league gate
	require.Len(t, store.snapshots, 1)
	assert.Equal(t, 1, store.predictionCount())
	assert.NotEmpty(t, analysis.PredictionID)

	stored, err := store.GetPrediction(context.Background(), analysis.PredictionID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.OutcomeHome, stored.PredictedOutcome)
	assert.Equal(t, models.ResolutionPending, stored.Resolution)

	// Response cached under the requested class
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, models.TTLLong, analysis.TTLClass)
}

func TestAnalyzeMatchIdempotentSameDay(t *testing.T) {
	fixture := nbaFixture("nba-001")
	odds := &fakeOdds{
		fixtures: []models.Fixture{fixture},
		odds:     map[string]models.Odds{"nba-001": {Home: 1.80, Away: 2.10}},
	}
	store := newFakeStore()
	eng := testEngine(odds, strongHomeStats(), store, newFakeCache())

	fixed := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	eng.now = func() time.Time { return fixed }

	first, err := eng.AnalyzeMatch(context.Background(), fixture, nil, models.TTLLong)
	require.NoError(t, err)

	// Odds drift before the second run the same day
	odds.odds["nba-001"] = models.Odds{Home: 1.70, Away: 2.25}
	eng.now = func() time.Time { return fixed.Add(3 * time.Hour) }

	second, err := eng.AnalyzeMatch(context.Background(), fixture, nil, models.TTLShort)
	require.NoError(t, err)

	assert.Equal(t, first.PredictionID, second.PredictionID)
	assert.Equal(t, 1, store.predictionCount(), "same-day rerun must update, not duplicate")

	stored, _ := store.GetPrediction(context.Background(), first.PredictionID)
	require.NotNil(t, stored)
	assert.Equal(t, 1.70, stored.Odds, "mutable fields refresh on rerun")
	assert.Equal(t, 1.80, stored.OpeningOdds, "opening odds stay from the first write")
}

func TestAnalyzeMatchSettledPredictionUntouched(t *testing.T) {
	fixture := nbaFixture("nba-001")
	odds := &fakeOdds{
		fixtures: []models.Fixture{fixture},
		odds:     map[string]models.Odds{"nba-001": {Home: 1.80, Away: 2.10}},
	}
	store := newFakeStore()
	eng := testEngine(odds, strongHomeStats(), store, newFakeCache())

	fixed := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	eng.now = func() time.Time { return fixed }

	first, err := eng.AnalyzeMatch(context.Background(), fixture, nil, models.TTLLong)
	require.NoError(t, err)

	require.NoError(t, store.RecordOutcome(context.Background(), first.PredictionID, models.OutcomeAway))

	_, err = eng.AnalyzeMatch(context.Background(), fixture, nil, models.TTLShort)
	require.NoError(t, err)

	stored, _ := store.GetPrediction(context.Background(), first.PredictionID)
	require.NotNil(t, stored)
	assert.Equal(t, models.ResolutionSettled, stored.Resolution, "rerun must not reopen a settled prediction")
	assert.Equal(t, models.OutcomeAway, *stored.Outcome)
}

func TestAnalyzeMatchDegradedSources(t *testing.T) {
	fixture := nbaFixture("nba-001")
	odds := &fakeOdds{
		fixtures: []models.Fixture{fixture},
		odds:     map[string]models.Odds{"nba-001": {Home: 1.80, Away: 2.10}},
	}
	stats := strongHomeStats()
	stats.h2hErr = errors.New("source down")
	stats.absencesErr = errors.New("source down")

	eng := testEngine(odds, stats, newFakeStore(), newFakeCache())

	analysis, err := eng.AnalyzeMatch(context.Background(), fixture, nil, models.TTLLong)
	require.NoError(t, err, "optional source failures must not fail the analysis")

	assert.Contains(t, analysis.Degraded, "head_to_head")
	assert.Contains(t, analysis.Degraded, "absences")
	assert.Less(t, analysis.Signals.ClarityScore, 100.0)
}

func TestAnalyzeMatchCriticalFailures(t *testing.T) {
	fixture := nbaFixture("nba-001")

	t.Run("Odds fetch fails", func(t *testing.T) {
		odds := &fakeOdds{oddsErr: map[string]error{"nba-001": models.ErrNoMarketData}}
		store := newFakeStore()
		eng := testEngine(odds, strongHomeStats(), store, newFakeCache())

		_, err := eng.AnalyzeMatch(context.Background(), fixture, nil, models.TTLLong)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrNoMarketData)
		assert.Empty(t, store.snapshots, "nothing persists on a critical failure")
	})

	t.Run("Records fetch fails", func(t *testing.T) {
		odds := &fakeOdds{odds: map[string]models.Odds{"nba-001": {Home: 1.80, Away: 2.10}}}
		stats := strongHomeStats()
		stats.recordsErr = errors.New("stats feed down")
		store := newFakeStore()
		eng := testEngine(odds, stats, store, newFakeCache())

		_, err := eng.AnalyzeMatch(context.Background(), fixture, nil, models.TTLLong)
		require.Error(t, err)
		assert.Equal(t, 0, store.predictionCount())
	})

	t.Run("Invalid odds", func(t *testing.T) {
		odds := &fakeOdds{odds: map[string]models.Odds{"nba-001": {Home: 0.5, Away: 2.10}}}
		eng := testEngine(odds, strongHomeStats(), newFakeStore(), newFakeCache())

		_, err := eng.AnalyzeMatch(context.Background(), fixture, nil, models.TTLLong)
		assert.ErrorIs(t, err, models.ErrInvalidOdds)
	})
}

func TestAnalyzeMatchLeagueGateSkipsPrediction(t *testing.T) {
	fixture := nbaFixture("nba-001")
	odds := &fakeOdds{
		fixtures: []models.Fixture{fixture},
		odds:     map[string]models.Odds{"nba-001": {Home: 1.91, Away: 1.91}},
	}
	store := newFakeStore()
	eng := testEngine(odds, evenStats(), store, newFakeCache())

	analysis, err := eng.AnalyzeMatch(context.Background(), fixture, nil, models.TTLLong)
	require.NoError(t, err)

	// A coin flip stays under the NBA emission floor: snapshot only
	assert.Len(t, store.snapshots, 1)
	assert.Equal(t, 0, store.predictionCount())
	assert.Empty(t, analysis.PredictionID)
	assert.Nil(t, analysis.ValueBet)
}

func TestGetOrComputeCacheHit(t *testing.T) {
	fixture := nbaFixture("nba-001")
	odds := &fakeOdds{
		fixtures: []models.Fixture{fixture},
		odds:     map[string]models.Odds{"nba-001": {Home: 1.80, Away: 2.10}},
	}
	cache := newFakeCache()
	eng := testEngine(odds, strongHomeStats(), newFakeStore(), cache)

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	eng.now = func() time.Time { return now }

	// Seed the cache with a kickoff hours away
	key := contracts.NewCacheKey("Celtics", "Wizards", "basketball", now)
	seeded := &models.MatchAnalysis{
		SchemaVersion: models.AnalysisSchemaVersion,
		SportKey:      "basketball",
		MatchRef:      "nba-001",
		Kickoff:       now.Add(13 * time.Hour),
		Intel:         models.MarketIntel{Odds: models.Odds{Home: 1.85, Away: 2.05}},
	}
	require.NoError(t, cache.Set(context.Background(), key, seeded, models.TTLLong))

	got, err := eng.GetOrCompute(context.Background(), "Celtics", "Wizards", "basketball", now)
	require.NoError(t, err)

	assert.Same(t, seeded, got, "fresh cache entry served as-is")
	assert.Equal(t, 0, odds.fetchCalls, "cache hit must not touch providers")
}

func TestGetOrComputeBypassNearKickoff(t *testing.T) {
	kickoff := time.Date(2026, 9, 1, 23, 0, 0, 0, time.UTC)
	fixture := nbaFixture("nba-001")
	fixture.Kickoff = kickoff

	odds := &fakeOdds{
		fixtures: []models.Fixture{fixture},
		odds:     map[string]models.Odds{"nba-001": {Home: 1.60, Away: 2.15}},
	}
	cache := newFakeCache()
	eng := testEngine(odds, strongHomeStats(), newFakeStore(), cache)

	now := kickoff.Add(-10 * time.Minute)
	eng.now = func() time.Time { return now }

	key := contracts.NewCacheKey("Celtics", "Wizards", "basketball", now)
	seeded := &models.MatchAnalysis{
		SchemaVersion: models.AnalysisSchemaVersion,
		SportKey:      "basketball",
		MatchRef:      "nba-001",
		Kickoff:       kickoff,
		Intel:         models.MarketIntel{Odds: models.Odds{Home: 1.85, Away: 2.05}},
	}
	require.NoError(t, cache.Set(context.Background(), key, seeded, models.TTLLong))

	got, err := eng.GetOrCompute(context.Background(), "Celtics", "Wizards", "basketball", now)
	require.NoError(t, err)

	assert.NotSame(t, seeded, got, "entry inside the kickoff window must recompute")
	assert.Equal(t, 1, odds.fetchCalls)
	assert.Equal(t, models.TTLShort, got.TTLClass)

	// The stale entry's odds feed movement detection: 1.85 -> 1.60 is a
	// 13.5% shortening, well past the steam threshold
	require.NotNil(t, got.Intel.LineMovement)
	assert.Equal(t, models.MovementShortening, got.Intel.LineMovement.Direction)
	assert.True(t, got.Intel.LineMovement.SteamMove)
}

func TestGetOrComputeUnknownFixture(t *testing.T) {
	odds := &fakeOdds{}
	eng := testEngine(odds, strongHomeStats(), newFakeStore(), newFakeCache())

	_, err := eng.GetOrCompute(context.Background(), "Nobody", "NoOneElse", "basketball", time.Now())
	assert.ErrorIs(t, err, ErrFixtureNotFound)
}

func TestSweep(t *testing.T) {
	fixtures := []models.Fixture{nbaFixture("nba-001"), nbaFixture("nba-002"), nbaFixture("nba-003")}
	odds := &fakeOdds{
		fixtures: fixtures,
		odds: map[string]models.Odds{
			"nba-001": {Home: 1.80, Away: 2.10},
			"nba-002": {Home: 1.91, Away: 1.91},
			"nba-003": {Home: 2.30, Away: 1.65},
		},
	}
	store := newFakeStore()
	eng := testEngine(odds, strongHomeStats(), store, newFakeCache())

	stats, err := eng.Sweep(context.Background(), "basketball", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Analyzed)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 0, stats.Skipped)
	assert.NotEmpty(t, stats.RunID)
	assert.Len(t, store.snapshots, 3)
}

func TestSweepPerMatchFailureContinues(t *testing.T) {
	fixtures := []models.Fixture{nbaFixture("nba-001"), nbaFixture("nba-002"), nbaFixture("nba-003")}
	odds := &fakeOdds{
		fixtures: fixtures,
		odds: map[string]models.Odds{
			"nba-001": {Home: 1.80, Away: 2.10},
			"nba-003": {Home: 2.30, Away: 1.65},
		},
		oddsErr: map[string]error{"nba-002": models.ErrNoMarketData},
	}
	eng := testEngine(odds, strongHomeStats(), newFakeStore(), newFakeCache())

	stats, err := eng.Sweep(context.Background(), "basketball", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Analyzed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Skipped)
}

func TestSweepRateLimitHalts(t *testing.T) {
	fixtures := []models.Fixture{nbaFixture("nba-001"), nbaFixture("nba-002"), nbaFixture("nba-003")}
	odds := &fakeOdds{
		fixtures: fixtures,
		odds:     map[string]models.Odds{"nba-001": {Home: 1.80, Away: 2.10}},
		oddsErr: map[string]error{
			"nba-002": fmt.Errorf("quota gone: %w", models.ErrRateLimited),
		},
	}
	eng := testEngine(odds, strongHomeStats(), newFakeStore(), newFakeCache())

	stats, err := eng.Sweep(context.Background(), "basketball", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Analyzed)
	assert.Equal(t, 0, stats.Failed, "a rate limit is a halt, not a per-match failure")
	assert.Equal(t, 2, stats.Skipped, "the halted match and everything after count as skipped")
}

func TestSweepBudgetExhausted(t *testing.T) {
	fixtures := []models.Fixture{nbaFixture("nba-001"), nbaFixture("nba-002")}
	odds := &fakeOdds{
		fixtures: fixtures,
		odds: map[string]models.Odds{
			"nba-001": {Home: 1.80, Away: 2.10},
			"nba-002": {Home: 1.91, Away: 1.91},
		},
	}
	eng := testEngine(odds, strongHomeStats(), newFakeStore(), newFakeCache())
	eng.opts.SweepBudget = time.Nanosecond

	stats, err := eng.Sweep(context.Background(), "basketball", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Analyzed)
	assert.Equal(t, 2, stats.Skipped, "no new match starts past the deadline")
}
