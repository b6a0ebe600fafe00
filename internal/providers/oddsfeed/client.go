// Package oddsfeed implements contracts.OddsProvider against the fortuna
// odds feed HTTP API.
package oddsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// Client handles odds feed API requests
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new odds feed client
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type fixtureResponse struct {
	MatchRef string    `json:"match_ref"`
	League   string    `json:"league"`
	HomeTeam string    `json:"home_team"`
	AwayTeam string    `json:"away_team"`
	Kickoff  time.Time `json:"kickoff"`
}

type oddsResponse struct {
	Home *float64 `json:"home"`
	Away *float64 `json:"away"`
	Draw *float64 `json:"draw,omitempty"`
}

// ListFixtures returns fixtures kicking off on the given date
func (c *Client) ListFixtures(ctx context.Context, sportKey string, date time.Time) ([]models.Fixture, error) {
	url := fmt.Sprintf("%s/v1/sports/%s/fixtures?date=%s", c.baseURL, sportKey, date.UTC().Format("2006-01-02"))

	var raw []fixtureResponse
	if err := c.fetch(ctx, url, &raw); err != nil {
		return nil, err
	}

	fixtures := make([]models.Fixture, 0, len(raw))
	for _, f := range raw {
		fixtures = append(fixtures, models.Fixture{
			MatchRef: f.MatchRef,
			SportKey: sportKey,
			League:   f.League,
			HomeTeam: f.HomeTeam,
			AwayTeam: f.AwayTeam,
			Kickoff:  f.Kickoff,
		})
	}
	return fixtures, nil
}

// FetchOdds returns current consensus decimal odds for a fixture
func (c *Client) FetchOdds(ctx context.Context, fixture models.Fixture) (models.Odds, error) {
	url := fmt.Sprintf("%s/v1/sports/%s/matches/%s/odds", c.baseURL, fixture.SportKey, fixture.MatchRef)

	var raw oddsResponse
	if err := c.fetch(ctx, url, &raw); err != nil {
		return models.Odds{}, err
	}

	return models.Odds{
		Home: deref(raw.Home),
		Away: deref(raw.Away),
		Draw: raw.Draw,
	}, nil
}

// deref maps a missing side to 0, which downstream odds validation rejects
func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// fetch makes an HTTP GET request and decodes the JSON body into out
func (c *Client) fetch(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: odds feed returned 429", models.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("odds feed error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
