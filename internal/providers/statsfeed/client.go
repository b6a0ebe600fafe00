// Package statsfeed implements contracts.StatsProvider against the fortuna
// stats feed HTTP API. Records are critical path; head-to-head and absence
// endpoints are best-effort and the engine degrades without them.
package statsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/XavierBriggs/fortuna/services/edge-engine/pkg/models"
)

// Client handles stats feed API requests
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new stats feed client
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type recordsResponse struct {
	Home     models.TeamRecord `json:"home"`
	Away     models.TeamRecord `json:"away"`
	HomeForm string            `json:"home_form"`
	AwayForm string            `json:"away_form"`
}

type absencesResponse struct {
	Home []models.Absence `json:"home"`
	Away []models.Absence `json:"away"`
}

// FetchRecords returns season records and form strings for both teams
func (c *Client) FetchRecords(ctx context.Context, fixture models.Fixture) (models.TeamRecord, models.TeamRecord, string, string, error) {
	url := fmt.Sprintf("%s/v1/sports/%s/matches/%s/records", c.baseURL, fixture.SportKey, fixture.MatchRef)

	var raw recordsResponse
	if err := c.fetch(ctx, url, &raw); err != nil {
		return models.TeamRecord{}, models.TeamRecord{}, "", "", err
	}
	return raw.Home, raw.Away, raw.HomeForm, raw.AwayForm, nil
}

// FetchHeadToHead returns the head-to-head summary, or nil when the teams
// have no recorded meetings
func (c *Client) FetchHeadToHead(ctx context.Context, fixture models.Fixture) (*models.HeadToHead, error) {
	url := fmt.Sprintf("%s/v1/sports/%s/matches/%s/h2h", c.baseURL, fixture.SportKey, fixture.MatchRef)

	var raw models.HeadToHead
	if err := c.fetch(ctx, url, &raw); err != nil {
		return nil, err
	}
	if raw.Meetings == 0 {
		return nil, nil
	}
	return &raw, nil
}

// FetchAbsences returns injury/suspension lists for both teams
func (c *Client) FetchAbsences(ctx context.Context, fixture models.Fixture) ([]models.Absence, []models.Absence, error) {
	url := fmt.Sprintf("%s/v1/sports/%s/matches/%s/absences", c.baseURL, fixture.SportKey, fixture.MatchRef)

	var raw absencesResponse
	if err := c.fetch(ctx, url, &raw); err != nil {
		return nil, nil, err
	}

	// Distinguish "clean bill of health" from "source had nothing"
	if raw.Home == nil {
		raw.Home = []models.Absence{}
	}
	if raw.Away == nil {
		raw.Away = []models.Absence{}
	}
	return raw.Home, raw.Away, nil
}

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
		return fmt.Errorf("%w: stats feed returned 429", models.ErrRateLimited)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: stats feed has no data at %s", models.ErrInsufficientData, url)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("stats feed error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
