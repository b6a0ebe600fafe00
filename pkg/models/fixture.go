package models

import "time"

// Fixture is a scheduled match as listed by the odds provider; the sweep
// iterates these
type Fixture struct {
	MatchRef string    `json:"match_ref"`
	SportKey string    `json:"sport_key"`
	League   string    `json:"league"`
	HomeTeam string    `json:"home_team"`
	AwayTeam string    `json:"away_team"`
	Kickoff  time.Time `json:"kickoff"`
}
