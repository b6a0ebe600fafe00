package models

import "time"

// Lean indicates which side a signal favors
type Lean string

const (
	LeanHome Lean = "home"
	LeanAway Lean = "away"
	LeanEven Lean = "even"
)

// Outcome identifies a market outcome
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeAway Outcome = "away"
	OutcomeDraw Outcome = "draw"
)

// TeamRecord holds a team's season record
type TeamRecord struct {
	Played   int `json:"played"`
	Won      int `json:"won"`
	Drawn    int `json:"drawn"`
	Lost     int `json:"lost"`
	Scored   int `json:"scored"`
	Conceded int `json:"conceded"`

	// Venue split: for the home team this is its record at home,
	// for the away team its record on the road
	SplitPlayed int `json:"split_played"`
	SplitWon    int `json:"split_won"`
}

// HeadToHead summarizes prior meetings between the two teams
type HeadToHead struct {
	Meetings   int `json:"meetings"`
	HomeWins   int `json:"home_wins"`
	AwayWins   int `json:"away_wins"`
	Draws      int `json:"draws"`
	TotalGoals int `json:"total_goals"`
}

// AbsenceStatus classifies why a player is unavailable
type AbsenceStatus string

const (
	AbsenceInjured   AbsenceStatus = "injured"
	AbsenceSuspended AbsenceStatus = "suspended"
	AbsenceDoubtful  AbsenceStatus = "doubtful"
)

// Absence is a single unavailable player
type Absence struct {
	Player    string        `json:"player"`
	Position  string        `json:"position"`
	Status    AbsenceStatus `json:"status"`
	KeyPlayer bool          `json:"key_player"`
}

// RawMatchInput is the per-invocation bundle of everything known about a
// fixture before normalization. Built fresh per analysis, never persisted.
type RawMatchInput struct {
	SportKey string `json:"sport_key"`
	League   string `json:"league"`
	MatchRef string `json:"match_ref"`

	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`

	Kickoff time.Time `json:"kickoff"`

	// Form strings, most recent result first, e.g. "WWDLW"
	HomeForm string `json:"home_form"`
	AwayForm string `json:"away_form"`

	HomeRecord TeamRecord `json:"home_record"`
	AwayRecord TeamRecord `json:"away_record"`

	HeadToHead *HeadToHead `json:"head_to_head,omitempty"`

	// Optional structured absence lists; nil means the source was unavailable,
	// an empty slice means a clean bill of health
	HomeAbsences []Absence `json:"home_absences,omitempty"`
	AwayAbsences []Absence `json:"away_absences,omitempty"`
}
