package sports

// Built-in profiles. Conviction caps reflect observed calibration quality:
// soccer three-way markets are the hardest to beat, so they carry the
// lowest ceiling.

// SoccerProfile covers association football three-way markets
func SoccerProfile() *Profile {
	return &Profile{
		Key:           "soccer",
		DisplayName:   "Soccer",
		HasDraw:       true,
		ConvictionCap: 8,
		TempoBaseline: 2.7, // goals per match across major leagues
		Leagues: map[string]LeagueCalibration{
			"epl":        {CalibrationFactor: 0.85, MinWinnerProb: 0.42},
			"laliga":     {CalibrationFactor: 0.85, MinWinnerProb: 0.42},
			"bundesliga": {CalibrationFactor: 0.80, MinWinnerProb: 0.42},
			"seriea":     {CalibrationFactor: 0.80, MinWinnerProb: 0.42},
			"ligue1":     {CalibrationFactor: 0.75, MinWinnerProb: 0.45},
			"mls":        {CalibrationFactor: 0.60, MinWinnerProb: 0.48},
		},
		Default: LeagueCalibration{CalibrationFactor: 0.70, MinWinnerProb: 0.45},
	}
}

// BasketballProfile covers two-way basketball moneylines
func BasketballProfile() *Profile {
	return &Profile{
		Key:           "basketball",
		DisplayName:   "Basketball",
		HasDraw:       false,
		ConvictionCap: 9,
		TempoBaseline: 224.0, // combined points per game, NBA-era pace
		Leagues: map[string]LeagueCalibration{
			"nba":        {CalibrationFactor: 0.90, MinWinnerProb: 0.52},
			"euroleague": {CalibrationFactor: 0.75, MinWinnerProb: 0.55},
		},
		Default: LeagueCalibration{CalibrationFactor: 0.75, MinWinnerProb: 0.55},
	}
}

// HockeyProfile covers ice hockey; quoted here as a two-way market with
// overtime included
func HockeyProfile() *Profile {
	return &Profile{
		Key:           "hockey",
		DisplayName:   "Ice Hockey",
		HasDraw:       false,
		ConvictionCap: 7,
		TempoBaseline: 6.1, // combined goals per game
		Leagues: map[string]LeagueCalibration{
			"nhl": {CalibrationFactor: 0.80, MinWinnerProb: 0.52},
		},
		Default: LeagueCalibration{CalibrationFactor: 0.70, MinWinnerProb: 0.55},
	}
}

// FootballProfile covers American football two-way moneylines
func FootballProfile() *Profile {
	return &Profile{
		Key:           "american_football",
		DisplayName:   "American Football",
		HasDraw:       false,
		ConvictionCap: 9,
		TempoBaseline: 44.0, // combined points per game
		Leagues: map[string]LeagueCalibration{
			"nfl":   {CalibrationFactor: 0.90, MinWinnerProb: 0.52},
			"ncaaf": {CalibrationFactor: 0.70, MinWinnerProb: 0.55},
		},
		Default: LeagueCalibration{CalibrationFactor: 0.75, MinWinnerProb: 0.55},
	}
}

// genericProfile backstops unknown sport keys: two-way market, conservative
// cap, market-hugging calibration
var genericProfile = &Profile{
	Key:           "generic",
	DisplayName:   "Generic",
	HasDraw:       false,
	ConvictionCap: 6,
	TempoBaseline: 0,
	Default:       LeagueCalibration{CalibrationFactor: 0.50, MinWinnerProb: 0.55},
}

// DefaultCatalog returns the built-in sport set
func DefaultCatalog() *Catalog {
	return NewCatalog(
		SoccerProfile(),
		BasketballProfile(),
		HockeyProfile(),
		FootballProfile(),
	)
}
