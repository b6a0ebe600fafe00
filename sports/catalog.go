// Package sports holds per-sport calibration profiles: market shape,
// conviction ceilings, tempo baselines, and per-league calibration tables.
// Profiles are loaded once at startup and passed explicitly into the
// calculators so tests can override them per case.
package sports

import "strings"

// LeagueCalibration tunes how far the model may deviate from market
// consensus in one league, and when a prediction is worth emitting at all
type LeagueCalibration struct {
	// CalibrationFactor scales model deviation from implied probability.
	// 1.0 = full trust in signals; leagues with historically poor
	// calibration sit below 1.0 and get pulled toward the market.
	CalibrationFactor float64 `yaml:"calibration_factor"`

	// MinWinnerProb gates prediction emission: below this winner-side
	// model probability, no prediction is recorded. Distinct from the
	// value-bet thresholds.
	MinWinnerProb float64 `yaml:"min_winner_prob"`
}

// Profile is one sport's calibration
type Profile struct {
	Key         string `yaml:"key"`
	DisplayName string `yaml:"display_name"`

	// HasDraw marks three-way markets (soccer) vs two-way (basketball)
	HasDraw bool `yaml:"has_draw"`

	// ConvictionCap bounds conviction regardless of model probability,
	// reflecting known per-sport calibration quality. Applied after the
	// 1-10 clamp, never before.
	ConvictionCap int `yaml:"conviction_cap"`

	// TempoBaseline is the league-average combined score per game used to
	// bucket tempo
	TempoBaseline float64 `yaml:"tempo_baseline"`

	// Leagues maps league keys to calibration overrides; unknown leagues
	// fall back to Default
	Leagues map[string]LeagueCalibration `yaml:"leagues"`
	Default LeagueCalibration            `yaml:"default"`
}

// Calibration resolves the calibration for a league key, falling back to
// the sport default for unknown leagues
func (p *Profile) Calibration(league string) LeagueCalibration {
	if c, ok := p.Leagues[normalizeKey(league)]; ok {
		return c
	}
	return p.Default
}

// Catalog is the set of supported sports
type Catalog struct {
	profiles map[string]*Profile
}

// NewCatalog builds a catalog from profiles, keyed by normalized sport key
func NewCatalog(profiles ...*Profile) *Catalog {
	c := &Catalog{profiles: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		c.profiles[normalizeKey(p.Key)] = p
	}
	return c
}

// Profile returns the profile for a sport key, or the generic fallback
// profile when the sport is unknown
func (c *Catalog) Profile(sportKey string) *Profile {
	if p, ok := c.profiles[normalizeKey(sportKey)]; ok {
		return p
	}
	return genericProfile
}

// Keys returns the registered sport keys
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.profiles))
	for k := range c.profiles {
		keys = append(keys, k)
	}
	return keys
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}
