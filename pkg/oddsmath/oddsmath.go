// Package oddsmath provides decimal-odds probability math: implied
// probability extraction, bookmaker margin (overround) removal, and
// model-vs-market edge computation.
package oddsmath

import (
	"fmt"
	"math"
)

// ValidateDecimal checks that a decimal odds value is usable.
// Anything <= 1.0 pays nothing or less and anything non-finite is garbage.
func ValidateDecimal(odds float64) error {
	if math.IsNaN(odds) || math.IsInf(odds, 0) {
		return fmt.Errorf("odds must be finite, got %v", odds)
	}
	if odds <= 1.0 {
		return fmt.Errorf("odds must be > 1.0, got %v", odds)
	}
	return nil
}

// ImpliedProbability converts decimal odds to raw implied probability
// (margin still included).
// Decimal 2.00 → 0.50 | Decimal 1.50 → 0.667
func ImpliedProbability(odds float64) (float64, error) {
	if err := ValidateDecimal(odds); err != nil {
		return 0, err
	}
	return 1.0 / odds, nil
}

// RemoveOverround strips the bookmaker margin from a set of decimal odds
// using multiplicative normalization.
//
// Formula:
// 1. Convert each outcome to raw implied probability (1/odds)
// 2. Overround = sum of raw probabilities (typically > 1.0)
// 3. Normalize: fair_i = raw_i / overround
// 4. Fair probabilities now sum to 1.0
//
// Example:
// Home 1.80 (55.6%) | Away 4.50 (22.2%) | Draw 3.60 (27.8%)
// Overround: 105.6% (5.6% margin)
// Fair: 52.6% / 21.0% / 26.3%
//
// Returns the fair probabilities in input order and the margin as a
// fraction (0.056 for 5.6%).
func RemoveOverround(odds []float64) (fair []float64, margin float64, err error) {
	if len(odds) < 2 {
		return nil, 0, fmt.Errorf("need at least 2 outcomes, got %d", len(odds))
	}

	raw := make([]float64, len(odds))
	total := 0.0
	for i, o := range odds {
		if err := ValidateDecimal(o); err != nil {
			return nil, 0, err
		}
		raw[i] = 1.0 / o
		total += raw[i]
	}

	// A book quoting a combined probability at or under 100% would be an
	// arbitrage, not a margin; normalization still yields a valid
	// distribution so it is not an error here
	fair = make([]float64, len(raw))
	for i, p := range raw {
		fair[i] = p / total
	}

	return fair, total - 1.0, nil
}

// EdgePoints computes the model-vs-market gap in percentage points.
// Edge = (modelProb - impliedProb) * 100
//
// Positive edge = the market underprices the outcome.
func EdgePoints(modelProb, impliedProb float64) (float64, error) {
	if modelProb < 0 || modelProb > 1 {
		return 0, fmt.Errorf("model probability must be in [0,1], got %v", modelProb)
	}
	if impliedProb <= 0 || impliedProb >= 1 {
		return 0, fmt.Errorf("implied probability must be in (0,1), got %v", impliedProb)
	}
	return (modelProb - impliedProb) * 100.0, nil
}

// MarginPercent computes the overround of a set of decimal odds as a
// percentage.
// Home 1.80 | Away 4.50 | Draw 3.60 → 5.56%
func MarginPercent(odds []float64) (float64, error) {
	if len(odds) == 0 {
		return 0, fmt.Errorf("no odds provided")
	}

	total := 0.0
	for _, o := range odds {
		if err := ValidateDecimal(o); err != nil {
			return 0, err
		}
		total += 1.0 / o
	}

	if total <= 1.0 {
		return 0, nil // no margin
	}
	return (total - 1.0) * 100.0, nil
}

// Round4 rounds a probability to four decimal places for display.
func Round4(p float64) float64 {
	return math.Round(p*10000) / 10000
}
