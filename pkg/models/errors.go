package models

import "errors"

// Failure taxonomy. Market errors abort a single match's analysis without
// aborting a batch; ErrRateLimited halts further provider calls for the
// whole sweep; everything else degrades.
var (
	// ErrNoMarketData - a required side's odds are missing
	ErrNoMarketData = errors.New("no market data for required outcome")

	// ErrInvalidOdds - an odds value is <= 1.0 or non-finite
	ErrInvalidOdds = errors.New("invalid odds value")

	// ErrInsufficientData - a stats input lacks the sample size to be used;
	// the owning signal degrades, the analysis continues
	ErrInsufficientData = errors.New("insufficient input data")

	// ErrRateLimited - a provider refused further calls; the batch
	// controller stops starting new matches
	ErrRateLimited = errors.New("provider rate limit exceeded")

	// ErrNarrativeUnavailable - the narrative oracle failed or returned
	// garbage; callers fall back to the deterministic insight
	ErrNarrativeUnavailable = errors.New("narrative service unavailable")
)

// ErrorResponse is the JSON body returned for any failed API request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
