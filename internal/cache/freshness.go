package cache

import "time"

// KickoffBypassWindow is how close to kickoff a cached entry stops being
// trusted: late team news and sharp money arrive in this window, so the
// pipeline recomputes even on a cache hit.
const KickoffBypassWindow = 30 * time.Minute

// ShouldBypass reports whether a cached entry must be ignored for a match
// with the given kickoff. True inside the pre-kickoff window and once the
// match is underway.
func ShouldBypass(kickoff, now time.Time) bool {
	if kickoff.IsZero() {
		return false
	}
	return now.After(kickoff.Add(-KickoffBypassWindow))
}
