// Package reputation computes trust scores for credentials and issuers from
// verification history, and keeps the persisted reputation rows current.
//
// All scores live on a 0-100 scale. Fractional intermediates round half up,
// and every published score is clamped; both rules are part of the score
// contract, not implementation detail.
package reputation

import (
	"math"
	"time"

	"github.com/agentid-dev/agentid-core/pkg/store"
)

// Composite weights. They sum to 1.0.
const (
	weightVerification = 0.30
	weightLongevity    = 0.25
	weightActivity     = 0.20
	weightIssuer       = 0.25
)

// Issuer bonus values for the composite score.
const (
	issuerBonusVerified   = 100.0
	issuerBonusUnverified = 50.0
)

// neutralScore is used where history is empty and no judgement is possible.
const neutralScore = 50

type curvePoint struct {
	day   float64
	score float64
}

// longevityCurve maps credential age in days to a longevity score.
var longevityCurve = []curvePoint{
	{0, 0},
	{30, 25},
	{90, 50},
	{180, 75},
	{365, 100},
}

// activityCurve maps days since the last verification to an activity score.
// Scores decay from 100 within a day of activity down to a floor of 10 past
// 180 days.
var activityCurve = []curvePoint{
	{1, 100},
	{7, 90},
	{30, 70},
	{90, 40},
	{180, 10},
}

// LongevityScore scores credential age: zero at issuance, rising through the
// longevity curve to 100 at one year. Monotonically non-decreasing in age.
func LongevityScore(age time.Duration) int {
	return interpolate(longevityCurve, age.Hours()/24)
}

// VerificationScore scores verification history. With no history the score
// is neutral (50). Otherwise it is the success rate in percent plus a volume
// bonus of one point per ten verifications, capped at ten.
func VerificationScore(total, successful int64) int {
	if total <= 0 {
		return neutralScore
	}

	rate := float64(successful) / float64(total)
	base := roundHalfUp(rate * 100)

	bonus := total / 10
	if bonus > 10 {
		bonus = 10
	}

	return clampScore(base + int(bonus))
}

// ActivityScore scores recency of use: 100 within a day of the last
// verification, decaying along the activity curve to a floor of 10 beyond
// 180 days.
func ActivityScore(sinceLast time.Duration) int {
	return interpolate(activityCurve, sinceLast.Hours()/24)
}

// CompositeScore blends the three subscores with the issuer bonus:
// 30% verification, 25% longevity, 20% activity, 25% issuer standing.
func CompositeScore(verification, longevity, activity int, issuerVerified bool) int {
	bonus := issuerBonusUnverified
	if issuerVerified {
		bonus = issuerBonusVerified
	}

	raw := weightVerification*float64(verification) +
		weightLongevity*float64(longevity) +
		weightActivity*float64(activity) +
		weightIssuer*bonus

	return clampScore(roundHalfUp(raw))
}

// IssuerTrustScore recomputes an issuer's aggregate trust from issuer-wide
// statistics: the success rate across all its credentials, discounted by up
// to half as the fraction of revoked credentials grows. An issuer with no
// verification history yet scores neutral (50).
func IssuerTrustScore(stats *store.IssuerStats) int {
	if stats == nil || stats.TotalVerifications <= 0 {
		return neutralScore
	}

	revokedFraction := 0.0
	if stats.CredentialCount > 0 {
		revokedFraction = float64(stats.RevokedCount) / float64(stats.CredentialCount)
	}

	successRate := float64(stats.SuccessfulVerifications) / float64(stats.TotalVerifications)
	raw := (1 - revokedFraction*0.5) * successRate * 100

	return clampScore(roundHalfUp(raw))
}

// interpolate evaluates a piecewise-linear curve at day, clamping to the
// curve's endpoints outside its range.
func interpolate(curve []curvePoint, day float64) int {
	if day <= curve[0].day {
		return roundHalfUp(curve[0].score)
	}
	last := curve[len(curve)-1]
	if day >= last.day {
		return roundHalfUp(last.score)
	}

	for i := 1; i < len(curve); i++ {
		if day > curve[i].day {
			continue
		}
		lo, hi := curve[i-1], curve[i]
		fraction := (day - lo.day) / (hi.day - lo.day)
		return roundHalfUp(lo.score + fraction*(hi.score-lo.score))
	}
	return roundHalfUp(last.score)
}

// roundHalfUp rounds to the nearest integer with .5 rounding up, the
// convention every score in this package follows.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
