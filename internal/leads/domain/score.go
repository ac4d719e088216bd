package domain

import "math"

const (
	fitWeight    = 0.6
	intentWeight = 0.4

	penaltyUnsubscribe = 50.0
	penaltyCold        = 20.0
	warmIntentBoost    = 10.0
)

// CampaignScore blends fit and intent into a bounded campaign score:
// fit*0.6 + intent*0.4 - penalties, clamped to [0,100] and rounded to
// two decimals. Non-finite inputs degrade to 0.0 so a scoring failure
// never blocks persistence.
func CampaignScore(fit, intent, penalties float64) float64 {
	if !isFinite(fit) || !isFinite(intent) || !isFinite(penalties) {
		return 0.0
	}
	raw := fit*fitWeight + intent*intentWeight - penalties
	return ClampScore(raw)
}

// PenaltyFor returns the score deduction a status carries.
func PenaltyFor(s Status) float64 {
	switch s {
	case StatusUnsubscribe:
		return penaltyUnsubscribe
	case StatusCold:
		return penaltyCold
	default:
		return 0
	}
}

// IntentBoostFor returns the intent adjustment applied before the score
// formula runs. Only WARM carries a boost.
func IntentBoostFor(s Status) float64 {
	if s == StatusWarm {
		return warmIntentBoost
	}
	return 0
}

// ClampScore bounds a value to [0,100] rounded to two decimal places.
// Non-finite values degrade to 0.0.
func ClampScore(v float64) float64 {
	if !isFinite(v) {
		return 0.0
	}
	if v < 0 {
		return 0.0
	}
	if v > 100 {
		return 100.0
	}
	return math.Round(v*100) / 100
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
