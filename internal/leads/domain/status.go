// Package domain holds the lead lifecycle model: the status vocabulary,
// the reply classifier, the campaign score calculator, and the merge
// rules for the persisted lead record.
package domain

import "strings"

// Status is a campaign lifecycle status. The set is closed; anything
// outside it is coerced by NormalizeStatus before persistence.
type Status string

const (
	StatusNew         Status = "NEW"
	StatusSent        Status = "SENT"
	StatusNeutral     Status = "NEUTRAL"
	StatusWarm        Status = "WARM"
	StatusCold        Status = "COLD"
	StatusUnsubscribe Status = "UNSUBSCRIBE"
	StatusBounced     Status = "BOUNCED"
)

// AllStatuses lists every member of the status vocabulary.
var AllStatuses = []Status{
	StatusNew,
	StatusSent,
	StatusNeutral,
	StatusWarm,
	StatusCold,
	StatusUnsubscribe,
	StatusBounced,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(AllStatuses))
	for _, s := range AllStatuses {
		set[s] = struct{}{}
	}
	return set
}()

// Valid reports whether s is a member of the status vocabulary.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// NormalizeStatus coerces arbitrary input into the status vocabulary.
// It trims whitespace and upper-cases the candidate; unknown input falls
// back to the provided default. Total: it never fails, so malformed
// upstream input cannot break persistence.
func NormalizeStatus(candidate string, fallback Status) Status {
	normalized := Status(strings.ToUpper(strings.TrimSpace(candidate)))
	if normalized.Valid() {
		return normalized
	}
	return fallback
}

// AwaitingResponse reports whether a status keeps the lead on the
// follow-up schedule.
func AwaitingResponse(s Status) bool {
	return s == StatusSent || s == StatusNeutral
}
