// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	if formatted, ok := ValidE164(input); ok {
		return formatted
	}
	return strings.TrimSpace(input)
}

// ValidE164 formats a phone number to E.164 and reports whether the
// input was a valid number. Scraped page text yields plenty of digit
// runs that only look like phone numbers; callers use ok to drop them.
func ValidE164(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return "", false
	}

	if !phonenumbers.IsValidNumber(number) {
		return "", false
	}

	return phonenumbers.Format(number, phonenumbers.E164), true
}
