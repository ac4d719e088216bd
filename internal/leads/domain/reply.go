package domain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Classifier maps free-text reply content to a status via ordered,
// case-insensitive substring matching. Categories are evaluated in fixed
// precedence: delivery failures and opt-outs are unambiguous signals and
// must win over any accidental sentiment keyword collision.
type Classifier struct {
	categories []category
}

type category struct {
	status   Status
	keywords []string
}

var defaultKeywords = map[Status][]string{
	StatusBounced: {
		"undeliverable", "mail delivery", "mail failure", "address not found", "bounced",
	},
	StatusUnsubscribe: {
		"unsubscribe", "remove me", "take me off", "stop emailing", "opt out", "do not contact",
	},
	StatusWarm: {
		"interested", "let's talk", "lets talk", "schedule", "book", "demo", "call",
		"meet", "next week", "follow up", "sounds good", "sure", "yes",
	},
	StatusCold: {
		"not interested", "no thanks", "no thank you", "stop", "decline",
		"we're good", "already have", "not a fit",
	},
}

// classifyOrder fixes category precedence: first match wins.
var classifyOrder = []Status{StatusBounced, StatusUnsubscribe, StatusWarm, StatusCold}

// NewClassifier builds a classifier with the built-in keyword sets.
func NewClassifier() *Classifier {
	return newClassifier(defaultKeywords)
}

// NewClassifierFromFile builds a classifier whose keyword sets are
// overridden per category from a YAML file. Categories absent from the
// file keep their built-in keywords. The category order never changes.
//
// Expected shape:
//
//	warm: ["interested", "let's chat"]
//	cold: ["not interested"]
func NewClassifierFromFile(path string) (*Classifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier rules: %w", err)
	}

	var overrides map[string][]string
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse classifier rules: %w", err)
	}

	keywords := make(map[Status][]string, len(defaultKeywords))
	for status, words := range defaultKeywords {
		keywords[status] = words
	}
	for name, words := range overrides {
		status := NormalizeStatus(name, "")
		if !status.Valid() {
			return nil, fmt.Errorf("classifier rules: unknown category %q", name)
		}
		if len(words) > 0 {
			keywords[status] = words
		}
	}

	return newClassifier(keywords), nil
}

func newClassifier(keywords map[Status][]string) *Classifier {
	categories := make([]category, 0, len(classifyOrder))
	for _, status := range classifyOrder {
		lowered := make([]string, len(keywords[status]))
		for i, word := range keywords[status] {
			lowered[i] = strings.ToLower(word)
		}
		categories = append(categories, category{status: status, keywords: lowered})
	}
	return &Classifier{categories: categories}
}

// Classify returns the status for a free-text reply. Empty input is
// NEUTRAL, never an error.
func (c *Classifier) Classify(text string) Status {
	lowered := strings.ToLower(text)
	if strings.TrimSpace(lowered) == "" {
		return StatusNeutral
	}

	for _, cat := range c.categories {
		for _, keyword := range cat.keywords {
			if strings.Contains(lowered, keyword) {
				return cat.status
			}
		}
	}
	return StatusNeutral
}
