// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"outreach_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadStatusChanged is published whenever a campaign status is written,
// including re-confirmations of the same status.
type LeadStatusChanged struct {
	BaseEvent
	Email          string     `json:"email"`
	CampaignID     string     `json:"campaignId"`
	Status         string     `json:"status"`
	Score          float64    `json:"score"`
	NextFollowUpAt *time.Time `json:"nextFollowUpAt,omitempty"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// LeadEnriched is published after an enrichment pass updates a lead's scores.
type LeadEnriched struct {
	BaseEvent
	Email       string  `json:"email"`
	FitScore    float64 `json:"fitScore"`
	IntentScore float64 `json:"intentScore"`
}

func (e LeadEnriched) EventName() string { return "leads.enriched" }

// EmailSent is published when the outreach sender dispatches (or dry-runs) a message.
type EmailSent struct {
	BaseEvent
	Recipient  string `json:"recipient"`
	CampaignID string `json:"campaignId,omitempty"`
	MessageID  string `json:"messageId"`
	DryRun     bool   `json:"dryRun"`
}

func (e EmailSent) EventName() string { return "outreach.email.sent" }
