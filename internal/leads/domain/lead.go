package domain

import (
	"strings"
	"time"
)

// History actions recorded on lead mutations.
const (
	ActionUpsert       = "UPSERT"
	ActionStatusUpdate = "STATUS_UPDATE"
	ActionEnrich       = "ENRICH"
	ActionSend         = "SEND"
	ActionFollowUpDue  = "FOLLOWUP_DUE"
)

// HistoryEntry is one append-only audit record on a lead.
type HistoryEntry struct {
	TS     time.Time `json:"ts"`
	Action string    `json:"action"`
	Status Status    `json:"status,omitempty"`
	Note   string    `json:"note,omitempty"`
}

// Campaign is a lead's participation in one outreach effort.
type Campaign struct {
	Status         Status     `json:"status"`
	Note           string     `json:"note,omitempty"`
	LastReply      string     `json:"lastReply,omitempty"`
	Score          float64    `json:"score"`
	MessageID      string     `json:"messageId,omitempty"`
	LastSentAt     *time.Time `json:"lastSentAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	NextFollowUpAt *time.Time `json:"nextFollowUpAt,omitempty"`
}

// Lead is the root entity, keyed by lower-cased email.
type Lead struct {
	Email           string               `json:"email"`
	Company         string               `json:"company,omitempty"`
	Aliases         []string             `json:"aliases,omitempty"`
	Profile         map[string]any       `json:"profile,omitempty"`
	Signals         map[string]any       `json:"signals,omitempty"`
	FitScore        float64              `json:"fitScore"`
	IntentScore     float64              `json:"intentScore"`
	Campaigns       map[string]*Campaign `json:"campaigns,omitempty"`
	History         []HistoryEntry       `json:"history,omitempty"`
	CreditedSignals []string             `json:"creditedSignals,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// NormalizeEmail lower-cases and trims an email for use as a store key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewLead creates an empty lead for the given email.
func NewLead(email string, now time.Time) *Lead {
	return &Lead{
		Email:     NormalizeEmail(email),
		Profile:   map[string]any{},
		Signals:   map[string]any{},
		Campaigns: map[string]*Campaign{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EnsureCampaign returns the campaign for id, creating it with status NEW
// on first reference. Campaign keys are never removed.
func (l *Lead) EnsureCampaign(id string, now time.Time) *Campaign {
	if l.Campaigns == nil {
		l.Campaigns = map[string]*Campaign{}
	}
	if existing, ok := l.Campaigns[id]; ok {
		return existing
	}
	created := &Campaign{Status: StatusNew, UpdatedAt: now}
	l.Campaigns[id] = created
	return created
}

// AppendHistory records an audit entry. History is append-only and never
// truncated here.
func (l *Lead) AppendHistory(now time.Time, action string, status Status, note string) {
	l.History = append(l.History, HistoryEntry{TS: now, Action: action, Status: status, Note: note})
}

// HasCredited reports whether an enrichment signal key was already
// credited to this lead's scores.
func (l *Lead) HasCredited(key string) bool {
	for _, credited := range l.CreditedSignals {
		if credited == key {
			return true
		}
	}
	return false
}

// MarkCredited records an enrichment signal key as credited.
func (l *Lead) MarkCredited(key string) {
	if !l.HasCredited(key) {
		l.CreditedSignals = append(l.CreditedSignals, key)
	}
}

// Merge combines an incoming write with the stored record without
// destroying concurrent work on other keys. Rules:
//
//   - email is never mutated;
//   - a changed company supersedes the old one, which is retained in the
//     aliases set;
//   - profile, signals and campaigns are union-merged key-wise, incoming
//     wins per key;
//   - fit/intent scores are taken from the incoming record when it
//     recomputed them (a zero incoming score means "not recomputed");
//   - history keeps whichever side has more entries, since writers only
//     ever append to the copy they read.
//
// Merge returns a new record; neither argument is mutated.
func Merge(existing, incoming *Lead, now time.Time) *Lead {
	if existing == nil {
		out := cloneLead(incoming)
		if out.CreatedAt.IsZero() {
			out.CreatedAt = now
		}
		out.UpdatedAt = now
		return out
	}

	out := cloneLead(existing)
	out.UpdatedAt = now

	if incoming.Company != "" && incoming.Company != out.Company {
		if out.Company != "" {
			out.Aliases = appendUnique(out.Aliases, out.Company)
		}
		out.Company = incoming.Company
	}

	out.Profile = mergeMaps(out.Profile, incoming.Profile)
	out.Signals = mergeMaps(out.Signals, incoming.Signals)

	if incoming.FitScore != 0 {
		out.FitScore = incoming.FitScore
	}
	if incoming.IntentScore != 0 {
		out.IntentScore = incoming.IntentScore
	}

	if len(incoming.Campaigns) > 0 {
		if out.Campaigns == nil {
			out.Campaigns = map[string]*Campaign{}
		}
		for id, campaign := range incoming.Campaigns {
			copied := *campaign
			out.Campaigns[id] = &copied
		}
	}

	if len(incoming.History) > len(out.History) {
		out.History = append([]HistoryEntry(nil), incoming.History...)
	}

	for _, key := range incoming.CreditedSignals {
		out.CreditedSignals = appendUnique(out.CreditedSignals, key)
	}

	return out
}

func cloneLead(l *Lead) *Lead {
	out := *l
	out.Aliases = append([]string(nil), l.Aliases...)
	out.Profile = mergeMaps(nil, l.Profile)
	out.Signals = mergeMaps(nil, l.Signals)
	out.History = append([]HistoryEntry(nil), l.History...)
	out.CreditedSignals = append([]string(nil), l.CreditedSignals...)
	out.Campaigns = make(map[string]*Campaign, len(l.Campaigns))
	for id, campaign := range l.Campaigns {
		copied := *campaign
		out.Campaigns[id] = &copied
	}
	return &out
}

func mergeMaps(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
