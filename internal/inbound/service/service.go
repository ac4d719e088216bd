// Package service ingests delivery events and inbound replies from the
// mail provider and folds them into lead statuses.
package service

import (
	"bytes"
	"context"
	"net/mail"
	"strings"

	"outreach_backend/internal/leads/domain"
	leadsservice "outreach_backend/internal/leads/service"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/sanitize"

	"github.com/jhillyerd/enmime/v2"
)

const (
	opProviderEvents = "inbound.service.provider_events"
	opInbound        = "inbound.service.inbound"

	// replyNoteLimit bounds how much reply text is stored as the note.
	replyNoteLimit = 500

	defaultCampaignID = "default"
)

// statusByNotification maps provider delivery notifications onto the
// lead status vocabulary. Unknown types are skipped.
var statusByNotification = map[string]domain.Status{
	"Bounce":    domain.StatusBounced,
	"Complaint": domain.StatusUnsubscribe,
	"Delivery":  domain.StatusSent,
}

// Lifecycle is the slice of the lead engine the ingester needs.
type Lifecycle interface {
	UpdateStatus(ctx context.Context, input leadsservice.UpdateStatusInput) (*domain.Lead, error)
}

// MailFetcher reads a raw MIME message out of object storage.
type MailFetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// ProviderNotification is one delivery event as the provider posts it.
type ProviderNotification struct {
	NotificationType string `json:"notificationType"`
	Mail             struct {
		MessageID string              `json:"messageId"`
		Tags      map[string][]string `json:"tags"`
	} `json:"mail"`
}

// ProviderEnvelope is the batch envelope around delivery events.
type ProviderEnvelope struct {
	Records []struct {
		Notification ProviderNotification `json:"notification"`
	} `json:"Records"`
}

// BatchResult counts what happened to a best-effort batch.
type BatchResult struct {
	Processed int
	Skipped   int
	Failed    int
}

// InboundMessage is one reply, either a pointer into object storage or
// the already-parsed fields.
type InboundMessage struct {
	Bucket  string
	Key     string
	From    string
	Subject string
	Text    string
}

// InboundResult reports how one reply was folded into a lead.
type InboundResult struct {
	Email      string
	CampaignID string
	Status     domain.Status
}

// Service ingests provider events and replies.
type Service struct {
	lifecycle Lifecycle
	mail      MailFetcher
	log       *logger.Logger
}

// New creates the ingester. mail may be nil when no object store is
// configured; bucket-referenced messages then fail per record.
func New(lifecycle Lifecycle, mail MailFetcher, log *logger.Logger) *Service {
	return &Service{lifecycle: lifecycle, mail: mail, log: log}
}

// HandleProviderEvents folds a batch of delivery events into lead
// statuses. Item failures are logged and skipped so the provider never
// sees the batch fail.
func (s *Service) HandleProviderEvents(ctx context.Context, envelope ProviderEnvelope) BatchResult {
	var result BatchResult
	for _, record := range envelope.Records {
		notification := record.Notification
		status, ok := statusByNotification[notification.NotificationType]
		if !ok {
			result.Skipped++
			continue
		}

		campaignID := firstTag(notification.Mail.Tags, "campaign_id", defaultCampaignID)
		email := strings.ToLower(firstTag(notification.Mail.Tags, "lead_email", ""))
		if email == "" {
			s.log.Warn("delivery event without lead email skipped",
				"type", notification.NotificationType, "messageId", notification.Mail.MessageID)
			result.Skipped++
			continue
		}

		_, err := s.lifecycle.UpdateStatus(ctx, leadsservice.UpdateStatusInput{
			Email:      email,
			CampaignID: campaignID,
			Status:     string(status),
			Note:       "provider:" + notification.NotificationType,
		})
		if err != nil {
			s.log.Warn("delivery event not applied",
				"email", email, "campaign", campaignID, "type", notification.NotificationType, "error", err)
			result.Failed++
			continue
		}

		s.log.Info("delivery event applied",
			"email", email, "campaign", campaignID,
			"status", string(status), "messageId", notification.Mail.MessageID)
		result.Processed++
	}
	return result
}

// HandleInbound folds one reply into its lead. The campaign and lead are
// recovered from the subject correlation tag; without one the sender's
// address and the default campaign are used.
func (s *Service) HandleInbound(ctx context.Context, msg InboundMessage) (*InboundResult, error) {
	from, subject, body, err := s.resolveMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	campaignID, email, tagged := ParseSubjectTag(subject)
	if !tagged {
		campaignID = defaultCampaignID
		email = senderAddress(from)
	}
	if email == "" {
		return nil, apperr.Validation("cannot determine lead email from message").WithOp(opInbound)
	}

	// Replies may arrive as HTML; the stored note is text only.
	reply := truncate(sanitize.Text(body), replyNoteLimit)
	lead, err := s.lifecycle.UpdateStatus(ctx, leadsservice.UpdateStatusInput{
		Email:      email,
		CampaignID: campaignID,
		ReplyText:  reply,
	})
	if err != nil {
		return nil, err
	}

	campaign := lead.Campaigns[campaignID]
	result := &InboundResult{Email: lead.Email, CampaignID: campaignID}
	if campaign != nil {
		result.Status = campaign.Status
	}
	s.log.Info("inbound reply applied",
		"email", result.Email, "campaign", campaignID, "status", string(result.Status))
	return result, nil
}

// resolveMessage yields from/subject/body whether the message arrives as
// an object reference or as direct fields.
func (s *Service) resolveMessage(ctx context.Context, msg InboundMessage) (from, subject, body string, err error) {
	if msg.Key == "" {
		if msg.From == "" && msg.Subject == "" && msg.Text == "" {
			return "", "", "", apperr.Validation("either an object key or from/subject/text is required").WithOp(opInbound)
		}
		return msg.From, msg.Subject, msg.Text, nil
	}

	if s.mail == nil {
		return "", "", "", apperr.Unavailable("inbound mail store is not configured").WithOp(opInbound)
	}
	raw, err := s.mail.Fetch(ctx, msg.Bucket, msg.Key)
	if err != nil {
		return "", "", "", apperr.Wrap(apperr.KindUnavailable, "failed to fetch inbound message", err).WithOp(opInbound)
	}

	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", "", "", apperr.Wrap(apperr.KindBadRequest, "failed to parse inbound message", err).WithOp(opInbound)
	}

	body = envelope.Text
	if body == "" {
		body = envelope.HTML
	}
	return envelope.GetHeader("From"), envelope.GetHeader("Subject"), body, nil
}

// ParseSubjectTag recovers the campaign and lead from a subject tag of
// the form "[CID:campaign|email]". ok is false when no tag is present
// or it is malformed.
func ParseSubjectTag(subject string) (campaignID, email string, ok bool) {
	_, rest, found := strings.Cut(subject, "[CID:")
	if !found {
		return "", "", false
	}
	tag, _, found := strings.Cut(rest, "]")
	if !found {
		return "", "", false
	}
	campaignID, email, found = strings.Cut(tag, "|")
	if !found {
		return "", "", false
	}
	campaignID = strings.TrimSpace(campaignID)
	email = strings.ToLower(strings.TrimSpace(email))
	if campaignID == "" || email == "" {
		return "", "", false
	}
	return campaignID, email, true
}

// senderAddress extracts the bare address from a From header.
func senderAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	return strings.ToLower(strings.TrimSpace(from))
}

func firstTag(tags map[string][]string, key, fallback string) string {
	if values, ok := tags[key]; ok && len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return fallback
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
