// Package service implements the lead lifecycle engine: status writes,
// reply classification, score recomputation, follow-up scheduling and
// enrichment application over the lead store.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"outreach_backend/internal/events"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/repository"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

const (
	opUpsert       = "leads.service.upsert"
	opUpdateStatus = "leads.service.update_status"
	opRecordSend   = "leads.service.record_send"
	opEnrich       = "leads.service.enrich"
	opGet          = "leads.service.get"
	opFollowUpDue  = "leads.service.follow_up_due"

	// followUpStaleTolerance allows for clock jitter between the scheduled
	// task payload and the stored follow-up timestamp.
	followUpStaleTolerance = time.Second

	defaultListLimit = 50
	maxListLimit     = 200
)

// UpsertInput stores or updates a lead with upsert intent.
type UpsertInput struct {
	Email      string
	Company    string
	CampaignID string
	Status     string
	Note       string
}

// UpdateStatusInput updates an existing lead's campaign status, either
// from an explicit status or by classifying free reply text.
type UpdateStatusInput struct {
	Email      string
	CampaignID string
	Status     string
	ReplyText  string
	// Note annotates the write when no reply text is present, e.g. a
	// provider event label.
	Note string
}

// RecordSendInput records a successful (or dry-run) send.
type RecordSendInput struct {
	Email      string
	CampaignID string
	MessageID  string
	SentAt     time.Time
}

// ScoreBump is one enrichment signal's additive contribution.
type ScoreBump struct {
	Key    string
	Fit    float64
	Intent float64
}

// EnrichmentInput carries derived profile data and score bumps.
type EnrichmentInput struct {
	Email   string
	Company string
	Profile map[string]any
	Signals map[string]any
	Bumps   []ScoreBump
}

// Service is the lead lifecycle engine.
type Service struct {
	store      repository.Store
	classifier *domain.Classifier
	cfg        config.LifecycleConfig
	bus        events.Bus
	log        *logger.Logger
	now        func() time.Time
}

// New creates the lifecycle engine.
func New(store repository.Store, classifier *domain.Classifier, cfg config.LifecycleConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		classifier: classifier,
		cfg:        cfg,
		bus:        bus,
		log:        log,
		now:        time.Now,
	}
}

// Upsert stores a lead, creating it and its campaign implicitly when
// unseen. An explicit status is normalized; anything unknown falls back
// to the campaign's current status.
func (s *Service) Upsert(ctx context.Context, input UpsertInput) (*domain.Lead, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, apperr.Validation("email is required").WithOp(opUpsert)
	}
	if strings.TrimSpace(input.Company) == "" {
		return nil, apperr.Validation("company name is required").WithOp(opUpsert)
	}
	if strings.TrimSpace(input.CampaignID) == "" {
		return nil, apperr.Validation("campaign id is required").WithOp(opUpsert)
	}

	now := s.now()
	lead, err := s.getOrCreate(ctx, email, now)
	if err != nil {
		return nil, err
	}

	lead.Company = input.Company
	campaign := lead.EnsureCampaign(input.CampaignID, now)
	status := domain.NormalizeStatus(input.Status, campaign.Status)

	s.applyStatus(lead, campaign, status, now, statusWrite{
		action: domain.ActionUpsert,
		note:   input.Note,
	})

	return s.persist(ctx, lead, input.CampaignID, campaign)
}

// UpdateStatus transitions an existing lead's campaign. At least one of
// an explicit status or reply text is required; reply text is classified
// into the status vocabulary. Unknown lead or campaign is a distinct
// not-found condition so callers can decide to create instead.
func (s *Service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*domain.Lead, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, apperr.Validation("email is required").WithOp(opUpdateStatus)
	}
	if strings.TrimSpace(input.CampaignID) == "" {
		return nil, apperr.Validation("campaign id is required").WithOp(opUpdateStatus)
	}
	if strings.TrimSpace(input.Status) == "" && strings.TrimSpace(input.ReplyText) == "" {
		return nil, apperr.Validation("either status or replyText is required").WithOp(opUpdateStatus)
	}

	lead, err := s.store.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	campaign, ok := lead.Campaigns[input.CampaignID]
	if !ok {
		return nil, apperr.NotFound("campaign not found for lead").WithOp(opUpdateStatus)
	}

	var status domain.Status
	if strings.TrimSpace(input.Status) != "" {
		status = domain.NormalizeStatus(input.Status, campaign.Status)
	} else {
		status = s.classifier.Classify(input.ReplyText)
	}

	note := input.ReplyText
	if note == "" {
		note = input.Note
	}

	now := s.now()
	s.applyStatus(lead, campaign, status, now, statusWrite{
		action: domain.ActionStatusUpdate,
		note:   note,
		reply:  input.ReplyText,
	})

	return s.persist(ctx, lead, input.CampaignID, campaign)
}

// RecordSend marks a campaign as SENT with message metadata. It has
// upsert intent: an unseen lead or campaign is created on the fly.
func (s *Service) RecordSend(ctx context.Context, input RecordSendInput) (*domain.Lead, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, apperr.Validation("email is required").WithOp(opRecordSend)
	}
	if strings.TrimSpace(input.CampaignID) == "" {
		return nil, apperr.Validation("campaign id is required").WithOp(opRecordSend)
	}

	now := s.now()
	lead, err := s.getOrCreate(ctx, email, now)
	if err != nil {
		return nil, err
	}

	campaign := lead.EnsureCampaign(input.CampaignID, now)
	campaign.MessageID = input.MessageID
	sentAt := input.SentAt
	if sentAt.IsZero() {
		sentAt = now
	}
	campaign.LastSentAt = &sentAt

	s.applyStatus(lead, campaign, domain.StatusSent, now, statusWrite{
		action: domain.ActionSend,
		note:   "message " + input.MessageID,
	})

	return s.persist(ctx, lead, input.CampaignID, campaign)
}

// ApplyEnrichment merges derived profile data into the lead and credits
// additive fit/intent bumps. With the idempotence guard on, a signal key
// already credited to this lead contributes nothing on re-enrichment;
// with it off, repeated passes re-accumulate (the inherited behavior).
// Every campaign score is recomputed against the new fit/intent.
func (s *Service) ApplyEnrichment(ctx context.Context, input EnrichmentInput) (*domain.Lead, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, apperr.Validation("email is required").WithOp(opEnrich)
	}

	now := s.now()
	lead, err := s.getOrCreate(ctx, email, now)
	if err != nil {
		return nil, err
	}

	if input.Company != "" {
		lead.Company = input.Company
	}
	for k, v := range input.Profile {
		if lead.Profile == nil {
			lead.Profile = map[string]any{}
		}
		lead.Profile[k] = v
	}
	for k, v := range input.Signals {
		if lead.Signals == nil {
			lead.Signals = map[string]any{}
		}
		lead.Signals[k] = v
	}

	fit, intent := lead.FitScore, lead.IntentScore
	var applied []string
	for _, bump := range input.Bumps {
		if s.cfg.GetEnrichIdempotent() && lead.HasCredited(bump.Key) {
			continue
		}
		fit += bump.Fit
		intent += bump.Intent
		lead.MarkCredited(bump.Key)
		applied = append(applied, bump.Key)
	}
	lead.FitScore = domain.ClampScore(fit)
	lead.IntentScore = domain.ClampScore(intent)

	// Enrichment moves fit/intent, so every campaign's blended score moves too.
	for _, campaign := range lead.Campaigns {
		boost := domain.IntentBoostFor(campaign.Status)
		campaign.Score = domain.CampaignScore(lead.FitScore, lead.IntentScore+boost, domain.PenaltyFor(campaign.Status))
		campaign.UpdatedAt = now
	}

	lead.AppendHistory(now, domain.ActionEnrich, "", "credited: "+strings.Join(applied, ","))

	merged, err := s.store.Put(ctx, lead)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadEnriched{
			BaseEvent:   events.NewBaseEvent(),
			Email:       merged.Email,
			FitScore:    merged.FitScore,
			IntentScore: merged.IntentScore,
		})
	}
	s.log.LeadEvent(domain.ActionEnrich, merged.Email, "")

	return merged, nil
}

// Get returns a lead by email.
func (s *Service) Get(ctx context.Context, email string) (*domain.Lead, error) {
	key := domain.NormalizeEmail(email)
	if key == "" {
		return nil, apperr.Validation("email is required").WithOp(opGet)
	}
	return s.store.Get(ctx, key)
}

// List returns recently updated leads, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]*domain.Lead, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.List(ctx, limit)
}

// HandleFollowUpDue records that a scheduled follow-up became due. A task
// whose scheduled time no longer matches the stored follow-up timestamp
// is stale (the status changed since it was enqueued) and is skipped.
func (s *Service) HandleFollowUpDue(ctx context.Context, email, campaignID string, scheduledFor time.Time) error {
	lead, err := s.store.Get(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.Warn("follow-up for unknown lead skipped", "email", email, "campaign", campaignID)
			return nil
		}
		return err
	}

	campaign, ok := lead.Campaigns[campaignID]
	if !ok {
		s.log.Warn("follow-up for unknown campaign skipped", "email", email, "campaign", campaignID)
		return nil
	}
	if campaign.NextFollowUpAt == nil || absDuration(campaign.NextFollowUpAt.Sub(scheduledFor)) > followUpStaleTolerance {
		s.log.Info("stale follow-up skipped", "email", email, "campaign", campaignID, "status", string(campaign.Status))
		return nil
	}

	now := s.now()
	lead.AppendHistory(now, domain.ActionFollowUpDue, campaign.Status,
		fmt.Sprintf("follow-up due for campaign %s", campaignID))

	if _, err := s.store.Put(ctx, lead); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "failed to record follow-up", err).WithOp(opFollowUpDue)
	}
	s.log.LeadEvent(domain.ActionFollowUpDue, lead.Email, string(campaign.Status))
	return nil
}

type statusWrite struct {
	action string
	note   string
	reply  string
}

// applyStatus is the single place campaign state is rewritten: status,
// annotation, blended score, and the follow-up timer. The timer refreshes
// on every status-affecting write, including re-confirmations.
func (s *Service) applyStatus(lead *domain.Lead, campaign *domain.Campaign, status domain.Status, now time.Time, write statusWrite) {
	campaign.Status = status
	if write.note != "" {
		campaign.Note = write.note
	}
	if write.reply != "" {
		campaign.LastReply = write.reply
	}

	boost := domain.IntentBoostFor(status)
	campaign.Score = domain.CampaignScore(lead.FitScore, lead.IntentScore+boost, domain.PenaltyFor(status))

	if domain.AwaitingResponse(status) {
		due := now.Add(s.cfg.GetFollowUpDelay())
		campaign.NextFollowUpAt = &due
	} else {
		campaign.NextFollowUpAt = nil
	}
	campaign.UpdatedAt = now

	lead.AppendHistory(now, write.action, status, write.note)
}

func (s *Service) persist(ctx context.Context, lead *domain.Lead, campaignID string, campaign *domain.Campaign) (*domain.Lead, error) {
	merged, err := s.store.Put(ctx, lead)
	if err != nil {
		return nil, err
	}

	written := merged.Campaigns[campaignID]
	if written == nil {
		written = campaign
	}
	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent:      events.NewBaseEvent(),
			Email:          merged.Email,
			CampaignID:     campaignID,
			Status:         string(written.Status),
			Score:          written.Score,
			NextFollowUpAt: written.NextFollowUpAt,
		})
	}
	s.log.LeadEvent("status_write", merged.Email, string(written.Status))

	return merged, nil
}

func (s *Service) getOrCreate(ctx context.Context, email string, now time.Time) (*domain.Lead, error) {
	lead, err := s.store.Get(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return domain.NewLead(email, now), nil
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
