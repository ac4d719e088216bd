package service

import (
	"context"
	"testing"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/repository"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type lifecycleConfig struct {
	delay      time.Duration
	idempotent bool
}

func (c lifecycleConfig) GetFollowUpDelay() time.Duration { return c.delay }
func (c lifecycleConfig) GetEnrichIdempotent() bool       { return c.idempotent }
func (c lifecycleConfig) GetClassifierRulesPath() string  { return "" }

func newTestService(t *testing.T, cfg lifecycleConfig) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := repository.NewRedisStore(client)
	return New(store, domain.NewClassifier(), cfg, nil, logger.New("development"))
}

func defaultConfig() lifecycleConfig {
	return lifecycleConfig{delay: 4 * 24 * time.Hour}
}

func TestUpsertCreatesLeadAndCampaign(t *testing.T) {
	svc := newTestService(t, defaultConfig())
	ctx := context.Background()

	lead, err := svc.Upsert(ctx, UpsertInput{
		Email:      "Alice@Example.com",
		Company:    "Example Shop",
		CampaignID: "demo-001",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if lead.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized", lead.Email)
	}
	campaign := lead.Campaigns["demo-001"]
	if campaign == nil {
		t.Fatal("campaign not created")
	}
	if campaign.Status != domain.StatusNew {
		t.Errorf("initial status = %q, want NEW", campaign.Status)
	}
	if campaign.NextFollowUpAt != nil {
		t.Error("NEW status should not schedule a follow-up")
	}
	if len(lead.History) != 1 || lead.History[0].Action != domain.ActionUpsert {
		t.Errorf("history = %+v", lead.History)
	}
}

func TestUpsertValidation(t *testing.T) {
	svc := newTestService(t, defaultConfig())
	ctx := context.Background()

	cases := []UpsertInput{
		{Company: "X", CampaignID: "c"},
		{Email: "a@b.com", CampaignID: "c"},
		{Email: "a@b.com", Company: "X"},
	}
	for _, input := range cases {
		if _, err := svc.Upsert(ctx, input); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("Upsert(%+v) err = %v, want validation", input, err)
		}
	}
}

func TestFollowUpScheduling(t *testing.T) {
	svc := newTestService(t, defaultConfig())
	ctx := context.Background()

	before := time.Now()
	lead, err := svc.Upsert(ctx, UpsertInput{
		Email: "a@b.com", Company: "X", CampaignID: "c", Status: "SENT",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	campaign := lead.Campaigns["c"]
	if campaign.NextFollowUpAt == nil {
		t.Fatal("SENT should schedule a follow-up")
	}
	want := before.Add(4 * 24 * time.Hour)
	if diff := campaign.NextFollowUpAt.Sub(want); diff < -time.Second || diff > 2*time.Second {
		t.Fatalf("nextFollowUpAt off by %v", diff)
	}

	lead, err = svc.Upsert(ctx, UpsertInput{
		Email: "a@b.com", Company: "X", CampaignID: "c", Status: "WARM",
	})
	if err != nil {
		t.Fatalf("upsert warm: %v", err)
	}
	if lead.Campaigns["c"].NextFollowUpAt != nil {
		t.Fatal("WARM must clear the follow-up")
	}
}

func TestReplyLifecycleScenario(t *testing.T) {
	svc := newTestService(t, defaultConfig())
	ctx := context.Background()

	// Seed scores through an enrichment pass: fit 35, intent 25.
	if _, err := svc.ApplyEnrichment(ctx, EnrichmentInput{
		Email: "alice@example.com",
		Bumps: []ScoreBump{{Key: "platform", Fit: 35}, {Key: "contact_email", Intent: 25}},
	}); err != nil {
		t.Fatalf("enrich: %v", err)
	}

	lead, err := svc.Upsert(ctx, UpsertInput{
		Email: "alice@example.com", Company: "Example Shop", CampaignID: "demo-001", Status: "SENT",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// fit*0.6 + intent*0.4 = 21 + 10
	if got := lead.Campaigns["demo-001"].Score; got != 31 {
		t.Fatalf("SENT score = %v, want 31", got)
	}

	replyText := "I'm interested, let's schedule a call"
	lead, err = svc.UpdateStatus(ctx, UpdateStatusInput{
		Email: "alice@example.com", CampaignID: "demo-001", ReplyText: replyText,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	campaign := lead.Campaigns["demo-001"]
	if campaign.Status != domain.StatusWarm {
		t.Fatalf("status = %q, want WARM", campaign.Status)
	}
	// Warm boost: 21 + (25+10)*0.4 = 35
	if campaign.Score != 35 {
		t.Fatalf("WARM score = %v, want 35", campaign.Score)
	}
	if campaign.LastReply != replyText {
		t.Errorf("lastReply = %q", campaign.LastReply)
	}
	if campaign.NextFollowUpAt != nil {
		t.Error("WARM must not carry a follow-up")
	}

	lead, err = svc.UpdateStatus(ctx, UpdateStatusInput{
		Email: "alice@example.com", CampaignID: "demo-001", ReplyText: "Please remove me from this list",
	})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	campaign = lead.Campaigns["demo-001"]
	if campaign.Status != domain.StatusUnsubscribe {
		t.Fatalf("status = %q, want UNSUBSCRIBE", campaign.Status)
	}
	// 21 + 10 - 50 clamps to zero.
	if campaign.Score != 0 {
		t.Fatalf("UNSUBSCRIBE score = %v, want 0", campaign.Score)
	}
	if campaign.NextFollowUpAt != nil {
		t.Error("UNSUBSCRIBE must not carry a follow-up")
	}
}

func TestUpdateStatusRequiresExistingRecords(t *testing.T) {
	svc := newTestService(t, defaultConfig())
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		Email: "ghost@example.com", CampaignID: "c", Status: "WARM",
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown lead err = %v, want not-found", err)
	}

	if _, err := svc.Upsert(ctx, UpsertInput{Email: "x@y.com", Company: "X", CampaignID: "c1"}); err != nil {
		t.Fatal(err)
	}
	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{
		Email: "x@y.com", CampaignID: "other", Status: "WARM",
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown campaign err = %v, want not-found", err)
	}

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{Email: "x@y.com", CampaignID: "c1"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("missing status/reply err = %v, want validation", err)
	}
}

func TestRecordSendUpsertsAndMarksSent(t *testing.T) {
	svc := newTestService(t, defaultConfig())
	ctx := context.Background()

	lead, err := svc.RecordSend(ctx, RecordSendInput{
		Email: "new@example.com", CampaignID: "q3", MessageID: "msg-123",
	})
	if err != nil {
		t.Fatalf("record send: %v", err)
	}

	campaign := lead.Campaigns["q3"]
	if campaign.Status != domain.StatusSent {
		t.Fatalf("status = %q, want SENT", campaign.Status)
	}
	if campaign.MessageID != "msg-123" {
		t.Errorf("messageId = %q", campaign.MessageID)
	}
	if campaign.LastSentAt == nil {
		t.Error("lastSentAt not set")
	}
	if campaign.NextFollowUpAt == nil {
		t.Error("SENT must schedule a follow-up")
	}
}

func TestEnrichmentIdempotenceGuard(t *testing.T) {
	bumps := []ScoreBump{{Key: "platform", Fit: 35}, {Key: "social", Intent: 15}}

	guarded := newTestService(t, lifecycleConfig{delay: time.Hour, idempotent: true})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := guarded.ApplyEnrichment(ctx, EnrichmentInput{Email: "g@x.com", Bumps: bumps}); err != nil {
			t.Fatalf("enrich %d: %v", i, err)
		}
	}
	lead, err := guarded.Get(ctx, "g@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if lead.FitScore != 35 || lead.IntentScore != 15 {
		t.Fatalf("guarded scores = %v/%v, want 35/15", lead.FitScore, lead.IntentScore)
	}

	unguarded := newTestService(t, lifecycleConfig{delay: time.Hour, idempotent: false})
	for i := 0; i < 2; i++ {
		if _, err := unguarded.ApplyEnrichment(ctx, EnrichmentInput{Email: "u@x.com", Bumps: bumps}); err != nil {
			t.Fatalf("enrich %d: %v", i, err)
		}
	}
	lead, err = unguarded.Get(ctx, "u@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if lead.FitScore != 70 || lead.IntentScore != 30 {
		t.Fatalf("unguarded scores = %v/%v, want 70/30", lead.FitScore, lead.IntentScore)
	}
}

func TestHandleFollowUpDue(t *testing.T) {
	svc := newTestService(t, defaultConfig())
	ctx := context.Background()

	lead, err := svc.Upsert(ctx, UpsertInput{
		Email: "f@x.com", Company: "X", CampaignID: "c", Status: "SENT",
	})
	if err != nil {
		t.Fatal(err)
	}
	due := *lead.Campaigns["c"].NextFollowUpAt

	if err := svc.HandleFollowUpDue(ctx, "f@x.com", "c", due); err != nil {
		t.Fatalf("follow-up due: %v", err)
	}
	lead, _ = svc.Get(ctx, "f@x.com")
	last := lead.History[len(lead.History)-1]
	if last.Action != domain.ActionFollowUpDue {
		t.Fatalf("last history action = %q, want FOLLOWUP_DUE", last.Action)
	}
	historyLen := len(lead.History)

	// A task scheduled before a later status change is stale and skipped.
	if _, err := svc.UpdateStatus(ctx, UpdateStatusInput{Email: "f@x.com", CampaignID: "c", Status: "WARM"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.HandleFollowUpDue(ctx, "f@x.com", "c", due); err != nil {
		t.Fatalf("stale follow-up: %v", err)
	}
	lead, _ = svc.Get(ctx, "f@x.com")
	// One entry for the WARM update, none for the stale task.
	if len(lead.History) != historyLen+1 {
		t.Fatalf("stale follow-up wrote history: %d entries, want %d", len(lead.History), historyLen+1)
	}

	// Unknown lead is skipped, not an error.
	if err := svc.HandleFollowUpDue(ctx, "ghost@x.com", "c", due); err != nil {
		t.Fatalf("unknown lead follow-up: %v", err)
	}
}
