package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"outreach_backend/internal/leads/domain"
	leadsservice "outreach_backend/internal/leads/service"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"
)

type fakeLifecycle struct {
	updates []leadsservice.UpdateStatusInput
	err     error
}

func (f *fakeLifecycle) UpdateStatus(_ context.Context, input leadsservice.UpdateStatusInput) (*domain.Lead, error) {
	f.updates = append(f.updates, input)
	if f.err != nil {
		return nil, f.err
	}
	lead := domain.NewLead(input.Email, time.Now())
	campaign := lead.EnsureCampaign(input.CampaignID, time.Now())
	if input.Status != "" {
		campaign.Status = domain.Status(input.Status)
	} else {
		campaign.Status = domain.StatusWarm
	}
	return lead, nil
}

type fakeMail struct {
	raw []byte
	err error
}

func (f *fakeMail) Fetch(context.Context, string, string) ([]byte, error) {
	return f.raw, f.err
}

func TestParseSubjectTag(t *testing.T) {
	cases := []struct {
		subject  string
		campaign string
		email    string
		ok       bool
	}{
		{"Re: Quick question [CID:demo-001|Alice@Example.com]", "demo-001", "alice@example.com", true},
		{"Quick question", "", "", false},
		{"Broken [CID:demo-001", "", "", false},
		{"Broken [CID:no-separator]", "", "", false},
		{"Empty [CID:|alice@example.com]", "", "", false},
	}
	for _, tc := range cases {
		campaign, email, ok := ParseSubjectTag(tc.subject)
		if campaign != tc.campaign || email != tc.email || ok != tc.ok {
			t.Errorf("ParseSubjectTag(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.subject, campaign, email, ok, tc.campaign, tc.email, tc.ok)
		}
	}
}

func TestProviderEventsMapNotificationTypes(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	svc := New(lifecycle, nil, logger.New("development"))

	envelope := ProviderEnvelope{}
	for _, kind := range []string{"Bounce", "Complaint", "Delivery", "Open"} {
		record := struct {
			Notification ProviderNotification `json:"notification"`
		}{}
		record.Notification.NotificationType = kind
		record.Notification.Mail.Tags = map[string][]string{
			"campaign_id": {"demo-001"},
			"lead_email":  {"Lead@Example.com"},
		}
		envelope.Records = append(envelope.Records, record)
	}

	result := svc.HandleProviderEvents(context.Background(), envelope)
	if result.Processed != 3 || result.Skipped != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 3 processed, 1 skipped", result)
	}

	wantStatus := []string{"BOUNCED", "UNSUBSCRIBE", "SENT"}
	for i, update := range lifecycle.updates {
		if update.Status != wantStatus[i] {
			t.Errorf("update[%d].Status = %q, want %q", i, update.Status, wantStatus[i])
		}
		if update.Email != "lead@example.com" {
			t.Errorf("update[%d].Email = %q", i, update.Email)
		}
		if update.CampaignID != "demo-001" {
			t.Errorf("update[%d].CampaignID = %q", i, update.CampaignID)
		}
	}
	if lifecycle.updates[0].Note != "provider:Bounce" {
		t.Errorf("note = %q", lifecycle.updates[0].Note)
	}
}

func TestProviderEventsItemFailuresDoNotAbortBatch(t *testing.T) {
	lifecycle := &fakeLifecycle{err: apperr.NotFound("lead not found")}
	svc := New(lifecycle, nil, logger.New("development"))

	envelope := ProviderEnvelope{}
	record := struct {
		Notification ProviderNotification `json:"notification"`
	}{}
	record.Notification.NotificationType = "Bounce"
	record.Notification.Mail.Tags = map[string][]string{"lead_email": {"x@y.com"}}
	envelope.Records = append(envelope.Records, record, record)

	result := svc.HandleProviderEvents(context.Background(), envelope)
	if result.Failed != 2 || result.Processed != 0 {
		t.Fatalf("result = %+v, want both records failed", result)
	}
}

func TestHandleInboundDirectFieldsWithTag(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	svc := New(lifecycle, nil, logger.New("development"))

	result, err := svc.HandleInbound(context.Background(), InboundMessage{
		From:    "Alice <alice@example.com>",
		Subject: "Re: Quick question [CID:demo-001|alice@example.com]",
		Text:    "I'm interested, let's schedule a call",
	})
	if err != nil {
		t.Fatalf("inbound: %v", err)
	}
	if result.Email != "alice@example.com" || result.CampaignID != "demo-001" {
		t.Errorf("result = %+v", result)
	}
	if result.Status != domain.StatusWarm {
		t.Errorf("status = %q", result.Status)
	}

	update := lifecycle.updates[0]
	if update.ReplyText != "I'm interested, let's schedule a call" {
		t.Errorf("reply = %q", update.ReplyText)
	}
	if update.Status != "" {
		t.Errorf("explicit status must stay empty so the reply is classified, got %q", update.Status)
	}
}

func TestHandleInboundFallsBackToSenderAddress(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	svc := New(lifecycle, nil, logger.New("development"))

	_, err := svc.HandleInbound(context.Background(), InboundMessage{
		From:    "Bob <Bob@Example.com>",
		Subject: "hello",
		Text:    "no thanks",
	})
	if err != nil {
		t.Fatal(err)
	}

	update := lifecycle.updates[0]
	if update.Email != "bob@example.com" {
		t.Errorf("email = %q, want the sender address", update.Email)
	}
	if update.CampaignID != "default" {
		t.Errorf("campaign = %q, want default", update.CampaignID)
	}
}

func TestHandleInboundTruncatesLongReplies(t *testing.T) {
	lifecycle := &fakeLifecycle{}
	svc := New(lifecycle, nil, logger.New("development"))

	long := strings.Repeat("interested ", 100)
	if _, err := svc.HandleInbound(context.Background(), InboundMessage{
		From: "a@b.com", Subject: "re", Text: long,
	}); err != nil {
		t.Fatal(err)
	}

	if got := len(lifecycle.updates[0].ReplyText); got > 500 {
		t.Errorf("reply length = %d, want <= 500", got)
	}
}

func TestHandleInboundParsesRawMIME(t *testing.T) {
	raw := []byte("From: Carol <carol@example.com>\r\n" +
		"Subject: Re: offer [CID:demo-002|carol@example.com]\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Please remove me from this list\r\n")

	lifecycle := &fakeLifecycle{}
	svc := New(lifecycle, &fakeMail{raw: raw}, logger.New("development"))

	result, err := svc.HandleInbound(context.Background(), InboundMessage{
		Bucket: "inbound", Key: "msg-001",
	})
	if err != nil {
		t.Fatalf("inbound: %v", err)
	}
	if result.CampaignID != "demo-002" || result.Email != "carol@example.com" {
		t.Errorf("result = %+v", result)
	}
	if !strings.Contains(lifecycle.updates[0].ReplyText, "remove me") {
		t.Errorf("reply = %q", lifecycle.updates[0].ReplyText)
	}
}

func TestHandleInboundObjectRefWithoutStore(t *testing.T) {
	svc := New(&fakeLifecycle{}, nil, logger.New("development"))

	_, err := svc.HandleInbound(context.Background(), InboundMessage{Key: "msg-001"})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
}

func TestHandleInboundRequiresSomething(t *testing.T) {
	svc := New(&fakeLifecycle{}, nil, logger.New("development"))

	_, err := svc.HandleInbound(context.Background(), InboundMessage{})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}
