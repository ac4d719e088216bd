package scheduler

import (
	"context"
	"testing"
	"time"

	"outreach_backend/internal/events"
	platformevents "outreach_backend/platform/events"
	"outreach_backend/platform/logger"
)

type fakeScheduler struct {
	payloads []FollowUpPayload
	runAts   []time.Time
}

func (f *fakeScheduler) ScheduleFollowUp(_ context.Context, payload FollowUpPayload, runAt time.Time) error {
	f.payloads = append(f.payloads, payload)
	f.runAts = append(f.runAts, runAt)
	return nil
}

func TestDispatcherSchedulesWhenTimerSet(t *testing.T) {
	log := logger.New("development")
	bus := platformevents.NewInMemoryBus(log)
	scheduler := &fakeScheduler{}
	NewDispatcher(bus, scheduler, log)

	due := time.Now().Add(4 * 24 * time.Hour)
	err := bus.PublishSync(context.Background(), events.LeadStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		Email:          "lead@example.com",
		CampaignID:     "demo-001",
		Status:         "SENT",
		NextFollowUpAt: &due,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(scheduler.payloads) != 1 {
		t.Fatalf("scheduled %d tasks, want 1", len(scheduler.payloads))
	}
	payload := scheduler.payloads[0]
	if payload.Email != "lead@example.com" || payload.CampaignID != "demo-001" {
		t.Errorf("payload = %+v", payload)
	}
	if !payload.ScheduledFor.Equal(due) || !scheduler.runAts[0].Equal(due) {
		t.Errorf("scheduled for %v at %v, want %v", payload.ScheduledFor, scheduler.runAts[0], due)
	}
}

func TestDispatcherIgnoresWritesWithoutTimer(t *testing.T) {
	log := logger.New("development")
	bus := platformevents.NewInMemoryBus(log)
	scheduler := &fakeScheduler{}
	NewDispatcher(bus, scheduler, log)

	err := bus.PublishSync(context.Background(), events.LeadStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		Email:      "lead@example.com",
		CampaignID: "demo-001",
		Status:     "WARM",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(scheduler.payloads) != 0 {
		t.Errorf("scheduled %d tasks, want 0", len(scheduler.payloads))
	}
}
