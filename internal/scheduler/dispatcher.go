package scheduler

import (
	"context"

	"outreach_backend/internal/events"
	"outreach_backend/platform/logger"
)

// Dispatcher listens for status writes and plans a reminder whenever a
// write leaves a follow-up timer set. Scheduling is best effort: an
// enqueue failure is logged and never fails the write that caused it.
type Dispatcher struct {
	scheduler FollowUpScheduler
	log       *logger.Logger
}

// NewDispatcher subscribes the scheduler to status-change events.
func NewDispatcher(bus events.Bus, scheduler FollowUpScheduler, log *logger.Logger) *Dispatcher {
	d := &Dispatcher{scheduler: scheduler, log: log}
	bus.Subscribe("leads.status.changed", events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		changed, ok := event.(events.LeadStatusChanged)
		if !ok {
			return nil
		}
		d.onStatusChanged(ctx, changed)
		return nil
	}))
	return d
}

func (d *Dispatcher) onStatusChanged(ctx context.Context, event events.LeadStatusChanged) {
	if event.NextFollowUpAt == nil {
		return
	}

	due := *event.NextFollowUpAt
	err := d.scheduler.ScheduleFollowUp(ctx, FollowUpPayload{
		Email:        event.Email,
		CampaignID:   event.CampaignID,
		ScheduledFor: due,
	}, due)
	if err != nil {
		d.log.Warn("failed to schedule follow-up",
			"email", event.Email, "campaign", event.CampaignID, "error", err)
		return
	}

	d.log.Info("follow-up scheduled",
		"email", event.Email, "campaign", event.CampaignID, "runAt", due)
}
