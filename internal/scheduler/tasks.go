package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskFollowUpDue = "outreach.followup.due"

// FollowUpPayload identifies which campaign timer fired. ScheduledFor
// lets the worker detect tasks made stale by a later status change.
type FollowUpPayload struct {
	Email        string    `json:"email"`
	CampaignID   string    `json:"campaignId"`
	ScheduledFor time.Time `json:"scheduledFor"`
}

func NewFollowUpTask(payload FollowUpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpDue, data), nil
}

func ParseFollowUpPayload(task *asynq.Task) (FollowUpPayload, error) {
	var payload FollowUpPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpPayload{}, err
	}
	return payload, nil
}
