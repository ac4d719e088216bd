// Package scheduler enqueues and works follow-up reminder tasks through
// asynq on Redis.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"outreach_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues follow-up tasks.
type Client struct {
	client *asynq.Client
	queue  string
}

// FollowUpScheduler is what write paths depend on to plan reminders.
type FollowUpScheduler interface {
	ScheduleFollowUp(ctx context.Context, payload FollowUpPayload, runAt time.Time) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetFollowUpQueue()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleFollowUp enqueues one reminder to fire at runAt. A nil client
// is a no-op so callers need no scheduling-disabled branch.
func (c *Client) ScheduleFollowUp(ctx context.Context, payload FollowUpPayload, runAt time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewFollowUpTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessAt(runAt), asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
