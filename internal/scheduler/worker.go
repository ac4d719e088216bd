package scheduler

import (
	"context"
	"fmt"
	"time"

	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// FollowUpHandler is the slice of the lead engine that reacts to a
// due reminder.
type FollowUpHandler interface {
	HandleFollowUpDue(ctx context.Context, email, campaignID string, scheduledFor time.Time) error
}

// Worker consumes follow-up tasks from the queue.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	handler FollowUpHandler
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, handler FollowUpHandler, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetFollowUpConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		handler: handler,
		log:     log,
	}

	mux.HandleFunc(TaskFollowUpDue, w.handleFollowUpDue)

	return w, nil
}

func (w *Worker) handleFollowUpDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpPayload(task)
	if err != nil {
		return err
	}
	return w.handler.HandleFollowUpDue(ctx, payload.Email, payload.CampaignID, payload.ScheduledFor)
}

// Run blocks until ctx is cancelled, then shuts the server down.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
