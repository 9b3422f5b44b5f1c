package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/bscott89/taskhub/internal/jobs"
)

type jobQueue interface {
	Enqueue(ctx context.Context, j jobs.Job) error
}

// Enqueuer hands account notifications off to the job queue without
// making the caller wait. Enqueue failures are logged and swallowed:
// a lost email must never fail the signup or deletion that caused it.
type Enqueuer struct {
	queue jobQueue
	log   *slog.Logger
}

func NewEnqueuer(queue jobQueue, log *slog.Logger) *Enqueuer {
	return &Enqueuer{queue: queue, log: log}
}

func (e *Enqueuer) WelcomeAsync(email, name string) {
	e.enqueueAsync(jobs.JobWelcomeEmail, jobs.WelcomeEmailPayload{Email: email, Name: name})
}

func (e *Enqueuer) FarewellAsync(email, name string) {
	e.enqueueAsync(jobs.JobFarewellEmail, jobs.FarewellEmailPayload{Email: email, Name: name})
}

func (e *Enqueuer) enqueueAsync(t jobs.JobType, payload any) {
	if e == nil || e.queue == nil {
		return
	}

	j, err := jobs.NewJob(t, payload)

	if err != nil {
		e.log.Error("notification enqueue failed", "type", t, "err", err)
		return
	}

	// detached from the request; its outcome is observable in logs only
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := e.queue.Enqueue(ctx, j); err != nil {
			e.log.Error("notification enqueue failed", "type", t, "job_id", j.ID, "err", err)
		}
	}()
}
