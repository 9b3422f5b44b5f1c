package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bscott89/taskhub/internal/jobs"
	"github.com/bscott89/taskhub/internal/notifications"
	"github.com/bscott89/taskhub/internal/observability"
)

type jobSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, bool, error)
}

type Config struct {
	WorkerID       string
	DequeueTimeout time.Duration
	SendTimeout    time.Duration
}

// Worker drains the notification queue and hands each job to the
// notifier. A failed send is logged and dropped, not retried; the
// backoff below only covers queue transport errors (Redis down).
type Worker struct {
	cfg      Config
	queue    jobSource
	notifier notifications.Notifier
	metrics  *observability.Prom
	log      *slog.Logger
}

func New(cfg Config, queue jobSource, notifier notifications.Notifier, metrics *observability.Prom, log *slog.Logger) *Worker {
	if cfg.DequeueTimeout <= 0 {
		cfg.DequeueTimeout = 5 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}

	return &Worker{
		cfg:      cfg,
		queue:    queue,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	transportFailures := 0

	for {
		if err := ctx.Err(); err != nil {
			w.log.Info("worker received shutdown signal", "worker_id", w.cfg.WorkerID)
			return nil
		}

		j, ok, err := w.queue.Dequeue(ctx, w.cfg.DequeueTimeout)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}

			transportFailures++
			delay := ExponentialBackoff(transportFailures - 1)
			w.log.Error("dequeue failed", "err", err, "retry_in", delay.String())

			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
			continue
		}

		transportFailures = 0

		if !ok {
			// queue was empty for the whole wait
			continue
		}

		w.handle(ctx, j)
	}
}

func (w *Worker) handle(ctx context.Context, j jobs.Job) {
	payload, err := jobs.DecodePayload(j)

	if err != nil {
		w.log.Error("dropping undecodable job", "job_id", j.ID, "type", j.Type, "err", err)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.cfg.SendTimeout)
	defer cancel()

	err = w.metrics.ObserveNotification(string(j.Type), func() error {
		switch p := payload.(type) {
		case jobs.WelcomeEmailPayload:
			return w.notifier.SendWelcome(sendCtx, notifications.Message{Email: p.Email, Name: p.Name})
		case jobs.FarewellEmailPayload:
			return w.notifier.SendFarewell(sendCtx, notifications.Message{Email: p.Email, Name: p.Name})
		default:
			return jobs.ErrInvalidJobType
		}
	})

	if err != nil {
		// deliberate: no retry for notification sends
		w.log.Error("notification send failed", "job_id", j.ID, "type", j.Type, "err", err)
		return
	}

	w.log.Info("notification sent", "job_id", j.ID, "type", j.Type)
}
