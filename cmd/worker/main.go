package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bscott89/taskhub/internal/config"
	"github.com/bscott89/taskhub/internal/notifications"
	"github.com/bscott89/taskhub/internal/observability"
	"github.com/bscott89/taskhub/internal/queue"
	"github.com/bscott89/taskhub/internal/queue/redisclient"
	"github.com/bscott89/taskhub/internal/queue/worker"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer rdb.Close()

	jobQueue := queue.New(rdb, cfg.JobQueueName)

	// SendGrid when configured; log-only delivery otherwise
	var notifier notifications.Notifier

	if cfg.SendGridAPIKey != "" {
		notifier = notifications.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
	} else {
		log.Info("no SENDGRID_API_KEY set, using log notifier")
		notifier = notifications.NewLogNotifier()
	}

	notifier = notifications.NewProtectedNotifier(notifier, notifications.ProtectedNotifierConfig{
		Timeout:          5 * time.Second,
		FailureThreshold: 3,
		Cooldown:         15 * time.Second,
		HalfOpenMaxCalls: 1,
	})

	metrics := observability.NewProm(prometheus.NewRegistry())

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		WorkerID:       workerID,
		DequeueTimeout: 5 * time.Second,
		SendTimeout:    10 * time.Second,
	}, jobQueue, notifier, metrics, log)

	log.Info("worker has started", "worker_id", workerID)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	log.Info("worker shutdown complete")
}
