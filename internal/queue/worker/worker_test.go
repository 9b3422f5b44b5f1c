package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bscott89/taskhub/internal/jobs"
	"github.com/bscott89/taskhub/internal/notifications"
	"github.com/bscott89/taskhub/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeSource struct {
	mu   sync.Mutex
	jobs []jobs.Job
}

func (f *fakeSource) Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.jobs) == 0 {
		return jobs.Job{}, false, ctx.Err()
	}

	j := f.jobs[0]
	f.jobs = f.jobs[1:]
	return j, true, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	welcomes  []notifications.Message
	farewells []notifications.Message
	err       error
}

func (n *recordingNotifier) SendWelcome(ctx context.Context, msg notifications.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, msg)
	return n.err
}

func (n *recordingNotifier) SendFarewell(ctx context.Context, msg notifications.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.farewells = append(n.farewells, msg)
	return n.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWorker(src *fakeSource, n notifications.Notifier) *Worker {
	metrics := observability.NewProm(prometheus.NewRegistry())

	return New(Config{
		WorkerID:       "test-worker",
		DequeueTimeout: 10 * time.Millisecond,
		SendTimeout:    time.Second,
	}, src, n, metrics, testLogger())
}

func mustJob(t *testing.T, jt jobs.JobType, payload any) jobs.Job {
	t.Helper()

	j, err := jobs.NewJob(jt, payload)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	return j
}

func TestWorker_DispatchesByJobType(t *testing.T) {
	src := &fakeSource{jobs: []jobs.Job{
		mustJob(t, jobs.JobWelcomeEmail, jobs.WelcomeEmailPayload{Email: "new@example.com", Name: "New"}),
		mustJob(t, jobs.JobFarewellEmail, jobs.FarewellEmailPayload{Email: "old@example.com", Name: "Old"}),
	}}

	notifier := &recordingNotifier{}
	w := testWorker(src, notifier)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()

	if len(notifier.welcomes) != 1 || notifier.welcomes[0].Email != "new@example.com" {
		t.Fatalf("welcome not dispatched: %+v", notifier.welcomes)
	}
	if len(notifier.farewells) != 1 || notifier.farewells[0].Email != "old@example.com" {
		t.Fatalf("farewell not dispatched: %+v", notifier.farewells)
	}
}

func TestWorker_DropsUndecodableJob(t *testing.T) {
	src := &fakeSource{jobs: []jobs.Job{
		{ID: "bad-1", Type: jobs.JobType("mystery"), Payload: []byte(`{}`)},
		mustJob(t, jobs.JobWelcomeEmail, jobs.WelcomeEmailPayload{Email: "ok@example.com", Name: "Ok"}),
	}}

	notifier := &recordingNotifier{}
	w := testWorker(src, notifier)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()

	if len(notifier.welcomes) != 1 {
		t.Fatalf("good job after bad one should still be handled, got %d", len(notifier.welcomes))
	}
}

func TestWorker_FailedSendIsNotRetried(t *testing.T) {
	src := &fakeSource{jobs: []jobs.Job{
		mustJob(t, jobs.JobWelcomeEmail, jobs.WelcomeEmailPayload{Email: "x@example.com", Name: "X"}),
	}}

	notifier := &recordingNotifier{err: context.DeadlineExceeded}
	w := testWorker(src, notifier)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()

	if len(notifier.welcomes) != 1 {
		t.Fatalf("expected exactly one send attempt, got %d", len(notifier.welcomes))
	}
}

func TestExponentialBackoff_Grows(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 0; attempt < 5; attempt++ {
		d := ExponentialBackoff(attempt)
		if d < prev {
			t.Fatalf("backoff shrank at attempt %d: %v < %v", attempt, d, prev)
		}
		prev = d
	}
}
