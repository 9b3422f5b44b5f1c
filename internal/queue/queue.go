package queue

import (
	"context"
	"errors"
	"time"

	"github.com/bscott89/taskhub/internal/jobs"
	"github.com/bscott89/taskhub/internal/queue/redisclient"
	"github.com/redis/go-redis/v9"
)

// Queue is a Redis list used as a FIFO job queue: producers LPUSH,
// the worker BRPOPs.
type Queue struct {
	client *redisclient.Client
	name   string
}

func New(client *redisclient.Client, name string) *Queue {
	return &Queue{
		client: client,
		name:   name,
	}
}

func (q *Queue) Enqueue(ctx context.Context, j jobs.Job) error {
	raw, err := jobs.EncodeJob(j)

	if err != nil {
		return err
	}

	return q.client.Raw().LPush(ctx, q.name, raw).Err()
}

// Dequeue blocks up to timeout for the next job. ok is false when the
// wait expired with nothing to do.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (j jobs.Job, ok bool, err error) {
	res, err := q.client.Raw().BRPop(ctx, timeout, q.name).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jobs.Job{}, false, nil
		}

		return jobs.Job{}, false, err
	}

	// BRPOP returns [key, value]
	if len(res) != 2 {
		return jobs.Job{}, false, jobs.ErrInvalidJobPayload
	}

	j, err = jobs.DecodeJob([]byte(res[1]))

	if err != nil {
		return jobs.Job{}, false, err
	}

	return j, true, nil
}
