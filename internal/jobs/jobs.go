package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// a Job is the unit of asynchronous work pushed onto the Redis queue.
type Job struct {
	ID         string          `json:"id"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// NewJob encodes the typed payload and wraps it in a Job envelope.
func NewJob(t JobType, payload any) (Job, error) {
	raw, err := EncodePayload(t, payload)

	if err != nil {
		return Job{}, err
	}

	return Job{
		ID:         uuid.NewString(),
		Type:       t,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}
