package notifications

import "context"

// Message carries the recipient details for an account notification.
type Message struct {
	Email string
	Name  string
}

type Notifier interface {
	SendWelcome(ctx context.Context, msg Message) error
	SendFarewell(ctx context.Context, msg Message) error
}
