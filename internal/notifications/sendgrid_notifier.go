package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridNotifier delivers account emails through SendGrid.
type SendGridNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridNotifier(apiKey, fromEmail, fromName string) *SendGridNotifier {
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (n *SendGridNotifier) SendWelcome(ctx context.Context, msg Message) error {
	subject := "Welcome to TaskHub!"
	body := fmt.Sprintf("Welcome %s to TaskHub! If you have any issues please feel free to send an email.", msg.Name)

	return n.send(ctx, msg, subject, body)
}

func (n *SendGridNotifier) SendFarewell(ctx context.Context, msg Message) error {
	subject := "Sorry to see you go!"
	body := fmt.Sprintf("Goodbye %s, let us know if there is anything we could have done to keep you on board.", msg.Name)

	return n.send(ctx, msg, subject, body)
}

func (n *SendGridNotifier) send(ctx context.Context, msg Message, subject, body string) error {
	to := mail.NewEmail(msg.Name, msg.Email)
	m := mail.NewSingleEmail(n.from, subject, to, body, body)

	resp, err := n.client.SendWithContext(ctx, m)

	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid responded %d", resp.StatusCode)
	}

	return nil
}
