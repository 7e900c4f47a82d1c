// internal/delivery/smtp.go
package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/copperowls/website/internal/email"
)

// SMTPDeliverer sends submissions as email to the configured inbox, with
// Reply-To set to the submitter so the band can answer directly.
type SMTPDeliverer struct {
	sender *email.Sender
	to     string
}

// NewSMTPDeliverer creates an SMTP-backed deliverer.
func NewSMTPDeliverer(sender *email.Sender, to string) *SMTPDeliverer {
	return &SMTPDeliverer{sender: sender, to: to}
}

// Deliver implements Deliverer.
func (d *SMTPDeliverer) Deliver(ctx context.Context, sub Submission) error {
	var b strings.Builder
	fmt.Fprintf(&b, "New booking inquiry\n\n")
	fmt.Fprintf(&b, "Name:  %s\n", sub.Name)
	fmt.Fprintf(&b, "Email: %s\n", sub.Email)
	if sub.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", sub.Phone)
	}
	if sub.EventDate != "" {
		fmt.Fprintf(&b, "Event date: %s\n", sub.EventDate)
	}
	fmt.Fprintf(&b, "\n%s\n", sub.Message)

	msg := email.Message{
		To:       []string{d.to},
		Subject:  "Booking inquiry from " + sub.Name,
		TextBody: b.String(),
		ReplyTo:  sub.Email,
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("smtp delivery: %w", err)
	}
	return nil
}
