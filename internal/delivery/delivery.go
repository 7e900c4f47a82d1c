// Package delivery forwards accepted contact submissions to their
// destination: the external inbox-relay endpoint, or an SMTP inbox when the
// site is configured to send its own mail.
package delivery

import "context"

// Submission is the contact form payload handed to a deliverer. Field names
// match the JSON the relay endpoint expects. Website is the honeypot field;
// it is always empty by the time a submission reaches a deliverer, and it is
// carried on the wire so the relay can apply its own check.
type Submission struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	EventDate string `json:"event_date,omitempty"`
	Message   string `json:"message"`
	Website   string `json:"website"`
}

// Deliverer sends one submission onward. Implementations make a single
// attempt; there is no retry or queuing in this flow.
type Deliverer interface {
	Deliver(ctx context.Context, sub Submission) error
}
