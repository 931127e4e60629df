// Package notify turns pending upload batches into emails.
package notify

import (
	"context"
)

// Message is one fully formed email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message. Retries are up to the implementation.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// NullSender drops every message. It is used when SMTP is disabled.
type NullSender struct{}

func (NullSender) Send(ctx context.Context, m Message) error {
	return nil
}
