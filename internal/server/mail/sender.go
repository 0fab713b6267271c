// Package mail delivers outbound messages: over SMTP in production, or to
// the log when no mail host is configured.
package mail

import "context"

// Message is a single HTML mail to one recipient.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}
