// Package mailer sends transactional email for account flows. The
// SendGrid provider talks to the v3 Mail Send API; the dev provider
// just logs the message so local flows keep working without a key.
package mailer

import "context"

// Mailer sends a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
