package mailer

import (
	"context"

	"github.com/goliatone/go-logger/glog"
)

// DevLogMailer logs outbound mail instead of sending it.
type DevLogMailer struct {
	logger glog.Logger
}

var _ Mailer = (*DevLogMailer)(nil)

func NewDevLogMailer(logger glog.Logger) *DevLogMailer {
	return &DevLogMailer{logger: logger}
}

func (m *DevLogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.logger.Info("outbound email",
		"to", to,
		"subject", subject,
		"body", htmlBody,
	)
	return nil
}
