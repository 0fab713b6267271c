// Package verification issues one-time email verification codes and mails
// them to the user.
package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
)

const subject = "Email address confirmation"

const bodyTemplate = `<h2>Welcome to gophauth!</h2>
<p>Your email confirmation code:</p>
<h3>%s</h3>
<p>Please use this code to complete your registration.</p>`

// Issuer generates verification codes and dispatches them by mail. Each
// dispatch runs under its own timeout so a slow relay cannot stall the
// caller indefinitely.
type Issuer struct {
	sender  mail.Sender
	timeout time.Duration
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewIssuer(sender mail.Sender, timeout time.Duration, logger logging.Logger, m *metrics.Metrics) *Issuer {
	return &Issuer{
		sender:  sender,
		timeout: timeout,
		logger:  logger.With("module", "verification"),
		metrics: m,
	}
}

// GenerateCode returns a uniformly random code in [100000, 999999].
func (i *Issuer) GenerateCode() (string, error) {
	return common.RandomDigits(common.VerificationCodeLength)
}

// Dispatch mails code to email.
func (i *Issuer) Dispatch(ctx context.Context, email, code string) error {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	err := i.sender.Send(ctx, mail.Message{
		To:       email,
		Subject:  subject,
		HTMLBody: fmt.Sprintf(bodyTemplate, code),
	})
	i.metrics.ObserveMail(err)

	if err != nil {
		i.logger.Error(ctx, "could not send verification email", "email", email, "error", err)
		return fmt.Errorf("could not send verification email: %w", err)
	}

	i.logger.Info(ctx, "verification email sent", "email", email)
	return nil
}
