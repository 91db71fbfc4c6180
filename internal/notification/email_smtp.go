package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	mail "github.com/xhit/go-simple-mail/v2"
)

// smtpEmailSender is the concrete implementation for sending emails via SMTP.
// Transient failures are retried with exponential backoff a bounded number
// of times; the final error is returned so the caller can log it as a
// non-fatal delivery failure.
type smtpEmailSender struct {
	client     *mail.SMTPServer
	from       string
	log        *slog.Logger
	maxRetries uint64
}

// NewSMTPEmailSender creates a new sender that uses an SMTP server.
func NewSMTPEmailSender(host string, port int, username, password, from string, log *slog.Logger) emailSender {
	server := mail.NewSMTPClient()
	server.Host = host
	server.Port = port
	server.Username = username
	server.Password = password
	server.Encryption = mail.EncryptionSTARTTLS
	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second

	return &smtpEmailSender{
		client:     server,
		from:       from,
		log:        log,
		maxRetries: 2,
	}
}

func (s *smtpEmailSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.sendOnce(to, subject, htmlBody, textBody); err != nil {
			s.log.Warn("smtp send attempt failed", "to", to, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (s *smtpEmailSender) sendOnce(to, subject, htmlBody, textBody string) error {
	smtpClient, err := s.client.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	email := mail.NewMSG()
	email.SetFrom(s.from).AddTo(to).SetSubject(subject)
	email.SetBody(mail.TextHTML, htmlBody)
	if textBody != "" {
		email.AddAlternative(mail.TextPlain, textBody)
	}

	if err = email.Send(smtpClient); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.log.Info("email sent via smtp", "to", to)
	return nil
}
