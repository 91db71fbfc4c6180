package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ideahub/ideahub-api/internal/notification/templates"
)

// --- Constants for Type Safety ---

type Channel string

const (
	ChannelEmail Channel = "email"
)

// --- Data Structures ---

// Content holds the rendered message data.
type Content struct {
	EmailSubject  string
	EmailHTMLBody string
	EmailTextBody string
}

// Notification is the universal object used to send any notification.
type Notification struct {
	Recipient string
	Channels  []Channel
	Content   Content
}

// --- Internal Sender Interfaces ---

type emailSender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// --- Public Service ---

// Service is the main interface for the notification system. Send reports
// the delivery outcome so callers can decide their own retry/ignore policy;
// the SMTP sender already retries transient failures a bounded number of
// times before giving up.
type Service interface {
	Send(ctx context.Context, n Notification) error
}

// service is the concrete implementation.
type service struct {
	log         *slog.Logger
	emailSender emailSender
}

// NewService creates a new notification service.
func NewService(log *slog.Logger, emailSender emailSender) Service {
	return &service{
		log:         log,
		emailSender: emailSender,
	}
}

// Send dispatches the notification to each requested channel.
func (s *service) Send(ctx context.Context, n Notification) error {
	for _, channel := range n.Channels {
		switch channel {
		case ChannelEmail:
			s.log.Info("dispatching email notification", "recipient", n.Recipient)
			if err := s.emailSender.Send(ctx, n.Recipient, n.Content.EmailSubject, n.Content.EmailHTMLBody, n.Content.EmailTextBody); err != nil {
				s.log.Error("failed to send notification", "channel", channel, "recipient", n.Recipient, "error", err)
				return err
			}
		default:
			s.log.Warn("unsupported notification channel", "channel", channel)
		}
	}
	return nil
}

// SendTemplate renders a typed template scenario and sends the result by
// email. The data type is enforced at compile time by the handle.
func SendTemplate[T any](ctx context.Context, svc Service, eng *templates.Engine, h templates.Handle[T], recipient string, data T) error {
	rendered, err := templates.Render(ctx, eng, h, data)
	if err != nil {
		return fmt.Errorf("render template %q: %w", h.ID(), err)
	}

	return svc.Send(ctx, Notification{
		Recipient: recipient,
		Channels:  []Channel{ChannelEmail},
		Content: Content{
			EmailSubject:  rendered.Subject,
			EmailHTMLBody: rendered.EmailHTML,
			EmailTextBody: rendered.EmailText,
		},
	})
}
