package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "notify").Logger()}
}

// Send implements Sender.
func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.logger.Info().
		Str("kind", string(n.Kind)).
		Str("to", n.Recipient).
		Str("subject", n.Subject).
		Msg("notification sent")
	return nil
}

// ResendSender delivers notifications as email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger zerolog.Logger
}

// NewResendSender constructs a ResendSender for apiKey.
func NewResendSender(apiKey, from string, logger zerolog.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger.With().Str("component", "notify").Logger(),
	}
}

// Send implements Sender. Rate limit errors are reported, not retried.
func (s *ResendSender) Send(ctx context.Context, n Notification) error {
	if n.Recipient == "" {
		return fmt.Errorf("notification %s has no recipient", n.Kind)
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{n.Recipient},
		Subject: n.Subject,
		Text:    n.Body,
		Tags:    []resend.Tag{{Name: "kind", Value: string(n.Kind)}},
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("remaining", rateLimitErr.Remaining).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
			return fmt.Errorf("email rate limit exceeded: %w", err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Debug().
		Str("email_id", sent.Id).
		Str("kind", string(n.Kind)).
		Str("to", n.Recipient).
		Msg("email sent via Resend")
	return nil
}
