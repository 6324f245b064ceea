// Package email provides the outbound mail abstraction used by the
// notification worker. Delivery goes through a Sender; the retrying
// decorator adds exponential backoff around transient failures.
package email

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/shopvite/shopvite-backend/pkg/config"
	"github.com/shopvite/shopvite-backend/pkg/logger"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of a mail gateway. It stands
// in until a provider is configured.
type LogSender struct {
	From string
	Logg *logger.Logger
}

// NewLogSender builds a log-backed sender.
func NewLogSender(cfg config.EmailConfig, logg *logger.Logger) (*LogSender, error) {
	if logg == nil {
		return nil, errors.New("email: logger is required")
	}
	return &LogSender{From: cfg.DefaultFrom, Logg: logg}, nil
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("email: recipient is required")
	}
	logCtx := s.Logg.WithFields(ctx, map[string]any{
		"from":    s.From,
		"to":      msg.To,
		"subject": msg.Subject,
	})
	s.Logg.Info(logCtx, "email dispatched")
	return nil
}

const initialBackoff = 500 * time.Millisecond

// RetryingSender retries transient delivery failures with exponential
// backoff before giving up.
type RetryingSender struct {
	inner      Sender
	maxRetries uint64
}

// NewRetryingSender decorates a sender with retry behavior.
func NewRetryingSender(inner Sender, cfg config.EmailConfig) (*RetryingSender, error) {
	if inner == nil {
		return nil, errors.New("email: inner sender is required")
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryingSender{inner: inner, maxRetries: uint64(maxRetries)}, nil
}

func (s *RetryingSender) Send(ctx context.Context, msg Message) error {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(initialBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.inner.Send(ctx, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
