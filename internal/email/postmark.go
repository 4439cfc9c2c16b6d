package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrz1836/postmark"
)

// ErrPostmarkRejected is joined into errors returned when Postmark accepts
// the HTTP request but refuses the message.
var ErrPostmarkRejected = errors.New("email: postmark rejected message")

// PostmarkTransport sends messages through Postmark's transactional API.
type PostmarkTransport struct {
	client *postmark.Client
	logger *slog.Logger
}

// NewPostmarkTransport creates a Postmark-backed transport.
// The server token is required; the account token is optional because
// sending only needs server-level access.
func NewPostmarkTransport(serverToken, accountToken string, logger *slog.Logger) (*PostmarkTransport, error) {
	if serverToken == "" {
		return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
	}
	return &PostmarkTransport{
		client: postmark.NewClient(serverToken, accountToken),
		logger: logger,
	}, nil
}

// Send delivers msg with a single API call.
func (p *PostmarkTransport) Send(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:     msg.From,
		To:       msg.To,
		ReplyTo:  msg.ReplyTo,
		Subject:  headerSafe(msg.Subject),
		Tag:      msg.Tag,
		TextBody: msg.TextBody,
		HTMLBody: msg.HTMLBody,
	})
	if err != nil {
		p.logger.Error("postmark request failed", "to", msg.To, "tag", msg.Tag, "error", err)
		return fmt.Errorf("postmark request failed: %w", err)
	}
	if resp.ErrorCode > 0 {
		p.logger.Error("postmark rejected message",
			"to", msg.To,
			"tag", msg.Tag,
			"error_code", resp.ErrorCode,
			"message", resp.Message,
		)
		return errors.Join(
			ErrPostmarkRejected,
			fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message),
		)
	}

	p.logger.Info("email sent",
		"to", msg.To,
		"subject", msg.Subject,
		"tag", msg.Tag,
		"message_id", resp.MessageID,
	)
	return nil
}

var _ Transport = (*PostmarkTransport)(nil)
