package email

import (
	"context"
	"log/slog"
)

// LogTransport writes messages to the logger instead of delivering them.
// Selected with MAIL_PROVIDER=log for local work without an SMTP relay.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (l *LogTransport) Send(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "email captured",
		"from", msg.From,
		"to", msg.To,
		"reply_to", msg.ReplyTo,
		"subject", msg.Subject,
		"tag", msg.Tag,
	)
	l.logger.DebugContext(ctx, "email body", "tag", msg.Tag, "text", msg.TextBody)
	return nil
}

var _ Transport = (*LogTransport)(nil)
