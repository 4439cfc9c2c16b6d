package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SMTP Transport Implementation
// =============================================================================

// SMTPTransport sends messages to an SMTP relay.
//
// With Secure set the connection is TLS from the first byte (port 465).
// Otherwise the session is upgraded with STARTTLS whenever the server
// offers it. PLAIN authentication is used when credentials are present.
type SMTPTransport struct {
	config SMTPConfig
	logger *slog.Logger

	// now is overridable so tests can pin the Date header.
	now func() time.Time
}

// NewSMTPTransport creates a new SMTP-based transport.
// Credentials are not checked here; missing ones are reported per request.
func NewSMTPTransport(config SMTPConfig, logger *slog.Logger) *SMTPTransport {
	if config.Port == 0 {
		config.Port = 465
	}
	return &SMTPTransport{
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Send delivers msg in a single SMTP session.
func (s *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	from, err := parseAddress(msg.From)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	to, err := parseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	raw, err := s.buildMessage(msg, from, to)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	client, err := s.dial(ctx)
	if err != nil {
		s.logger.Error("failed to connect to smtp server",
			"host", s.config.Host,
			"port", s.config.Port,
			"error", err,
		)
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}
	defer client.Close()

	if err := s.deliver(client, from.Address, to.Address, raw); err != nil {
		s.logger.Error("failed to send email",
			"to", to.Address,
			"subject", msg.Subject,
			"tag", msg.Tag,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", to.Address,
		"subject", msg.Subject,
		"tag", msg.Tag,
	)
	return nil
}

// =============================================================================
// Internal Methods
// =============================================================================

// dial opens the connection and performs the SMTP greeting.
func (s *SMTPTransport) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	dialer := &net.Dialer{Timeout: s.config.Timeout}

	var (
		conn net.Conn
		err  error
	)
	if s.config.Secure {
		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config:    &tls.Config{ServerName: s.config.Host, MinVersion: tls.VersionTLS12},
		}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, err
	}

	if s.config.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.config.Timeout))
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

// deliver runs the SMTP transaction on an established client.
func (s *SMTPTransport) deliver(c *smtp.Client, from, to string, raw []byte) error {
	if !s.config.Secure {
		if ok, _ := c.Extension("STARTTLS"); ok {
			tlsConfig := &tls.Config{ServerName: s.config.Host, MinVersion: tls.VersionTLS12}
			if err := c.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.config.Username != "" && s.config.Password != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("end data: %w", err)
	}

	return c.Quit()
}

// buildMessage constructs the raw RFC 5322 message.
//
// Headers with non-ASCII text are RFC 2047 encoded and bodies are
// quoted-printable. A message with an HTML body becomes
// multipart/alternative with the text part first.
func (s *SMTPTransport) buildMessage(msg *Message, from, to *mail.Address) ([]byte, error) {
	var buf bytes.Buffer

	writeHeader(&buf, "From", from.String())
	writeHeader(&buf, "To", to.String())
	if msg.ReplyTo != "" {
		if replyTo, err := parseAddress(msg.ReplyTo); err == nil {
			writeHeader(&buf, "Reply-To", replyTo.String())
		} else {
			s.logger.Warn("unparsable reply-to, sending as written", "reply_to", msg.ReplyTo, "error", err)
			writeHeader(&buf, "Reply-To", mime.QEncoding.Encode("utf-8", strings.TrimSpace(headerSafe(msg.ReplyTo))))
		}
	}
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", headerSafe(msg.Subject)))
	writeHeader(&buf, "Date", s.now().Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", messageID(from.Address))
	writeHeader(&buf, "MIME-Version", "1.0")

	if msg.HTMLBody == "" {
		writeHeader(&buf, "Content-Type", "text/plain; charset=utf-8")
		writeHeader(&buf, "Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQuotedPrintable(&buf, msg.TextBody); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	writeHeader(&buf, "Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary()))
	buf.WriteString("\r\n")

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=utf-8", msg.TextBody},
		{"text/html; charset=utf-8", msg.HTMLBody},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		pw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		if err := writeQuotedPrintable(pw, p.content); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

// =============================================================================
// Helpers
// =============================================================================

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func writeQuotedPrintable(w io.Writer, content string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(content)); err != nil {
		return err
	}
	return qp.Close()
}

// headerSafe folds CR and LF into spaces so user input cannot start a new header.
func headerSafe(s string) string {
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
}

func messageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// Compile-time interface check
var _ Transport = (*SMTPTransport)(nil)
