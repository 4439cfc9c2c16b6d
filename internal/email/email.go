// Package email delivers the messages produced for a reservation.
//
// The package separates two concerns:
// - Transport: a single Send operation implemented over SMTP, the Postmark
//   API, or a logger for local development
// - Composer: turns a domain.Reservation into the business notification
//   and the optional acknowledgment sent back to the submitter
package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Transport sends one fully composed message.
//
// Implementations:
// - SMTPTransport: any SMTP relay, implicit TLS or STARTTLS
// - PostmarkTransport: Postmark transactional API
// - LogTransport: writes the message to the logger (development)
//
// A single attempt is made per call; retries are the caller's decision.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Message represents a single outbound email.
type Message struct {
	From     string // Sender, "Display Name <addr>" or a bare address
	To       string // Recipient address
	ReplyTo  string // Optional Reply-To address
	Subject  string // Subject line, may contain non-ASCII characters
	TextBody string // Plain text content
	HTMLBody string // Optional HTML alternative
	Tag      string // Optional category used in logs and by Postmark
}

// Validate checks that the message can be handed to a transport.
func (m *Message) Validate() error {
	if m == nil {
		return ErrInvalidMessage
	}
	if strings.TrimSpace(m.From) == "" {
		return fmt.Errorf("%w: sender is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if m.TextBody == "" && m.HTMLBody == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	return nil
}

var (
	// ErrInvalidMessage is returned before any network call when a message
	// is missing a sender, recipient, subject or body.
	ErrInvalidMessage = errors.New("email: invalid message")

	// ErrInvalidConfig is returned by transport constructors.
	ErrInvalidConfig = errors.New("email: invalid transport config")
)

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string        // SMTP server hostname
	Port     int           // 465 for implicit TLS, 587 or 25 for STARTTLS
	Secure   bool          // Dial with TLS instead of upgrading with STARTTLS
	Username string        // SMTP authentication username
	Password string        // SMTP authentication password
	Timeout  time.Duration // Dial and session deadline, zero means none
}

// Configured reports whether the mandatory credentials are present.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// =============================================================================
// Address helpers
// =============================================================================

// DefaultFromName is the display name used when no sender override is set.
const DefaultFromName = "CSNM"

// DefaultFrom builds the "CSNM <user>" sender used when MAIL_FROM is unset.
func DefaultFrom(address string) string {
	return (&mail.Address{Name: DefaultFromName, Address: address}).String()
}

// parseAddress accepts both "Name <addr>" and a bare address.
func parseAddress(s string) (*mail.Address, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse address %q: %w", s, err)
	}
	return addr, nil
}
