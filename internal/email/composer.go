package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/DukeRupert/csnm/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// Message tags, also used as metric labels.
const (
	TagNotification   = "reservation"
	TagAcknowledgment = "acknowledgment"
)

// NoMessagePlaceholder stands in for an absent or blank free-text message.
const NoMessagePlaceholder = "(Aucun)"

// fieldLabels gives the label of each required field as shown to the business.
var fieldLabels = map[string]string{
	domain.FieldName:  "Nom",
	domain.FieldPhone: "Téléphone",
	domain.FieldEmail: "Email",
	domain.FieldLevel: "Niveau",
	domain.FieldDate:  "Date",
	domain.FieldTime:  "Heure",
	domain.FieldPack:  "Formule",
}

// Addresses are the fixed envelope parties of composed messages.
type Addresses struct {
	From      string // Sender of both messages
	Recipient string // Business inbox receiving notifications
}

// Composer renders reservation messages from embedded templates.
// It is safe for concurrent use.
type Composer struct {
	addrs Addresses
	brand string
	html  *htmltemplate.Template
	text  *texttemplate.Template
}

// NewComposer parses the embedded templates.
func NewComposer(addrs Addresses) (*Composer, error) {
	html, err := htmltemplate.New("email").Funcs(htmltemplate.FuncMap(emailTemplateFuncs())).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html email templates: %w", err)
	}
	text, err := texttemplate.New("email").Funcs(emailTemplateFuncs()).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text email templates: %w", err)
	}
	return &Composer{
		addrs: addrs,
		brand: DefaultFromName,
		html:  html,
		text:  text,
	}, nil
}

type fieldRow struct {
	Label string
	Value string
}

type notificationData struct {
	Brand       string
	Rows        []fieldRow
	Message     string
	Placeholder string
}

// Notification builds the message sent to the business inbox.
// Reply-To is the submitter so a plain reply reaches the customer.
func (c *Composer) Notification(r *domain.Reservation) (*Message, error) {
	data := notificationData{
		Brand:       c.brand,
		Rows:        make([]fieldRow, 0, len(domain.RequiredFields)),
		Placeholder: NoMessagePlaceholder,
	}
	for _, field := range domain.RequiredFields {
		data.Rows = append(data.Rows, fieldRow{Label: fieldLabels[field], Value: r.Get(field)})
	}
	if r.HasMessage() {
		data.Message = strings.TrimSpace(r.Message)
	}

	var html, text bytes.Buffer
	if err := c.html.ExecuteTemplate(&html, "notification.html", data); err != nil {
		return nil, fmt.Errorf("failed to render notification html: %w", err)
	}
	if err := c.text.ExecuteTemplate(&text, "notification.txt", data); err != nil {
		return nil, fmt.Errorf("failed to render notification text: %w", err)
	}

	return &Message{
		From:     c.addrs.From,
		To:       c.addrs.Recipient,
		ReplyTo:  r.Email,
		Subject:  fmt.Sprintf("Nouvelle réservation — %s (%s)", r.Name, r.Level),
		TextBody: text.String(),
		HTMLBody: html.String(),
		Tag:      TagNotification,
	}, nil
}

type acknowledgmentData struct {
	Brand string
	Name  string
	Level string
	Date  string
	Time  string
}

// Acknowledgment builds the plain-text receipt sent to the submitter.
func (c *Composer) Acknowledgment(r *domain.Reservation) (*Message, error) {
	var text bytes.Buffer
	err := c.text.ExecuteTemplate(&text, "acknowledgment.txt", acknowledgmentData{
		Brand: c.brand,
		Name:  r.Name,
		Level: r.Level,
		Date:  r.Date,
		Time:  r.Time,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render acknowledgment: %w", err)
	}

	return &Message{
		From:     c.addrs.From,
		To:       r.Email,
		Subject:  c.brand + " — Demande reçue ✅",
		TextBody: text.String(),
		Tag:      TagAcknowledgment,
	}, nil
}

// =============================================================================
// Template Functions
// =============================================================================

// emailTemplateFuncs returns template functions available in email templates.
func emailTemplateFuncs() texttemplate.FuncMap {
	return texttemplate.FuncMap{
		// lines splits free text so the HTML template can join it with <br>.
		"lines": func(s string) []string {
			s = strings.ReplaceAll(s, "\r\n", "\n")
			return strings.Split(s, "\n")
		},
	}
}
