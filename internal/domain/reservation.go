package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Field names as they appear in the JSON payload and the HTML form.
const (
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldEmail   = "email"
	FieldLevel   = "level"
	FieldDate    = "date"
	FieldTime    = "time"
	FieldPack    = "pack"
	FieldMessage = "message"
)

// RequiredFields is the fixed order used for validation and for every
// rendering of a reservation.
var RequiredFields = []string{
	FieldName,
	FieldPhone,
	FieldEmail,
	FieldLevel,
	FieldDate,
	FieldTime,
	FieldPack,
}

// Reservation is a single booking intent submitted through the site form.
// It lives for the duration of one request and is never stored.
type Reservation struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Level   string `json:"level"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Pack    string `json:"pack"`
	Message string `json:"message,omitempty"`
}

// NewReservationFromPayload extracts a reservation from a decoded JSON
// object. Only string values are kept: a required field sent as a number,
// boolean, object or null is treated as missing.
func NewReservationFromPayload(payload map[string]any) *Reservation {
	str := func(key string) string {
		if s, ok := payload[key].(string); ok {
			return s
		}
		return ""
	}
	return &Reservation{
		Name:    str(FieldName),
		Phone:   str(FieldPhone),
		Email:   str(FieldEmail),
		Level:   str(FieldLevel),
		Date:    str(FieldDate),
		Time:    str(FieldTime),
		Pack:    str(FieldPack),
		Message: str(FieldMessage),
	}
}

// Normalize trims surrounding whitespace and converts every field to
// Unicode NFC so "Débutant" typed with a combining accent renders the same
// as the precomposed form.
func (r *Reservation) Normalize() {
	for _, f := range r.fields() {
		*f = norm.NFC.String(strings.TrimSpace(*f))
	}
}

// Validate checks that every required field is non-blank after trimming.
// It does not modify the reservation.
func (r *Reservation) Validate() error {
	var missing []string
	for _, field := range RequiredFields {
		if strings.TrimSpace(r.Get(field)) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return NewValidationError("reservation.validate", missing...)
	}
	return nil
}

// HasMessage reports whether the optional free-text message is non-blank.
func (r *Reservation) HasMessage() bool {
	return strings.TrimSpace(r.Message) != ""
}

// Get returns the value of the named field, or "" for an unknown name.
func (r *Reservation) Get(field string) string {
	switch field {
	case FieldName:
		return r.Name
	case FieldPhone:
		return r.Phone
	case FieldEmail:
		return r.Email
	case FieldLevel:
		return r.Level
	case FieldDate:
		return r.Date
	case FieldTime:
		return r.Time
	case FieldPack:
		return r.Pack
	case FieldMessage:
		return r.Message
	}
	return ""
}

func (r *Reservation) fields() []*string {
	return []*string{
		&r.Name, &r.Phone, &r.Email, &r.Level,
		&r.Date, &r.Time, &r.Pack, &r.Message,
	}
}
