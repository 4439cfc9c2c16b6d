package internal

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/DukeRupert/csnm/internal/email"
	"github.com/DukeRupert/csnm/internal/service"
)

// Mail providers selectable with MAIL_PROVIDER.
const (
	MailProviderSMTP     = "smtp"
	MailProviderPostmark = "postmark"
	MailProviderLog      = "log"
)

// logProviderAddress is used for both envelope parties when the log
// provider runs without any address configured.
const logProviderAddress = "reservations@localhost"

type Config struct {
	Env       string `env:"ENV" envDefault:"development"`
	Port      int    `env:"PORT" envDefault:"5050"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	PublicDir string `env:"PUBLIC_DIR" envDefault:"web/static"`

	// Mail delivery
	MailProvider  string `env:"MAIL_PROVIDER" envDefault:"smtp"`
	MailTo        string `env:"MAIL_TO"`   // Defaults to SMTP_USER
	MailFrom      string `env:"MAIL_FROM"` // Defaults to "CSNM <SMTP_USER>"
	SendAutoreply bool   `env:"SEND_AUTOREPLY" envDefault:"true"`

	// SMTP Configuration
	SMTPHost    string        `env:"SMTP_HOST"`
	SMTPPort    int           `env:"SMTP_PORT" envDefault:"465"`
	SMTPSecure  bool          `env:"SMTP_SECURE" envDefault:"true"`
	SMTPUser    string        `env:"SMTP_USER"`
	SMTPPass    string        `env:"SMTP_PASS"`
	SMTPTimeout time.Duration `env:"SMTP_TIMEOUT" envDefault:"30s"`

	// Postmark Configuration
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`

	// Language of the messages returned to the form ("fr" or "en")
	MessagesLang string `env:"MESSAGES_LANG" envDefault:"fr"`

	// Reservation endpoint rate limit, per client IP
	ReservationRateLimit  int           `env:"RESERVATION_RATE_LIMIT" envDefault:"10"`
	ReservationRateWindow time.Duration `env:"RESERVATION_RATE_WINDOW" envDefault:"1h"`

	// Optional Redis shared by all instances for rate limiting
	RedisURL string `env:"REDIS_URL"`

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected
	MetricsUsername string `env:"METRICS_USERNAME"`
	MetricsPassword string `env:"METRICS_PASSWORD"`
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	return parseConfig(env.Options{})
}

func parseConfig(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the server can never run with. Missing SMTP
// credentials are not an error here: requests report them instead.
func (c *Config) Validate() error {
	var errs []error

	switch c.MailProvider {
	case MailProviderSMTP, MailProviderLog:
	case MailProviderPostmark:
		if c.PostmarkServerToken == "" {
			errs = append(errs, errors.New("POSTMARK_SERVER_TOKEN is required when MAIL_PROVIDER=postmark"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_PROVIDER %q (want smtp, postmark or log)", c.MailProvider))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid SMTP_PORT %d", c.SMTPPort))
	}
	if _, err := language.Parse(c.MessagesLang); err != nil {
		errs = append(errs, fmt.Errorf("invalid MESSAGES_LANG %q: %w", c.MessagesLang, err))
	}
	if c.ReservationRateLimit <= 0 {
		errs = append(errs, fmt.Errorf("invalid RESERVATION_RATE_LIMIT %d", c.ReservationRateLimit))
	}
	if c.ReservationRateWindow <= 0 {
		errs = append(errs, fmt.Errorf("invalid RESERVATION_RATE_WINDOW %s", c.ReservationRateWindow))
	}

	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// SMTP returns the SMTP transport settings.
func (c *Config) SMTP() email.SMTPConfig {
	return email.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Secure:   c.SMTPSecure,
		Username: c.SMTPUser,
		Password: c.SMTPPass,
		Timeout:  c.SMTPTimeout,
	}
}

// Mail resolves the addresses and the configuration status handed to the
// reservation service.
func (c *Config) Mail() service.MailSettings {
	recipient := c.MailTo
	if recipient == "" {
		recipient = c.SMTPUser
	}
	from := c.MailFrom
	if from == "" && c.SMTPUser != "" {
		from = email.DefaultFrom(c.SMTPUser)
	}

	var configured bool
	switch c.MailProvider {
	case MailProviderSMTP:
		configured = c.SMTP().Configured()
	case MailProviderPostmark:
		configured = c.PostmarkServerToken != ""
	case MailProviderLog:
		if recipient == "" {
			recipient = logProviderAddress
		}
		if from == "" {
			from = email.DefaultFrom(logProviderAddress)
		}
		configured = true
	}

	return service.MailSettings{
		From:               from,
		Recipient:          recipient,
		SendAcknowledgment: c.SendAutoreply,
		Configured:         configured && recipient != "" && from != "",
	}
}
