// Package client submits reservations the way the site form does and
// turns the outcome into the notice shown to the visitor.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DukeRupert/csnm/internal/domain"
)

const (
	// ReservationPath is the endpoint the form posts to.
	ReservationPath = "/api/reservation"

	// NoticeDuration is how long a notice stays visible.
	NoticeDuration = 5 * time.Second

	// DefaultTimeout bounds a whole submission round trip.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 64 << 10
)

// Notice texts.
const (
	SuccessText     = "✅ Demande envoyée ! On te répond rapidement par email."
	FailurePrefix   = "❌ "
	RejectedText    = "Erreur d’envoi."
	UnreachableText = "Impossible d’envoyer. Réessaie."
)

// Notice is the transient message displayed after a submission.
type Notice struct {
	OK       bool
	Text     string
	Duration time.Duration
}

// Config contains configuration for the form client.
type Config struct {
	BaseURL string        // Site origin, e.g. "http://localhost:5050"
	Timeout time.Duration // Whole round trip, defaults to DefaultTimeout
}

// Client posts reservation records to the site API.
type Client struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// New creates a new form client.
func New(config Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(config.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", config.BaseURL)
	}

	// Set defaults
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		endpoint: base.JoinPath(ReservationPath).String(),
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}, nil
}

// Submit posts the flat record once and reports the outcome as a notice.
// It never retries.
func (c *Client) Submit(ctx context.Context, fields map[string]string) Notice {
	body, err := json.Marshal(fields)
	if err != nil {
		c.logger.Error("failed to encode reservation", "error", err)
		return failure(UnreachableText)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("failed to build reservation request", "error", err)
		return failure(UnreachableText)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("reservation request failed", "error", err)
		return failure(UnreachableText)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Notice{OK: true, Text: SuccessText, Duration: NoticeDuration}
	}

	// A body that is not the expected JSON falls back to the generic text.
	var apiResp struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = json.Unmarshal(raw, &apiResp)

	c.logger.Info("reservation rejected", "status", resp.StatusCode, "error", apiResp.Error)

	if apiResp.Error != "" {
		return failure(apiResp.Error)
	}
	return failure(RejectedText)
}

func failure(text string) Notice {
	return Notice{OK: false, Text: FailurePrefix + text, Duration: NoticeDuration}
}

// FormFields flattens submitted form values into the record posted to the
// API. A repeated name keeps its last value. An empty pack is dropped.
func FormFields(values url.Values) map[string]string {
	fields := make(map[string]string, len(values))
	for name, vs := range values {
		if len(vs) == 0 {
			continue
		}
		fields[name] = vs[len(vs)-1]
	}
	if pack, ok := fields[domain.FieldPack]; ok && pack == "" {
		delete(fields, domain.FieldPack)
	}
	return fields
}
