package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/csnm/internal/domain"
	"github.com/DukeRupert/csnm/internal/email"
	"github.com/DukeRupert/csnm/internal/metrics"
)

// MailSettings carries the resolved mail configuration of the process.
type MailSettings struct {
	From               string // Sender of both messages
	Recipient          string // Business inbox
	SendAcknowledgment bool   // Send the receipt back to the submitter
	Configured         bool   // The transport has everything it needs
}

// ReservationService defines the interface for reservation intake.
type ReservationService interface {
	// Submit validates the reservation and dispatches the business
	// notification, then the acknowledgment when enabled. Both sends must
	// succeed for the submission to succeed.
	Submit(ctx context.Context, r *domain.Reservation) error
}

// reservationService implements ReservationService.
type reservationService struct {
	transport email.Transport
	composer  *email.Composer
	settings  MailSettings
	logger    *slog.Logger
}

// NewReservationService creates a new ReservationService.
func NewReservationService(transport email.Transport, settings MailSettings, logger *slog.Logger) (ReservationService, error) {
	composer, err := email.NewComposer(email.Addresses{
		From:      settings.From,
		Recipient: settings.Recipient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create email composer: %w", err)
	}

	return &reservationService{
		transport: transport,
		composer:  composer,
		settings:  settings,
		logger:    logger,
	}, nil
}

// Submit validates the reservation and dispatches the business
// notification, then the acknowledgment when enabled.
func (s *reservationService) Submit(ctx context.Context, r *domain.Reservation) error {
	const op = "ReservationService.Submit"

	if r == nil {
		r = &domain.Reservation{}
	}
	r.Normalize()

	if err := r.Validate(); err != nil {
		metrics.ReservationHandled(metrics.OutcomeInvalid)
		s.logger.Info("reservation rejected", "op", op, "error", err)
		return err
	}

	if !s.settings.Configured {
		metrics.ReservationHandled(metrics.OutcomeMisconfigured)
		s.logger.Error("mail transport is not configured", "op", op)
		return domain.Misconfigured(op, "Mail transport is not configured")
	}

	submissionID := uuid.New()
	logger := s.logger.With("submission_id", submissionID, "pack", r.Pack, "level", r.Level)

	notification, err := s.composer.Notification(r)
	if err != nil {
		metrics.ReservationHandled(metrics.OutcomeFailed)
		logger.Error("failed to compose notification", "error", err, "op", op)
		return domain.Internal(err, op, "Failed to compose notification")
	}
	if err := s.send(ctx, logger, notification); err != nil {
		metrics.ReservationHandled(metrics.OutcomeFailed)
		return domain.Unavailable(err, op, "Failed to send reservation notification")
	}

	if s.settings.SendAcknowledgment {
		ack, err := s.composer.Acknowledgment(r)
		if err != nil {
			metrics.ReservationHandled(metrics.OutcomeFailed)
			logger.Error("failed to compose acknowledgment", "error", err, "op", op)
			return domain.Internal(err, op, "Failed to compose acknowledgment")
		}
		if err := s.send(ctx, logger, ack); err != nil {
			metrics.ReservationHandled(metrics.OutcomeFailed)
			return domain.Unavailable(err, op, "Failed to send acknowledgment")
		}
	}

	metrics.ReservationHandled(metrics.OutcomeAccepted)
	logger.Info("reservation accepted", "acknowledged", s.settings.SendAcknowledgment)

	return nil
}

// send makes a single delivery attempt and records its outcome.
func (s *reservationService) send(ctx context.Context, logger *slog.Logger, msg *email.Message) error {
	start := time.Now()
	err := s.transport.Send(ctx, msg)
	elapsed := time.Since(start)

	if err != nil {
		metrics.EmailFailed(msg.Tag, elapsed)
		logger.Error("failed to send email", "kind", msg.Tag, "error", err, "duration_ms", elapsed.Milliseconds())
		return err
	}

	metrics.EmailSent(msg.Tag, elapsed)
	logger.Debug("email sent", "kind", msg.Tag, "duration_ms", elapsed.Milliseconds())
	return nil
}
