package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DukeRupert/csnm/internal/domain"
	"github.com/DukeRupert/csnm/internal/service"
)

// MaxReservationBodyBytes caps the JSON body of a reservation request.
const MaxReservationBodyBytes = 1 << 20

// ReservationHandler accepts reservation requests from the site form.
type ReservationHandler struct {
	service  service.ReservationService
	messages Messages
	logger   *slog.Logger
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(svc service.ReservationService, messages Messages, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{
		service:  svc,
		messages: messages,
		logger:   logger,
	}
}

// RegisterRoutes mounts POST /api/reservation behind the given middleware.
func (h *ReservationHandler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.With(middlewares...).Post("/api/reservation", h.Submit)
}

// Submit handles POST /api/reservation.
//
// Responses:
// - 200 {"ok": true} once every message was handed to the transport
// - 400 when a required field is missing or the body is not a JSON object
// - 500 when the transport is not configured or a send failed
func (h *ReservationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "ReservationHandler.Submit"

	r.Body = http.MaxBytesReader(w, r.Body, MaxReservationBodyBytes)

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(w, r, h.logger, h.messages, domain.Errorf(domain.ETOOLARGE, op, "body exceeds %d bytes", tooLarge.Limit))
			return
		}
		ErrorResponse(w, r, h.logger, h.messages, domain.Invalid(op, "malformed JSON body: "+err.Error()))
		return
	}

	reservation := domain.NewReservationFromPayload(payload)
	if err := h.service.Submit(r.Context(), reservation); err != nil {
		ErrorResponse(w, r, h.logger, h.messages, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
