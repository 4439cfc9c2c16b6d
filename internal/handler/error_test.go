package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DukeRupert/csnm/internal/domain"
)

// =============================================================================
// Error Response Tests - Security Focus
// =============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serveError(err error) *httptest.ResponseRecorder {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, discardLogger(), MessagesFor("fr"), err)
	})
	req := httptest.NewRequest("POST", "/api/reservation", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if len(body) != 1 {
		t.Errorf("error body should only contain the error key, got %v", body)
	}
	msg, ok := body["error"].(string)
	if !ok {
		t.Fatalf("error should be a string, got %T", body["error"])
	}
	return msg
}

func TestErrorResponse_ValidationError(t *testing.T) {
	rec := serveError(domain.NewValidationError("reservation.validate", "name", "pack"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	if msg := decodeError(t, rec); msg != "Champs manquants. Merci de remplir le formulaire." {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestErrorResponse_ConfigurationError(t *testing.T) {
	rec := serveError(domain.Misconfigured("ReservationService.Submit", "Mail transport is not configured"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "SMTP non configuré. Ajoute les variables dans .env (SMTP_*)." {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestErrorWriter_RateLimited(t *testing.T) {
	write := ErrorWriter(discardLogger(), MessagesFor("fr"))
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		write(w, r, domain.Errorf(domain.ERATELIMIT, "middleware.Limit", "rate limit exceeded"))
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/reservation", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After should survive, got %q", got)
	}
	if msg := decodeError(t, rec); msg != "Trop de demandes. Réessaie plus tard." {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestErrorResponse_DispatchErrorHidesCause(t *testing.T) {
	cause := errors.New("535 5.7.8 authentication failed for club@example.com")
	rec := serveError(domain.Unavailable(cause, "ReservationService.Submit", "Failed to send reservation notification"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}

	msg := decodeError(t, rec)
	if msg != "Erreur serveur. Vérifie la configuration SMTP." {
		t.Errorf("unexpected message: %q", msg)
	}
	for _, leak := range []string{"535", "club@example.com", "ReservationService"} {
		if strings.Contains(msg, leak) {
			t.Errorf("response exposes %q: %s", leak, msg)
		}
	}
}

func TestErrorResponse_UnknownErrorIsGeneric(t *testing.T) {
	rec := serveError(errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != MessagesFor("fr").Dispatch {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.ETOOLARGE, http.StatusRequestEntityTooLarge},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.ECONFIG, http.StatusInternalServerError},
		{domain.EUNAVAILABLE, http.StatusInternalServerError},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"something_else", http.StatusInternalServerError},
	}

	for _, tc := range tests {
		if got := ErrorCodeToHTTPStatus(tc.code); got != tc.want {
			t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", tc.code, got, tc.want)
		}
	}
}
