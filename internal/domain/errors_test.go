package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), EINTERNAL},
		{"invalid", Invalid("op", "bad"), EINVALID},
		{"config", Misconfigured("op", "no smtp"), ECONFIG},
		{"unavailable", Unavailable(errors.New("dial"), "op", "send failed"), EUNAVAILABLE},
		{"validation", NewValidationError("op", FieldPack), EINVALID},
		{"wrapped", fmt.Errorf("ctx: %w", Misconfigured("op", "no smtp")), ECONFIG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable(cause, "email.send", "notification failed")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "email.send")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestErrorOp(t *testing.T) {
	assert.Equal(t, "reservation.validate", ErrorOp(NewValidationError("reservation.validate", FieldName)))
	assert.Equal(t, "a.b", ErrorOp(Invalid("a.b", "x")))
	assert.Equal(t, "", ErrorOp(errors.New("x")))
}
