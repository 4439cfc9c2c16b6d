package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/csnm/internal/domain"
	"github.com/DukeRupert/csnm/internal/email"
)

// MockTransport records every message handed to it.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(ctx context.Context, msg *email.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func isTag(tag string) any {
	return mock.MatchedBy(func(msg *email.Message) bool { return msg.Tag == tag })
}

func configuredSettings() MailSettings {
	return MailSettings{
		From:               `"CSNM" <club@example.com>`,
		Recipient:          "inbox@example.com",
		SendAcknowledgment: true,
		Configured:         true,
	}
}

func newTestService(t *testing.T, transport email.Transport, settings MailSettings) ReservationService {
	t.Helper()
	svc, err := NewReservationService(transport, settings, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return svc
}

func validReservation() *domain.Reservation {
	return &domain.Reservation{
		Name:  "Jo",
		Phone: "0600000000",
		Email: "jo@example.com",
		Level: "Débutant",
		Date:  "2024-06-01",
		Time:  "18:00",
		Pack:  "Pack A",
	}
}

func sentMessages(m *MockTransport) []*email.Message {
	var msgs []*email.Message
	for _, call := range m.Calls {
		if call.Method == "Send" {
			msgs = append(msgs, call.Arguments.Get(1).(*email.Message))
		}
	}
	return msgs
}

func TestSubmit_SendsNotificationThenAcknowledgment(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(t, transport, configuredSettings())
	require.NoError(t, svc.Submit(context.Background(), validReservation()))

	msgs := sentMessages(transport)
	require.Len(t, msgs, 2)

	notification, ack := msgs[0], msgs[1]
	assert.Equal(t, email.TagNotification, notification.Tag)
	assert.Equal(t, "inbox@example.com", notification.To)
	assert.Equal(t, "jo@example.com", notification.ReplyTo)
	assert.Contains(t, notification.Subject, "Jo")
	assert.Contains(t, notification.Subject, "Débutant")

	assert.Equal(t, email.TagAcknowledgment, ack.Tag)
	assert.Equal(t, "jo@example.com", ack.To)
	assert.Contains(t, ack.TextBody, "Débutant")
	assert.Contains(t, ack.TextBody, "2024-06-01")
	assert.Contains(t, ack.TextBody, "18:00")
}

func TestSubmit_AcknowledgmentDisabled(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Send", mock.Anything, isTag(email.TagNotification)).Return(nil).Once()

	settings := configuredSettings()
	settings.SendAcknowledgment = false

	svc := newTestService(t, transport, settings)
	require.NoError(t, svc.Submit(context.Background(), validReservation()))

	transport.AssertExpectations(t)
	transport.AssertNumberOfCalls(t, "Send", 1)
}

func TestSubmit_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *domain.Reservation)
		want   []string
	}{
		{"empty name", func(r *domain.Reservation) { r.Name = "" }, []string{domain.FieldName}},
		{"blank phone", func(r *domain.Reservation) { r.Phone = "   " }, []string{domain.FieldPhone}},
		{"blank pack", func(r *domain.Reservation) { r.Pack = "\t\n" }, []string{domain.FieldPack}},
		{"several", func(r *domain.Reservation) { r.Email = ""; r.Time = " " }, []string{domain.FieldEmail, domain.FieldTime}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			svc := newTestService(t, transport, configuredSettings())

			r := validReservation()
			tt.mutate(r)

			err := svc.Submit(context.Background(), r)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.want, ve.Fields)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
			transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_NilReservationIsInvalid(t *testing.T) {
	transport := new(MockTransport)
	svc := newTestService(t, transport, configuredSettings())

	err := svc.Submit(context.Background(), nil)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.RequiredFields, ve.Fields)
}

func TestSubmit_NotConfigured(t *testing.T) {
	transport := new(MockTransport)
	svc := newTestService(t, transport, MailSettings{SendAcknowledgment: true})

	err := svc.Submit(context.Background(), validReservation())

	require.Error(t, err)
	assert.Equal(t, domain.ECONFIG, domain.ErrorCode(err))
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSubmit_ValidationBeforeConfiguration(t *testing.T) {
	transport := new(MockTransport)
	svc := newTestService(t, transport, MailSettings{})

	r := validReservation()
	r.Name = ""

	err := svc.Submit(context.Background(), r)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestSubmit_NotificationFailureSkipsAcknowledgment(t *testing.T) {
	cause := errors.New("535 authentication failed")
	transport := new(MockTransport)
	transport.On("Send", mock.Anything, isTag(email.TagNotification)).Return(cause).Once()

	svc := newTestService(t, transport, configuredSettings())
	err := svc.Submit(context.Background(), validReservation())

	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.ErrorIs(t, err, cause)
	transport.AssertNumberOfCalls(t, "Send", 1)
}

func TestSubmit_AcknowledgmentFailureFailsSubmission(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Send", mock.Anything, isTag(email.TagNotification)).Return(nil).Once()
	transport.On("Send", mock.Anything, isTag(email.TagAcknowledgment)).Return(errors.New("mailbox unavailable")).Once()

	svc := newTestService(t, transport, configuredSettings())
	err := svc.Submit(context.Background(), validReservation())

	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	transport.AssertExpectations(t)
}

func TestSubmit_BlankMessageUsesPlaceholder(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil)

	r := validReservation()
	r.Message = "   "

	svc := newTestService(t, transport, configuredSettings())
	require.NoError(t, svc.Submit(context.Background(), r))

	notification := sentMessages(transport)[0]
	assert.Contains(t, notification.TextBody, email.NoMessagePlaceholder)
	assert.Contains(t, notification.HTMLBody, "<em>"+email.NoMessagePlaceholder+"</em>")
}

func TestSubmit_NormalizesInput(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil)

	r := validReservation()
	r.Name = "  Jo  "
	r.Email = " jo@example.com\n"

	svc := newTestService(t, transport, configuredSettings())
	require.NoError(t, svc.Submit(context.Background(), r))

	notification := sentMessages(transport)[0]
	assert.Equal(t, "jo@example.com", notification.ReplyTo)
	assert.Equal(t, "Nouvelle réservation — Jo (Débutant)", notification.Subject)
}

func TestSubmit_HTMLIsEscaped(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil)

	r := validReservation()
	r.Message = `<script>alert('x')</script>` + "\nbye"

	svc := newTestService(t, transport, configuredSettings())
	require.NoError(t, svc.Submit(context.Background(), r))

	html := sentMessages(transport)[0].HTMLBody
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;<br>bye")
}
