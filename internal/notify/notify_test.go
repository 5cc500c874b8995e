package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"awards/models"

	"github.com/stretchr/testify/require"
)

func TestReminder(t *testing.T) {
	msg, err := Reminder(models.JuryMember{Name: "Ada", Email: "ada@example.org"}, 3, "2026")
	require.NoError(t, err)
	require.Equal(t, "ada@example.org", msg.To)
	require.Contains(t, msg.Subject, "3 evaluations pending")
	require.Contains(t, msg.Body, "Dear Ada")
	require.Contains(t, msg.Body, "3 candidates to evaluate")

	msg, err = Reminder(models.JuryMember{Name: "Ada"}, 1, "2026")
	require.NoError(t, err)
	require.Contains(t, msg.Body, "1 candidate to evaluate")
}

func TestSMTPMailerSend(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "mail.local", Port: 2525, Username: "u", Password: "p", From: "awards@example.org"})

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		require.NotNil(t, a)
		require.Equal(t, "awards@example.org", from)
		return nil
	}

	err := m.Send(context.Background(), Message{To: "ada@example.org", Subject: "Hi", Body: "line1\nline2"})
	require.NoError(t, err)
	require.Equal(t, "mail.local:2525", gotAddr)
	require.Equal(t, []string{"ada@example.org"}, gotTo)
	require.True(t, strings.HasPrefix(string(gotMsg), "From: awards@example.org\r\n"))
	require.Contains(t, string(gotMsg), "line1\r\nline2")
}

func TestSMTPMailerRejectsHeaderInjection(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "mail.local", Port: 25})
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return nil }
	require.Error(t, m.Send(context.Background(), Message{To: "a@b.c\r\nBcc: x@y.z"}))
}

func TestSMTPMailerWrapsErrors(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "mail.local", Port: 25})
	boom := errors.New("boom")
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }
	err := m.Send(context.Background(), Message{To: "a@b.c"})
	require.ErrorIs(t, err, boom)
}
