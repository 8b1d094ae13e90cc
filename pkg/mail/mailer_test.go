package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	authed  bool
	from    string
	rcpts   []string
	data    bytes.Buffer
	rcptErr error
	quit    bool
	closed  bool
}

func (f *fakeSession) Extension(string) (bool, string) { return false, "" }
func (f *fakeSession) StartTLS(*tls.Config) error      { return nil }
func (f *fakeSession) Auth(smtp.Auth) error            { f.authed = true; return nil }
func (f *fakeSession) Mail(from string) error          { f.from = from; return nil }
func (f *fakeSession) Quit() error                     { f.quit = true; return nil }
func (f *fakeSession) Close() error                    { f.closed = true; return nil }

func (f *fakeSession) Rcpt(to string) error {
	if f.rcptErr != nil {
		return f.rcptErr
	}
	f.rcpts = append(f.rcpts, to)
	return nil
}

func (f *fakeSession) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&f.data}, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newTestSender(t *testing.T, cfg Config, fake *fakeSession) *SMTPSender {
	t.Helper()

	sender, err := NewSMTPSender(cfg)
	require.NoError(t, err)
	sender.dial = func(context.Context, Config) (session, error) { return fake, nil }
	sender.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }
	return sender
}

func TestNewSMTPSenderValidatesConfig(t *testing.T) {
	_, err := NewSMTPSender(Config{Port: 25, From: "noreply@example.edu"})
	require.ErrorContains(t, err, "host is required")

	_, err = NewSMTPSender(Config{Host: "smtp.example.edu", From: "noreply@example.edu"})
	require.ErrorContains(t, err, "port is required")

	_, err = NewSMTPSender(Config{Host: "smtp.example.edu", Port: 25, From: "not an address"})
	require.ErrorContains(t, err, "invalid from address")

	sender, err := NewSMTPSender(Config{Host: "smtp.example.edu", Port: 25, From: "GitTeams <noreply@example.edu>"})
	require.NoError(t, err)
	require.Equal(t, defaultTimeout, sender.cfg.Timeout)
}

func TestSendDeliversToDistinctRecipients(t *testing.T) {
	fake := &fakeSession{}
	sender := newTestSender(t, Config{
		Host:     "smtp.example.edu",
		Port:     587,
		Username: "relay",
		Password: "pw",
		From:     "GitTeams <noreply@example.edu>",
	}, fake)

	err := sender.Send(context.Background(), Message{
		To:      []string{"alice@example.edu", " ALICE@example.edu ", "bob@example.edu", ""},
		Subject: "Group 1\r\nBcc: evil@example.com",
		Body:    "line one\nline two",
	})
	require.NoError(t, err)

	require.True(t, fake.authed)
	require.Equal(t, "noreply@example.edu", fake.from)
	require.Equal(t, []string{"alice@example.edu", "bob@example.edu"}, fake.rcpts)
	require.True(t, fake.quit)
	require.True(t, fake.closed)

	raw := fake.data.String()
	require.Contains(t, raw, "From: \"GitTeams\" <noreply@example.edu>\r\n")
	require.Contains(t, raw, "Subject: Group 1 Bcc: evil@example.com\r\n")
	require.Contains(t, raw, "Date: Mon, 02 Mar 2026 10:00:00 +0000\r\n")
	require.True(t, strings.HasSuffix(raw, "\r\n\r\nline one\r\nline two"))
}

func TestSendSkipsAuthWithoutUsername(t *testing.T) {
	fake := &fakeSession{}
	sender := newTestSender(t, Config{Host: "smtp.example.edu", Port: 25, From: "noreply@example.edu"}, fake)

	require.NoError(t, sender.Send(context.Background(), Message{To: []string{"alice@example.edu"}, Body: "hi"}))
	require.False(t, fake.authed)
}

func TestSendRejectsBadRecipients(t *testing.T) {
	fake := &fakeSession{}
	sender := newTestSender(t, Config{Host: "smtp.example.edu", Port: 25, From: "noreply@example.edu"}, fake)

	err := sender.Send(context.Background(), Message{To: []string{"nope"}})
	require.ErrorContains(t, err, "invalid recipient")

	err = sender.Send(context.Background(), Message{To: []string{" "}})
	require.ErrorContains(t, err, "at least one recipient")
	require.Empty(t, fake.from)
}

func TestSendSurfacesRelayErrors(t *testing.T) {
	fake := &fakeSession{rcptErr: errors.New("550 mailbox unavailable")}
	sender := newTestSender(t, Config{Host: "smtp.example.edu", Port: 25, From: "noreply@example.edu"}, fake)

	err := sender.Send(context.Background(), Message{To: []string{"alice@example.edu"}, Body: "hi"})
	require.ErrorContains(t, err, "550 mailbox unavailable")
	require.True(t, fake.closed)
	require.False(t, fake.quit)
}
