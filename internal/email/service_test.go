package email

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/redmonkez12/beauty-assistant-api/internal/config"
)

type captureDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestService_SendWelcomeEmail(t *testing.T) {
	d := &captureDialer{}
	s := &Service{dialer: d, fromEmail: "no-reply@beauty-assistant.app"}

	require.NoError(t, s.SendWelcomeEmail(context.Background(), "a@example.com", "alice"))
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"a@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Welcome to Beauty Assistant"}, m.GetHeader("Subject"))

	var raw bytes.Buffer
	_, err := m.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "alice")
}

func TestService_SendError(t *testing.T) {
	s := &Service{dialer: &captureDialer{err: errors.New("connection refused")}, fromEmail: "x@example.com"}

	err := s.SendPasswordChangedEmail(context.Background(), "a@example.com", "alice")
	assert.ErrorContains(t, err, "connection refused")
}

// stalledDialer blocks until released, like an SMTP relay that never answers.
type stalledDialer struct {
	release chan struct{}
}

func (d *stalledDialer) DialAndSend(...*gomail.Message) error {
	<-d.release
	return nil
}

func TestService_SendHonorsContextDeadline(t *testing.T) {
	d := &stalledDialer{release: make(chan struct{})}
	defer close(d.release)
	s := &Service{dialer: d, fromEmail: "x@example.com"}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.SendWelcomeEmail(ctx, "a@example.com", "alice")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRender_EscapesUsername(t *testing.T) {
	body, err := render(welcomeTemplate, "<script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "Welcome!")
}

func TestNewSender(t *testing.T) {
	assert.IsType(t, Noop{}, NewSender(config.EmailConfig{}))
	assert.IsType(t, &Service{}, NewSender(config.EmailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587}))
}
