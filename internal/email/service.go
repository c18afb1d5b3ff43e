package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/redmonkez12/beauty-assistant-api/internal/config"
	"github.com/redmonkez12/beauty-assistant-api/internal/logging"
)

// Sender is what the auth service needs for account notifications.
type Sender interface {
	SendWelcomeEmail(ctx context.Context, toEmail, username string) error
	SendPasswordChangedEmail(ctx context.Context, toEmail, username string) error
}

// dialer is satisfied by *gomail.Dialer.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Service struct {
	dialer    dialer
	fromEmail string
}

func NewService(cfg config.EmailConfig) *Service {
	return &Service{
		dialer:    gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		fromEmail: cfg.FromAddress,
	}
}

// NewSender returns an SMTP-backed sender, or a no-op one when no relay is configured.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.Enabled() {
		return Noop{}
	}
	return NewService(cfg)
}

// SendWelcomeEmail greets a newly registered user.
// This method is designed to be called in a goroutine
func (s *Service) SendWelcomeEmail(ctx context.Context, toEmail, username string) error {
	return s.send(ctx, toEmail, "Welcome to Beauty Assistant", welcomeTemplate, username)
}

// SendPasswordChangedEmail tells the account owner their password was changed.
func (s *Service) SendPasswordChangedEmail(ctx context.Context, toEmail, username string) error {
	return s.send(ctx, toEmail, "Your password was changed", passwordChangedTemplate, username)
}

func (s *Service) send(ctx context.Context, toEmail, subject string, tmpl *template.Template, username string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := render(tmpl, username)
	if err != nil {
		logger.Error("failed to render email template", "template", tmpl.Name(), "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.fromEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialAndSend(ctx, m); err != nil {
		logger.Error("failed to send email", "template", tmpl.Name(), "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("email sent", "template", tmpl.Name(), "email", toEmail)
	return nil
}

// dialAndSend gives up when ctx is done. gomail has no context support, so a
// stalled relay keeps its own goroutine until the connection fails.
func (s *Service) dialAndSend(ctx context.Context, m *gomail.Message) error {
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func render(tmpl *template.Template, username string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Username string
	}{
		Username: username,
	}

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

// Noop drops every message.
type Noop struct{}

func (Noop) SendWelcomeEmail(context.Context, string, string) error { return nil }

func (Noop) SendPasswordChangedEmail(context.Context, string, string) error { return nil }

const layout = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            background-color: #D9467A;
            color: white;
            padding: 20px;
            text-align: center;
            border-radius: 5px 5px 0 0;
        }
        .content {
            background-color: #fdf7f9;
            padding: 30px;
            border-radius: 0 0 5px 5px;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{template "title" .}}</h1>
    </div>
    <div class="content">
        {{template "content" .}}
    </div>
    <div class="footer">
        <p>&copy; 2026 Beauty Assistant. All rights reserved.</p>
    </div>
</body>
</html>
`

var welcomeTemplate = template.Must(template.Must(template.New("welcome").Parse(layout)).Parse(`
{{define "title"}}Welcome!{{end}}
{{define "content"}}
        <h2>Hi {{.Username}},</h2>
        <p>Your Beauty Assistant account is ready. Sign in with your email or username to start your first face analysis.</p>
        <p style="margin-top: 30px;">If you didn't create an account, please contact support.</p>
{{end}}`))

var passwordChangedTemplate = template.Must(template.Must(template.New("password_changed").Parse(layout)).Parse(`
{{define "title"}}Password changed{{end}}
{{define "content"}}
        <h2>Hi {{.Username}},</h2>
        <p>The password for your Beauty Assistant account was just changed.</p>
        <p style="margin-top: 30px;">If this wasn't you, reset your password immediately and contact support.</p>
{{end}}`))
