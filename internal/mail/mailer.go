package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/slim-mom/backend/internal/config"
)

// Mailer is the outbound email transport. Delivery failures are the
// caller's problem to classify: registration swallows them, the bare
// dispatch endpoint reports them.
type Mailer interface {
	SendVerification(ctx context.Context, to, link string) error
	Send(ctx context.Context, to, subject, body string) error
}

const sendTimeout = 10 * time.Second

type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		Host:     cfg.SMTP_HOST,
		Port:     cfg.SMTP_PORT,
		Username: cfg.SMTP_USER,
		Password: cfg.SMTP_PASSWORD,
		From:     cfg.MAIL_FROM,
	}
}

func (m *SMTPMailer) SendVerification(ctx context.Context, to, link string) error {
	body := fmt.Sprintf("Click the following link to verify your email address: %s", link)
	return m.Send(ctx, to, "Verify Your Email Address", body)
}

// Send delivers a single plain-text message. smtp.SendMail has no
// context support, so the call is raced against the deadline to keep a
// slow mail server from stalling the request.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	message := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.From, to, subject, body))

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, message)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}
