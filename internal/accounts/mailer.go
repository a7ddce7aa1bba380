package accounts

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/config"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
)

// SMTPMailer delivers transactional mail through a configured SMTP relay
type SMTPMailer struct {
	config *config.MailConfig
	logger *logger.Logger
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(cfg *config.MailConfig, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{
		config: cfg,
		logger: log,
	}
}

// Send delivers a plain-text message to a single recipient. When mail is
// disabled the message is logged instead of sent, mirroring a development
// console mail backend.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.config.Enabled {
		m.logger.WithFields(map[string]interface{}{
			"to":      to,
			"subject": subject,
			"body":    body,
		}).Info("Mail (console mode)")
		return nil
	}

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", m.config.From),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)

	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.config.From, []string{to}, []byte(msg))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail: %w", err)
		}
		m.logger.WithFields(map[string]interface{}{
			"to":      to,
			"subject": subject,
		}).Info("Mail sent")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
