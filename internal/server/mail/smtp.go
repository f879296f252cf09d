package mail

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/storeauth/internal/logging"
	"github.com/dmitrijs2005/storeauth/internal/server/config"
	"gopkg.in/gomail.v2"
)

// SMTPMailer implements Mailer over a plain SMTP transport.
type SMTPMailer struct {
	cfg    *config.Config
	logger logging.Logger

	// dialAndSend is a seam for testing without a live SMTP server.
	dialAndSend func(m *gomail.Message) error
}

// NewSMTPMailer creates a mailer using the SMTP settings from cfg.
func NewSMTPMailer(cfg *config.Config, logger logging.Logger) *SMTPMailer {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return &SMTPMailer{
		cfg:         cfg,
		logger:      logger,
		dialAndSend: func(m *gomail.Message) error { return d.DialAndSend(m) },
	}
}

// SendRecoveryEmail mails the recovery token to the user. The message links
// to the client-supplied callback with the token and email as query values.
func (s *SMTPMailer) SendRecoveryEmail(ctx context.Context, to string, token string, callback string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.MailFrom, s.cfg.MailFromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("[%s] Password recovery", s.cfg.MailFromName))
	m.SetBody("text/html", s.buildHTMLBody(to, token, callback))

	if err := s.dialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info(ctx, "recovery email sent", "to", to)
	return nil
}

func (s *SMTPMailer) buildHTMLBody(to string, token string, callback string) string {
	link := fmt.Sprintf("%s?token=%s&email=%s", callback, url.QueryEscape(token), url.QueryEscape(to))

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>%s password recovery</h2>
    <p>Someone requested a password reset for this address. If that was you,
    follow the link below to choose a new password:</p>
    <p><a href="%s">Reset password</a></p>
    <p>Or paste this code into the recovery form:</p>
    <div style="font-size: 20px; font-weight: bold; letter-spacing: 2px;">%s</div>
    <p>If you did not request a reset, you can ignore this message.</p>
  </div>
</body>
</html>`, s.cfg.MailFromName, link, token)
}
