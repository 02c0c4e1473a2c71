package notify

import (
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/config"
	gomail "gopkg.in/gomail.v2"
)

// MailSender delivers one HTML mail.
type MailSender interface {
	Send(to, subject, html string) error
}

// SMTPSender sends through an SMTP relay.
type SMTPSender struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// NewSMTPSender builds a sender from SMTP_* settings.
func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}
}

func (s *SMTPSender) Send(to, subject, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	return gomail.NewDialer(s.Host, s.Port, s.User, s.Pass).DialAndSend(m)
}

// LogSender only logs recipients and subjects. Used when SMTP is not configured.
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender creates a new LogSender.
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "log_sender").Logger()}
}

func (s *LogSender) Send(to, subject, _ string) error {
	s.log.Info().Str("to", to).Str("subject", subject).Msg("Mail not sent, SMTP disabled")
	return nil
}

// NewSender picks SMTP when configured, else the log sender.
func NewSender(cfg *config.Config, log zerolog.Logger) MailSender {
	if cfg.SMTPConfigured() {
		return NewSMTPSender(cfg)
	}
	return NewLogSender(log)
}
