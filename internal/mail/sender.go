package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/theLastOfCats/contentgate/internal/logging"
)

type MailSender interface {
	Send(to string, subject string, textBody string, htmlBody string) error
}

// ConsoleMailSender logs mail instead of delivering it.
type ConsoleMailSender struct{}

func (s *ConsoleMailSender) Send(to string, subject string, textBody string, htmlBody string) error {
	logging.Info().Str("to", to).Str("subject", subject).Str("text", textBody).Msg("mail not delivered (console sender)")
	return nil
}

type SmtpConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

type SmtpMailSender struct {
	config SmtpConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSmtpMailSender(config SmtpConfig) *SmtpMailSender {
	return &SmtpMailSender{config: config, send: smtp.SendMail}
}

func (s *SmtpMailSender) Send(to string, subject string, textBody string, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	address := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)

	if err := s.send(address, auth, s.config.From, []string{to}, s.message(to, subject, textBody, htmlBody)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *SmtpMailSender) message(to, subject, textBody, htmlBody string) []byte {
	contentType, body := `text/html; charset="UTF-8"`, htmlBody
	if htmlBody == "" {
		contentType, body = `text/plain; charset="UTF-8"`, textBody
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "From: %s\r\n", s.config.From)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n\r\n", contentType)
	b.WriteString(body)
	return []byte(b.String())
}

// NewSender returns an SMTP sender for provider "smtp" and a console sender otherwise.
func NewSender(provider string, cfg SmtpConfig) MailSender {
	if provider == "smtp" {
		return NewSmtpMailSender(cfg)
	}
	return &ConsoleMailSender{}
}
