package service

import (
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/almuerzo-cl/almuerzo/backend/config"
	"github.com/almuerzo-cl/almuerzo/backend/internal/logging"
)

type EmailService struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
	log          *zap.Logger
}

func NewEmailService(cfg *config.Config, log *zap.Logger) *EmailService {
	s := &EmailService{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUsername: cfg.SMTPUsername,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    cfg.EmailFrom,
		fromName:     cfg.EmailFromName,
		log:          logging.OrNop(log),
	}
	s.log.Info("Email service initialized",
		zap.String("smtp_host", s.smtpHost),
		zap.Bool("configured", s.configured()))
	return s
}

func (s *EmailService) configured() bool {
	return s.smtpHost != "" && s.smtpPort != ""
}

func (s *EmailService) SendEmail(to, subject, body string) error {
	msg, err := s.message(to, subject, body)
	if err != nil {
		return err
	}

	// If SMTP is not configured, log the email instead
	if !s.configured() {
		s.log.Info("SMTP not configured, logging email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.String("body", body))
		return nil
	}

	auth := smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)
	addr := net.JoinHostPort(s.smtpHost, s.smtpPort)
	if err := smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// message builds the RFC 5322 message. Subjects carry user text such as event
// titles, so line breaks are folded into spaces and the value is Q-encoded.
func (s *EmailService) message(to, subject, body string) ([]byte, error) {
	if strings.ContainsAny(to, "\r\n") {
		return nil, fmt.Errorf("invalid recipient %q", to)
	}
	from := mail.Address{Name: s.fromName, Address: s.fromEmail}
	subject = headerBreaks.Replace(strings.TrimSpace(subject))

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String()), nil
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")
