package service

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"app/internal/config"

	"github.com/rs/zerolog"
)

// EmailSender delivers transactional mail. Fails or succeeds; no retry state.
type EmailSender interface {
	Send(to, subject, htmlBody string) error
}

// smtpSender sends mail over SMTP with STARTTLS.
type smtpSender struct {
	host     string
	port     string
	user     string
	password string
	from     string
	logger   zerolog.Logger
}

// NewEmailSender creates an SMTP-backed EmailSender from configuration.
func NewEmailSender(cfg *config.Config, logger zerolog.Logger) EmailSender {
	return &smtpSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
		logger:   logger.With().Str("service", "EmailSender").Logger(),
	}
}

func (s *smtpSender) Send(to, subject, htmlBody string) error {
	addr := net.JoinHostPort(s.host, s.port)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial SMTP server: %w", err)
	}
	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("create SMTP client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); !ok {
		return fmt.Errorf("smtp server does not support STARTTLS")
	}
	tlsConfig := &tls.Config{
		ServerName: s.host,
		MinVersion: tls.VersionTLS12,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.host)
	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err = client.Mail(s.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data writer: %w", err)
	}

	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		htmlBody,
	}, "\r\n")
	if _, err = w.Write([]byte(msg)); err != nil {
		w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("close data writer: %w", err)
	}

	if err = client.Quit(); err != nil {
		s.logger.Warn().Err(err).Msg("SMTP quit failed after successful send")
	}
	return nil
}
