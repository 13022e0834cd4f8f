// internal/pkg/email/smtp.go
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

// sendSMTPEmail sends email using SMTP. Port 465 uses implicit TLS, anything else STARTTLS via net/smtp.
func (s *EmailService) sendSMTPEmail(email *Email) error {
	cfg := s.config.Email
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" {
		return fmt.Errorf("SMTP configuration incomplete: missing host or username")
	}

	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)

	headers := [][2]string{
		{"From", s.from()},
		{"To", strings.Join(email.To, ", ")},
		{"Subject", email.Subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=\"utf-8\""},
	}

	var msg bytes.Buffer
	for _, h := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	msg.WriteString("\r\n")
	msg.WriteString(email.HTMLContent)

	serverAddr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)

	if cfg.SMTPPort == 465 {
		return s.sendSMTPWithTLS(serverAddr, auth, cfg.FromEmail, email.To, msg.Bytes())
	}
	return smtp.SendMail(serverAddr, auth, cfg.FromEmail, email.To, msg.Bytes())
}

// sendSMTPWithTLS sends email using explicit TLS connection
func (s *EmailService) sendSMTPWithTLS(serverAddr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: s.config.Email.SMTPHost,
	}

	conn, err := tls.Dial("tcp", serverAddr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to create TLS connection: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Email.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", addr, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to send DATA command: %w", err)
	}

	if _, err := writer.Write(msg); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write email content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish email content: %w", err)
	}

	return nil
}
