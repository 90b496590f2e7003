package contact

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strings"
)

// Sender delivers an accepted payload somewhere the site owner will read it.
type Sender interface {
	Send(ctx context.Context, p Payload) error
}

// ErrSMTPNotConfigured is returned when credentials are missing.
var ErrSMTPNotConfigured = errors.New("SMTP credentials not configured")

// SMTPConfig holds the outgoing mail settings.
type SMTPConfig struct {
	Host string `koanf:"host"`
	Port string `koanf:"port"`
	User string `koanf:"user"`
	Pass string `koanf:"pass"`
	To   string `koanf:"to"`
}

// Mailer sends contact messages by email.
type Mailer struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg SMTPConfig) *Mailer {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &Mailer{cfg: cfg, sendMail: smtp.SendMail}
}

// Send emails p to the configured inbox. Reply-To is set to the visitor.
func (m *Mailer) Send(ctx context.Context, p Payload) error {
	if m.cfg.User == "" || m.cfg.Pass == "" {
		return ErrSMTPNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	to := m.cfg.To
	if to == "" {
		to = m.cfg.User
	}

	msg := composeMessage(m.cfg.User, to, p)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := m.sendMail(addr, auth, m.cfg.User, []string{to}, msg); err != nil {
		log.Printf("Error sending email: %v", err)
		return fmt.Errorf("send mail: %w", err)
	}
	log.Printf("Contact email sent from %s", p.Name)
	return nil
}

func composeMessage(from, to string, p Payload) []byte {
	// Header values must not carry line breaks from user input.
	clean := strings.NewReplacer("\r", " ", "\n", " ")
	subject := fmt.Sprintf("Portfolio Contact: %s", clean.Replace(p.Name))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, p.Name, p.Email, p.Message)

	return []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"Reply-To: " + clean.Replace(p.Email) + "\r\n" +
		"\r\n" +
		body + "\r\n")
}
