package services

import (
	"fmt"
	"net/smtp"

	"taskhub/config"
)

// Mailer is the narrow delivery contract; the transport behind it is not
// this service's concern.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	from     string
	password string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		from:     cfg.From,
		password: cfg.Password,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	if m.password == "" {
		return fmt.Errorf("smtp password is not configured")
	}

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", m.from, m.password, m.host)

	if err := smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	return nil
}
