// Package email delivers finished application documents over SMTP.
// Connections use implicit TLS, the mode SMTP submission servers expose on
// port 465.
package email

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/google/uuid"
)

// Mailer sends messages through a single SMTP account.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Attachment is a file included with a message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Send delivers one message with the given attachments.
func (m *Mailer) Send(subject, body string, attachments []Attachment) error {
	msg := m.buildMessage(subject, body, attachments, uuid.NewString())

	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.Host})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start SMTP session: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := client.Mail(m.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(m.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open message body: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return client.Quit()
}
