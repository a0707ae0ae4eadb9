package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/mekrok/quote-api/internal/config"
	"go.uber.org/zap"
)

// SMTPMailer sends mail through a plain SMTP relay. Port 465 uses implicit
// TLS; any other port connects in the clear and upgrades with STARTTLS.
type SMTPMailer struct {
	cfg    *config.EmailConfig
	logger *zap.Logger
}

// NewSMTPMailer creates an SMTP transport from configuration
func NewSMTPMailer(cfg *config.EmailConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := validRecipient(to); err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	msg := buildMessage(m.cfg.From, to, subject, htmlBody)

	var err error
	if m.cfg.Port == 465 {
		err = m.sendImplicitTLS(ctx, addr, to, msg)
	} else {
		auth := m.auth()
		err = smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg)
	}
	if err != nil {
		m.logger.Error("failed to send email",
			zap.String("to", to),
			zap.String("host", m.cfg.Host),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (m *SMTPMailer) auth() smtp.Auth {
	if m.cfg.Username == "" {
		return nil
	}
	return smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
}

func (m *SMTPMailer) sendImplicitTLS(ctx context.Context, addr, to string, msg []byte) error {
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	tlsConn := tls.Client(conn, &tls.Config{ServerName: m.cfg.Host})
	client, err := smtp.NewClient(tlsConn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if auth := m.auth(); auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
