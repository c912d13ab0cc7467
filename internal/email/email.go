package email

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/innatolkaneva/weather/internal/config"
)

// Message represents a single plain-text email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(msg Message) error
}

// SMTPSender is a Sender that opens one SMTP session per message.
type SMTPSender struct {
	host      string
	port      int
	from      string
	auth      smtp.Auth
	tlsConfig *tls.Config
	logger    *zap.Logger
}

// NewSMTPSender builds an SMTPSender from the SMTP_* settings.
func NewSMTPSender(cfg *config.Config, logger *zap.Logger) (*SMTPSender, error) {
	if cfg.SMTPHost == "" || cfg.SMTPPort == 0 {
		return nil, fmt.Errorf("SMTP_HOST and SMTP_PORT are required")
	}
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}
	return &SMTPSender{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		from:      cfg.SMTPFrom,
		auth:      auth,
		tlsConfig: &tls.Config{ServerName: cfg.SMTPHost},
		logger:    logger,
	}, nil
}

// dial handles both implicit TLS (port 465) and STARTTLS (other ports).
func (s *SMTPSender) dial() (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var conn net.Conn
	var err error
	if s.port == 465 {
		conn, err = tls.Dial("tcp", addr, s.tlsConfig)
	} else {
		conn, err = net.Dial("tcp", addr)
	}
	if err != nil {
		s.logger.Error("failed to dial SMTP", zap.String("addr", addr), zap.Error(err))
		return nil, fmt.Errorf("failed to dial SMTP on %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		if cerr := conn.Close(); cerr != nil {
			s.logger.Warn("failed to close raw connection", zap.Error(cerr))
		}
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if s.port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(s.tlsConfig); err != nil {
				client.Close()
				return nil, fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}
	return client, nil
}

// Send delivers msg in its own SMTP session.
func (s *SMTPSender) Send(msg Message) (err error) {
	client, err := s.dial()
	if err != nil {
		return err
	}
	// ensure QUIT is sent and connection closed
	defer func() {
		if quitErr := client.Quit(); quitErr != nil && err == nil {
			err = fmt.Errorf("failed to close SMTP connection: %w", quitErr)
		}
	}()

	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}
	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("failed to set MAIL FROM: %w", err)
	}
	for _, addr := range msg.To {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("failed to add RCPT TO %q: %w", addr, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start DATA command: %w", err)
	}
	if _, err := wc.Write([]byte(compose(s.from, msg, time.Now()))); err != nil {
		wc.Close()
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close DATA writer: %w", err)
	}

	s.logger.Debug("email sent", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func compose(from string, m Message, now time.Time) string {
	headers := []string{
		fmt.Sprintf("Date: %s", now.Format(time.RFC1123Z)),
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", strings.Join(m.To, ",")),
		fmt.Sprintf("Subject: %s", m.Subject),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + strings.ReplaceAll(m.Body, "\n", "\r\n")
}
