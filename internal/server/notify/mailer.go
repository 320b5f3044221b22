// Package notify delivers account notifications out of band of the request
// that triggered them.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pennyplan/internal/logging"
	"github.com/wneessen/go-mail"
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer sends through an SMTP relay with go-mail.
type SMTPMailer struct {
	from   string
	client *mail.Client
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		return nil, errors.New("mail sender address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = mail.DefaultPortTLS
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = mail.DefaultTimeout
	}

	opts := append(tlsOptions(cfg.Port), mail.WithTimeout(cfg.Timeout))
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPMailer{from: cfg.From, client: client}, nil
}

// tlsOptions selects implicit TLS on the SMTPS port and STARTTLS elsewhere.
func tlsOptions(port int) []mail.Option {
	if port == mail.DefaultPortSSL {
		return []mail.Option{mail.WithSSLPort(false)}
	}
	return []mail.Option{mail.WithPort(port), mail.WithTLSPolicy(mail.TLSOpportunistic)}
}

func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPMailer) build(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	if msg.Text != "" {
		m.AddAlternativeString(mail.TypeTextPlain, msg.Text)
	}
	return m, nil
}

// LogMailer stands in when no SMTP relay is configured. It records the
// message envelope and reports success.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (l *LogMailer) Send(ctx context.Context, msg Message) error {
	l.log.Info(ctx, "smtp not configured, email skipped", "to", msg.To, "subject", msg.Subject)
	return nil
}

var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
)
