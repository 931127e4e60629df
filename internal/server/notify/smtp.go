package notify

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/wneessen/go-mail"
)

// Encryption modes for the SMTP connection.
const (
	EncryptionTLS  = "tls"
	EncryptionSSL  = "ssl"
	EncryptionNone = "none"
)

type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Encryption string
	FromEmail  string
	FromName   string
}

type mailClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

var newMailClient = func(host string, opts ...mail.Option) (mailClient, error) {
	c, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type SMTPSender struct {
	cfg    SMTPConfig
	client mailClient
	logger logging.Logger
}

func clientOptions(cfg SMTPConfig) []mail.Option {
	opts := []mail.Option{mail.WithPort(cfg.Port)}

	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	switch cfg.Encryption {
	case EncryptionSSL:
		opts = append(opts, mail.WithSSL())
	case EncryptionNone:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	return opts
}

func NewSMTPSender(cfg SMTPConfig, l logging.Logger) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is empty")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	c, err := newMailClient(cfg.Host, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPSender{cfg: cfg, client: c, logger: l.With("module", "smtp")}, nil
}

func (s *SMTPSender) build(m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.FromEmail); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.AddToFormat(m.ToName, m.ToEmail); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Text)
	if m.HTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, m.HTML)
	}
	return msg, nil
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	msg, err := s.build(m)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", m.ToEmail, err)
	}

	s.logger.Debug(ctx, "email sent", "to", m.ToEmail, "host", s.cfg.Host)
	return nil
}
