// Package email delivers reservation confirmations over SMTP.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/ashroots/table-reservation/internal/model"
)

// Config describes the SMTP relay.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// dialer is the part of *mail.Client the sender uses.
type dialer interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
}

// Sender renders confirmations and hands them to the relay.
type Sender struct {
	from   string
	client dialer
}

// NewSender builds an SMTP client for cfg. Authentication is only
// negotiated when a username is configured; TLS is used when the relay
// offers it.
func NewSender(cfg Config) (*Sender, error) {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(cfg.Timeout),
	}
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
	return &Sender{from: cfg.From, client: client}, nil
}

// SendConfirmation emails c to the guest.
func (s *Sender) SendConfirmation(ctx context.Context, c model.Confirmation) error {
	msg, err := s.message(c)
	if err != nil {
		return err
	}
	return s.client.DialAndSendWithContext(ctx, msg)
}

func (s *Sender) message(c model.Confirmation) (*mail.Msg, error) {
	subject, html, text, err := RenderConfirmation(c)
	if err != nil {
		return nil, err
	}
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(c.Email); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)
	return msg, nil
}
