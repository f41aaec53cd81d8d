// Package email sends customer notifications through SMTP or SendGrid.
package email

import (
	"context"
	"fmt"
)

type Provider interface {
	Send(ctx context.Context, to, subject, body string, isHTML bool) error
}

type Config struct {
	// Provider is "smtp" or "sendgrid".
	Provider string

	FromEmail string
	FromName  string

	SendGridAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	// SMTPSSL dials with implicit TLS. SMTPStartTLS upgrades a plain
	// connection instead. With neither the session stays in plain text.
	SMTPSSL      bool
	SMTPStartTLS bool
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp provider requires a server")
		}

		return NewSMTPProvider(cfg), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid provider requires an API key")
		}

		return NewSendGridProvider(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName), nil
	}

	return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
}

func formatFrom(name, addr string) string {
	if name != "" {
		return fmt.Sprintf("%s <%s>", name, addr)
	}

	return addr
}
