// Package secrets overlays credentials stored in Vault onto the loaded
// configuration.
package secrets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/vault/api"

	"github.com/MrJamesThe3rd/photobox/internal/config"
)

type Manager struct {
	client *api.Client
	path   string
}

func NewManager(address, token, path string) (*Manager, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating vault client: %w", err)
	}

	client.SetToken(token)

	return &Manager{client: client, path: path}, nil
}

// Read returns the string values stored at the KV v2 secret path.
func (m *Manager) Read(ctx context.Context) (map[string]string, error) {
	secret, err := m.client.Logical().ReadWithContext(ctx, m.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", m.path, err)
	}

	if secret == nil {
		return nil, fmt.Errorf("no secret at %s", m.path)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not a kv v2 secret", m.path)
	}

	out := make(map[string]string, len(data))

	for k, v := range data {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}

	return out, nil
}

// Apply fills cfg from the secret. Keys missing from the secret keep the
// value loaded from the environment.
func Apply(cfg *config.Config, values map[string]string) {
	targets := map[string]*string{
		"db_password":           &cfg.DB.Password,
		"xendit_api_key":        &cfg.Xendit.APIKey,
		"xendit_callback_token": &cfg.Xendit.CallbackToken,
		"cloudinary_api_key":    &cfg.Cloudinary.APIKey,
		"cloudinary_api_secret": &cfg.Cloudinary.APISecret,
		"mail_password":         &cfg.Mail.Password,
		"sendgrid_api_key":      &cfg.Mail.SendGridAPIKey,
		"maintenance_token":     &cfg.Maintenance.Token,
		"jwt_secret":            &cfg.Auth.JWTSecret,
	}

	applied := 0

	for key, dst := range targets {
		if v, ok := values[key]; ok && v != "" {
			*dst = v
			applied++
		}
	}

	slog.Info("applied vault secrets", "count", applied)
}

// Load overlays Vault secrets onto cfg when a Vault address is configured.
func Load(ctx context.Context, cfg *config.Config) error {
	if cfg.Vault.Addr == "" {
		return nil
	}

	m, err := NewManager(cfg.Vault.Addr, cfg.Vault.Token, cfg.Vault.Path)
	if err != nil {
		return err
	}

	values, err := m.Read(ctx)
	if err != nil {
		return err
	}

	Apply(cfg, values)

	return nil
}
