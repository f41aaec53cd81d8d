package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"Photobox"`
		Port     int    `envconfig:"PORT" default:"8080"`
		BaseURL  string `envconfig:"API_BASE_URL" default:"http://localhost:8080"`
		Timezone string `envconfig:"APP_TIMEZONE" default:"Asia/Jakarta"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"json"`
	}

	DB struct {
		Host        string `envconfig:"DB_HOST" default:"localhost"`
		Port        int    `envconfig:"DB_PORT" default:"5432"`
		User        string `envconfig:"DB_USER" default:"postgres"`
		Password    string `envconfig:"DB_PASSWORD" default:""`
		Name        string `envconfig:"DB_NAME" default:"photobox"`
		SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
		ApplySchema bool   `envconfig:"DB_APPLY_SCHEMA" default:"false"`
	}

	Server struct {
		Timeout         time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	}

	Xendit struct {
		BaseURL       string        `envconfig:"XENDIT_BASE_URL" default:"https://api.xendit.co"`
		APIKey        string        `envconfig:"XENDIT_API_KEY"`
		CallbackURL   string        `envconfig:"XENDIT_WEBHOOK_URL"`
		CallbackToken string        `envconfig:"XENDIT_CALLBACK_TOKEN"`
		Timeout       time.Duration `envconfig:"XENDIT_TIMEOUT" default:"30s"`
	}

	Payment struct {
		TTL         time.Duration `envconfig:"PAYMENT_TTL" default:"15m"`
		ExpiryGrace time.Duration `envconfig:"PAYMENT_EXPIRY_GRACE" default:"5m"`
		// Zero disables the in-process expiry loop.
		ExpireInterval time.Duration `envconfig:"PAYMENT_EXPIRE_INTERVAL" default:"1m"`
	}

	Maintenance struct {
		Token         string `envconfig:"MAINTENANCE_TOKEN"`
		RetentionDays int    `envconfig:"RETENTION_DAYS" default:"14"`
		// Zero disables the in-process sweep; an external cron calls the endpoint instead.
		SweepInterval time.Duration `envconfig:"RETENTION_SWEEP_INTERVAL" default:"0"`
	}

	Cloudinary struct {
		CloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
		APIKey    string `envconfig:"CLOUDINARY_API_KEY"`
		APISecret string `envconfig:"CLOUDINARY_API_SECRET"`
		Folder    string `envconfig:"CLOUDINARY_FOLDER" default:"photobox"`
	}

	Mail struct {
		Provider       string `envconfig:"MAIL_PROVIDER" default:"smtp"`
		Server         string `envconfig:"MAIL_SERVER"`
		Port           int    `envconfig:"MAIL_PORT" default:"465"`
		Username       string `envconfig:"MAIL_USERNAME"`
		Password       string `envconfig:"MAIL_PASSWORD"`
		From           string `envconfig:"MAIL_FROM"`
		FromName       string `envconfig:"MAIL_FROM_NAME" default:"Photobox Service"`
		SSLTLS         bool   `envconfig:"MAIL_SSL_TLS" default:"true"`
		StartTLS       bool   `envconfig:"MAIL_STARTTLS" default:"false"`
		SendGridAPIKey string `envconfig:"SENDGRID_API_KEY"`
	}

	Redis struct {
		URL string        `envconfig:"REDIS_URL"`
		TTL time.Duration `envconfig:"REDIS_TTL" default:"10m"`
	}

	Events struct {
		Driver       string   `envconfig:"EVENTS_DRIVER" default:"none"`
		KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
		Topic        string   `envconfig:"EVENTS_TOPIC" default:"photobox.transaction"`
		NatsURL      string   `envconfig:"NATS_URL"`
		RabbitURL    string   `envconfig:"RABBITMQ_URL"`
	}

	Telemetry struct {
		Enabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
		Endpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4318"`
	}

	Vault struct {
		Addr  string `envconfig:"VAULT_ADDR"`
		Token string `envconfig:"VAULT_TOKEN"`
		Path  string `envconfig:"VAULT_SECRET_PATH" default:"secret/data/photobox"`
	}

	Auth struct {
		JWTSecret    string `envconfig:"JWT_SECRET"`
		MaxRoleLevel int    `envconfig:"AUTH_MAX_ROLE_LEVEL" default:"10"`
	}

	CORS struct {
		Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

// Location resolves the kiosk timezone used for retention cutoffs and email dates.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.App.Timezone, err)
	}

	return loc, nil
}

// Validate rejects settings that would let one credential open another
// surface: the webhook token must never unlock maintenance endpoints.
func (c *Config) Validate() error {
	if c.Xendit.CallbackToken != "" && c.Xendit.CallbackToken == c.Maintenance.Token {
		return errors.New("XENDIT_CALLBACK_TOKEN and MAINTENANCE_TOKEN must differ")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
