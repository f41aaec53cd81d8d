// Package app wires the photobox services from configuration. Every binary
// builds the same graph through it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/photobox/internal/cache"
	"github.com/MrJamesThe3rd/photobox/internal/config"
	"github.com/MrJamesThe3rd/photobox/internal/database"
	"github.com/MrJamesThe3rd/photobox/internal/delivery"
	"github.com/MrJamesThe3rd/photobox/internal/email"
	"github.com/MrJamesThe3rd/photobox/internal/events"
	"github.com/MrJamesThe3rd/photobox/internal/location"
	locationStore "github.com/MrJamesThe3rd/photobox/internal/location/store"
	"github.com/MrJamesThe3rd/photobox/internal/metrics"
	"github.com/MrJamesThe3rd/photobox/internal/payment/xendit"
	"github.com/MrJamesThe3rd/photobox/internal/price"
	priceStore "github.com/MrJamesThe3rd/photobox/internal/price/store"
	"github.com/MrJamesThe3rd/photobox/internal/retention"
	"github.com/MrJamesThe3rd/photobox/internal/secrets"
	"github.com/MrJamesThe3rd/photobox/internal/storage/cloudinary"
	"github.com/MrJamesThe3rd/photobox/internal/telemetry"
	"github.com/MrJamesThe3rd/photobox/internal/transaction"
	txStore "github.com/MrJamesThe3rd/photobox/internal/transaction/store"
)

const serviceName = "photobox"

var Version = "dev"

// LoadConfig reads .env when present, then the environment, then Vault.
func LoadConfig(ctx context.Context) (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := secrets.Load(ctx, cfg); err != nil {
		return nil, fmt.Errorf("loading vault secrets: %w", err)
	}

	// Vault may have replaced either token.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type App struct {
	Config   *config.Config
	Location *time.Location
	Logger   *zap.Logger
	DB       *sql.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Tracing  *telemetry.Tracing
	Cache    cache.Cache
	Events   events.Publisher

	Locations    *location.Service
	Prices       *price.Ledger
	Transactions *transaction.Service
	Storage      *cloudinary.Storage
	Delivery     *delivery.Gate
	Retention    *retention.Scheduler
}

// New builds the whole service graph. Close releases everything it opened,
// also when New fails halfway.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{Config: cfg}

	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	if a.Logger, err = telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}

	telemetry.SetDefault(a.Logger)

	if a.Location, err = cfg.Location(); err != nil {
		return nil, err
	}

	a.Tracing, err = telemetry.NewTracing(ctx, telemetry.TracingConfig{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: serviceName,
		Version:     Version,
	})
	if err != nil {
		return nil, err
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	if a.DB, err = database.New(cfg.ConnectionString()); err != nil {
		return nil, err
	}

	if cfg.DB.ApplySchema {
		if err = database.ApplySchema(ctx, a.DB); err != nil {
			return nil, err
		}
	}

	if a.Cache, err = newCache(ctx, cfg); err != nil {
		return nil, err
	}

	a.Events, err = events.New(events.Config{
		Driver:       cfg.Events.Driver,
		KafkaBrokers: cfg.Events.KafkaBrokers,
		Topic:        cfg.Events.Topic,
		NatsURL:      cfg.Events.NatsURL,
		RabbitURL:    cfg.Events.RabbitURL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting events broker: %w", err)
	}

	a.Locations = location.NewService(locationStore.New(a.DB))
	a.Prices = price.NewLedger(priceStore.New(a.DB))

	gateway := xendit.New(xendit.Config{
		BaseURL: cfg.Xendit.BaseURL,
		APIKey:  cfg.Xendit.APIKey,
		Timeout: cfg.Xendit.Timeout,
	}, xendit.WithMetrics(a.Metrics))

	a.Transactions = transaction.NewService(txStore.New(a.DB), a.Locations, a.Prices, gateway, transaction.Config{
		CallbackURL: cfg.Xendit.CallbackURL,
		PaymentTTL:  cfg.Payment.TTL,
		ExpiryGrace: cfg.Payment.ExpiryGrace,
		CacheTTL:    cfg.Redis.TTL,
	},
		transaction.WithPublisher(a.Events),
		transaction.WithCache(a.Cache),
		transaction.WithMetrics(a.Metrics),
	)

	a.Storage, err = cloudinary.New(cloudinary.Config{
		CloudName: cfg.Cloudinary.CloudName,
		APIKey:    cfg.Cloudinary.APIKey,
		APISecret: cfg.Cloudinary.APISecret,
		Folder:    cfg.Cloudinary.Folder,
	})
	if err != nil {
		return nil, err
	}

	a.Retention = retention.NewScheduler(a.Transactions, a.Storage, retention.Config{
		RetentionDays: cfg.Maintenance.RetentionDays,
		Location:      a.Location,
		Interval:      cfg.Maintenance.SweepInterval,
	}, retention.WithMetrics(a.Metrics))

	notifier, err := newNotifier(cfg, a.Location)
	if err != nil {
		return nil, err
	}

	a.Delivery = delivery.NewGate(a.Transactions, a.Storage, notifier, delivery.Config{
		GalleryBaseURL: cfg.App.BaseURL,
		RetentionDays:  cfg.Maintenance.RetentionDays,
		Location:       a.Location,
	}, delivery.WithMetrics(a.Metrics))

	return a, nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.Redis.URL == "" {
		return cache.NewMemory(), nil
	}

	c, err := cache.NewRedis(ctx, cfg.Redis.URL, serviceName+":")
	if err != nil {
		return nil, fmt.Errorf("connecting redis: %w", err)
	}

	return c, nil
}

func newNotifier(cfg *config.Config, loc *time.Location) (*email.Notifier, error) {
	provider, err := email.NewProvider(email.Config{
		Provider:       cfg.Mail.Provider,
		FromEmail:      cfg.Mail.From,
		FromName:       cfg.Mail.FromName,
		SendGridAPIKey: cfg.Mail.SendGridAPIKey,
		SMTPHost:       cfg.Mail.Server,
		SMTPPort:       cfg.Mail.Port,
		SMTPUsername:   cfg.Mail.Username,
		SMTPPassword:   cfg.Mail.Password,
		SMTPSSL:        cfg.Mail.SSLTLS,
		SMTPStartTLS:   cfg.Mail.StartTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring email: %w", err)
	}

	return email.NewNotifier(provider, loc)
}

// RunExpiry expires stale PENDING transactions every interval until ctx is
// done.
func (a *App) RunExpiry(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := a.Transactions.ExpireStale(ctx, now); err != nil {
				slog.Error("expiry sweep failed", "error", err)
			}
		}
	}
}

func (a *App) Close(ctx context.Context) {
	var errs []error

	if a.Events != nil {
		errs = append(errs, a.Events.Close())
	}

	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}

	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}

	if a.Tracing != nil {
		errs = append(errs, a.Tracing.Shutdown(ctx))
	}

	if err := errors.Join(errs...); err != nil {
		slog.Warn("error while closing", "error", err)
	}

	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}
