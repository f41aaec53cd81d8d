package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/photobox/internal/app"
	photoboxHttp "github.com/MrJamesThe3rd/photobox/internal/http"
	locationHandler "github.com/MrJamesThe3rd/photobox/internal/http/location"
	maintenanceHandler "github.com/MrJamesThe3rd/photobox/internal/http/maintenance"
	photoHandler "github.com/MrJamesThe3rd/photobox/internal/http/photo"
	priceHandler "github.com/MrJamesThe3rd/photobox/internal/http/price"
	txHandler "github.com/MrJamesThe3rd/photobox/internal/http/transaction"
	webhookHandler "github.com/MrJamesThe3rd/photobox/internal/http/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	router := photoboxHttp.New(photoboxHttp.Config{
		CORSOrigins:      cfg.CORS.Origins,
		CallbackToken:    cfg.Xendit.CallbackToken,
		MaintenanceToken: cfg.Maintenance.Token,
		JWTSecret:        cfg.Auth.JWTSecret,
		MaxRoleLevel:     cfg.Auth.MaxRoleLevel,
		Gatherer:         a.Registry,
		Tracer:           a.Tracing.Tracer(),
		Metrics:          a.Metrics,
	}, photoboxHttp.Handlers{
		Transactions: txHandler.NewHandler(a.Transactions),
		Webhooks:     webhookHandler.NewHandler(a.Transactions),
		Photos:       photoHandler.NewHandler(a.Delivery),
		Maintenance:  maintenanceHandler.NewHandler(a.Retention, a.Transactions),
		Prices:       priceHandler.NewHandler(a.Prices),
		Locations:    locationHandler.NewHandler(a.Locations),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "port", server.Addr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		a.RunExpiry(gctx, cfg.Payment.ExpireInterval)
		return nil
	})

	g.Go(func() error {
		a.Retention.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		slog.Info("shutting down server")

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server failed", "error", err)
		a.Close(context.Background())
		os.Exit(1)
	}
}
