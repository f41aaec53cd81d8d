// Package delivery hands paid photos to the customer: it uploads the
// session's photos, emails the gallery link and stamps the delivery.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
	"github.com/MrJamesThe3rd/photobox/internal/email"
	"github.com/MrJamesThe3rd/photobox/internal/metrics"
	"github.com/MrJamesThe3rd/photobox/internal/retention"
	"github.com/MrJamesThe3rd/photobox/internal/storage"
	"github.com/MrJamesThe3rd/photobox/internal/transaction"
)

const (
	MaxFileSize = 10 << 20
	MaxFiles    = 50
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

//go:generate mockgen -source=delivery.go -destination=delivery_mock.go -package=delivery
type Transactions interface {
	GetByExternalID(ctx context.Context, externalID string) (*transaction.Detail, error)
	ClaimDelivery(ctx context.Context, externalID string) (time.Time, error)
	ReleaseDelivery(ctx context.Context, externalID string, claim time.Time) error
	MarkDeliverySent(ctx context.Context, externalID string, at time.Time) error
}

type Storage interface {
	Upload(ctx context.Context, externalID string, files []storage.File) ([]storage.Asset, error)
	List(ctx context.Context, externalID string) ([]storage.Asset, error)
}

type Notifier interface {
	PhotosReady(ctx context.Context, msg email.PhotosReady) error
}

type Config struct {
	// GalleryBaseURL is where the kiosk frontend serves galleries; the
	// link sent to customers is GalleryBaseURL/gallery/{external_id}.
	GalleryBaseURL string
	RetentionDays  int
	Location       *time.Location
}

type Option func(*Gate)

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) { g.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

type Gate struct {
	transactions Transactions
	storage      Storage
	notifier     Notifier
	cfg          Config
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewGate(transactions Transactions, storage Storage, notifier Notifier, cfg Config, opts ...Option) *Gate {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	g := &Gate{
		transactions: transactions,
		storage:      storage,
		notifier:     notifier,
		cfg:          cfg,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// AuthorizeUpload returns the transaction when photos may still be
// delivered for it.
func (g *Gate) AuthorizeUpload(ctx context.Context, externalID string) (*transaction.Detail, error) {
	d, err := g.transactions.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if d.Status != transaction.StatusCompleted {
		return nil, apperror.Unprocessable("transaction is not paid", map[string]any{
			"external_id": externalID,
			"status":      d.Status,
		})
	}

	if d.DeliverySentAt != nil {
		return nil, apperror.Unprocessable("photos already delivered", map[string]any{
			"external_id":      externalID,
			"delivery_sent_at": d.DeliverySentAt,
		})
	}

	return d, nil
}

type DeliverParams struct {
	ExternalID  string
	Email       string
	SendInvoice bool
	Photos      []storage.File
}

type Result struct {
	ExternalID     string
	Photos         []storage.Asset
	GalleryURL     string
	DeliverySentAt time.Time
	ExpiresAt      time.Time
}

func (g *Gate) Deliver(ctx context.Context, params DeliverParams) (*Result, error) {
	if err := validate(params); err != nil {
		g.metrics.Delivery("rejected")
		return nil, err
	}

	d, err := g.AuthorizeUpload(ctx, params.ExternalID)
	if err != nil {
		g.metrics.Delivery("rejected")
		return nil, err
	}

	// Only the claim holder may touch storage or mail the customer.
	claim, err := g.transactions.ClaimDelivery(ctx, params.ExternalID)
	if err != nil {
		g.metrics.Delivery("rejected")
		return nil, err
	}

	assets, err := g.storage.Upload(ctx, params.ExternalID, params.Photos)
	if err != nil {
		g.metrics.Delivery("storage_failed")
		slog.Error("failed to upload photos", "external_id", params.ExternalID, "error", err)
		g.release(ctx, params.ExternalID, claim)

		return nil, apperror.Upstream("failed to upload photos", err)
	}

	galleryURL := g.GalleryURL(params.ExternalID)
	// One instant anchors both the promised expiry and the stored stamp.
	sentAt := g.now()
	expiresAt := retention.Cutoff(sentAt, g.cfg.RetentionDays, g.cfg.Location)

	err = g.notifier.PhotosReady(ctx, email.PhotosReady{
		To:          params.Email,
		ExternalID:  params.ExternalID,
		GalleryURL:  galleryURL,
		Amount:      d.Amount,
		PaidAt:      d.PaidAt,
		ExpiresAt:   expiresAt,
		SendInvoice: params.SendInvoice,
	})
	if err != nil {
		g.metrics.Delivery("email_failed")
		slog.Error("failed to send photos email", "external_id", params.ExternalID, "error", err)
		g.release(ctx, params.ExternalID, claim)

		return nil, apperror.Upstream("failed to send email", err)
	}

	if err := g.transactions.MarkDeliverySent(ctx, params.ExternalID, sentAt); err != nil {
		g.metrics.Delivery("rejected")
		return nil, err
	}

	g.metrics.Delivery("delivered")

	slog.Info("photos delivered",
		"external_id", params.ExternalID,
		"photos", len(assets),
		"send_invoice", params.SendInvoice,
	)

	return &Result{
		ExternalID:     params.ExternalID,
		Photos:         assets,
		GalleryURL:     galleryURL,
		DeliverySentAt: sentAt,
		ExpiresAt:      expiresAt,
	}, nil
}

// release frees the claim so the kiosk can retry. It runs even when the
// request was cancelled.
func (g *Gate) release(ctx context.Context, externalID string, claim time.Time) {
	if err := g.transactions.ReleaseDelivery(context.WithoutCancel(ctx), externalID, claim); err != nil {
		slog.Error("failed to release delivery claim", "external_id", externalID, "error", err)
	}
}

type Gallery struct {
	ExternalID     string
	Photos         []storage.Asset
	DeliverySentAt time.Time
	ExpiresAt      time.Time
}

func (g *Gate) ListPhotos(ctx context.Context, externalID string) (*Gallery, error) {
	d, err := g.transactions.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	noPhotos := apperror.NotFound("no photos found for transaction", map[string]any{"external_id": externalID})

	if d.DeliverySentAt == nil || d.FolderDeletedAt != nil {
		return nil, noPhotos
	}

	assets, err := g.storage.List(ctx, externalID)
	if err != nil {
		return nil, apperror.Upstream("failed to list photos", err)
	}

	if len(assets) == 0 {
		return nil, noPhotos
	}

	return &Gallery{
		ExternalID:     externalID,
		Photos:         assets,
		DeliverySentAt: *d.DeliverySentAt,
		ExpiresAt:      retention.Cutoff(*d.DeliverySentAt, g.cfg.RetentionDays, g.cfg.Location),
	}, nil
}

func (g *Gate) GalleryURL(externalID string) string {
	return strings.TrimRight(g.cfg.GalleryBaseURL, "/") + "/gallery/" + externalID
}

func validate(params DeliverParams) error {
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return apperror.BadRequest("invalid email address", map[string]any{"email": params.Email})
	}

	if len(params.Photos) == 0 {
		return apperror.BadRequest("at least one photo is required", nil)
	}

	if len(params.Photos) > MaxFiles {
		return apperror.BadRequest(fmt.Sprintf("at most %d photos per delivery", MaxFiles), map[string]any{
			"count": len(params.Photos),
			"max":   MaxFiles,
		})
	}

	for _, f := range params.Photos {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if !allowedExtensions[ext] {
			return apperror.BadRequest(
				fmt.Sprintf("file %q has invalid format, allowed: JPG, JPEG, PNG", f.Name),
				map[string]any{"filename": f.Name},
			)
		}

		if f.Size > MaxFileSize {
			return apperror.BadRequest(
				fmt.Sprintf("file %q exceeds maximum size of 10MB", f.Name),
				map[string]any{"filename": f.Name, "size": f.Size, "max_size": MaxFileSize},
			)
		}
	}

	return nil
}
