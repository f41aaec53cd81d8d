package maintenance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
	"github.com/MrJamesThe3rd/photobox/internal/http/respond"
	"github.com/MrJamesThe3rd/photobox/internal/retention"
	"github.com/MrJamesThe3rd/photobox/internal/transaction"
)

//go:generate mockgen -source=handler.go -destination=handler_mock.go -package=maintenance
type Retention interface {
	RetentionDays() int
	Sweep(ctx context.Context, retentionDays int, asOf time.Time) (*retention.SweepResult, error)
}

type Expirer interface {
	ExpireStale(ctx context.Context, asOf time.Time) (*transaction.ExpiryResult, error)
}

type Handler struct {
	sweeper Retention
	expirer Expirer
	now     func() time.Time
}

func NewHandler(sweeper Retention, expirer Expirer) *Handler {
	return &Handler{sweeper: sweeper, expirer: expirer, now: time.Now}
}

// Routes expects the maintenance token to be checked by middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Delete("/cleanup-old-folders", h.cleanup)
	r.Post("/expire-pending", h.expirePending)
}

type cleanupResponse struct {
	DeletedCount  int      `json:"deleted_count"`
	Folders       []string `json:"folders"`
	FailedCount   int      `json:"failed_count"`
	FailedFolders []string `json:"failed_folders"`
	Message       string   `json:"message"`
}

func (h *Handler) cleanup(w http.ResponseWriter, r *http.Request) {
	days := h.sweeper.RetentionDays()

	if s := r.URL.Query().Get("days"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			respond.Error(w, r, apperror.BadRequest("days must be a positive number", map[string]any{"days": s}))
			return
		}

		days = v
	}

	res, err := h.sweeper.Sweep(r.Context(), days, h.now())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, cleanupResponse{
		DeletedCount:  res.Deleted,
		Folders:       res.Folders,
		FailedCount:   res.Failed,
		FailedFolders: res.FailedFolders,
		Message:       fmt.Sprintf("deleted %d folder(s) older than %d days, %d failed", res.Deleted, days, res.Failed),
	})
}

type expireResponse struct {
	ExpiredCount int    `json:"expired_count"`
	SettledCount int    `json:"settled_count"`
	SkippedCount int    `json:"skipped_count"`
	Message      string `json:"message"`
}

func (h *Handler) expirePending(w http.ResponseWriter, r *http.Request) {
	res, err := h.expirer.ExpireStale(r.Context(), h.now())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, expireResponse{
		ExpiredCount: res.Expired,
		SettledCount: res.Settled,
		SkippedCount: res.Skipped,
		Message:      fmt.Sprintf("expired %d pending transaction(s)", res.Expired),
	})
}
