package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
	"github.com/MrJamesThe3rd/photobox/internal/http/respond"
	"github.com/MrJamesThe3rd/photobox/internal/payment/xendit"
	"github.com/MrJamesThe3rd/photobox/internal/transaction"
)

//go:generate mockgen -source=handler.go -destination=handler_mock.go -package=webhook
type Service interface {
	ApplyWebhook(ctx context.Context, params transaction.WebhookParams) (*transaction.WebhookResult, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Routes expects the callback token to be checked by middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/xendit", h.xendit)
}

type xenditRequest struct {
	ExternalID string     `json:"external_id"`
	Status     string     `json:"status"`
	XenditID   string     `json:"xendit_id"`
	// PaidAt is logged only. The stored paid_at is the reconciliation time.
	PaidAt *time.Time `json:"paid_at"`
}

type xenditResponse struct {
	Message    string             `json:"message"`
	ExternalID string             `json:"external_id"`
	Status     transaction.Status `json:"status"`
	Applied    bool               `json:"applied"`
}

func (h *Handler) xendit(w http.ResponseWriter, r *http.Request) {
	var req xenditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, apperror.BadRequest("invalid request body", nil))
		return
	}

	if req.ExternalID == "" {
		respond.Error(w, r, apperror.BadRequest("external_id is required", nil))
		return
	}

	status, ok := xendit.MapStatus(req.Status)
	if !ok {
		respond.Error(w, r, apperror.BadRequest("unknown payment status", map[string]any{"status": req.Status}))
		return
	}

	slog.Info("xendit callback received",
		"external_id", req.ExternalID, "status", req.Status, "xendit_id", req.XenditID, "reported_paid_at", req.PaidAt)

	res, err := h.svc.ApplyWebhook(r.Context(), transaction.WebhookParams{
		ExternalID:        req.ExternalID,
		Status:            status,
		ProviderPaymentID: req.XenditID,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	msg := "webhook processed"
	if !res.Applied {
		msg = "webhook acknowledged, no change"
	}

	respond.JSON(w, http.StatusOK, xenditResponse{
		Message:    msg,
		ExternalID: res.ExternalID,
		Status:     res.Status,
		Applied:    res.Applied,
	})
}
