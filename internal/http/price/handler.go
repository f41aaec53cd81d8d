package price

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
	"github.com/MrJamesThe3rd/photobox/internal/http/respond"
	"github.com/MrJamesThe3rd/photobox/internal/price"
)

//go:generate mockgen -source=handler.go -destination=handler_mock.go -package=price
type Ledger interface {
	Get(ctx context.Context, id uuid.UUID) (*price.Usage, error)
	List(ctx context.Context) ([]*price.Usage, error)
	Create(ctx context.Context, params price.CreateParams) (*price.Price, error)
	Activate(ctx context.Context, id uuid.UUID) (*price.Price, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*price.Price, error)
}

type Handler struct {
	ledger Ledger
}

func NewHandler(ledger Ledger) *Handler {
	return &Handler{ledger: ledger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}/activate", h.activate)
	r.Patch("/{id}/deactivate", h.deactivate)
}

type priceResponse struct {
	ID             uuid.UUID       `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	Description    *string         `json:"description"`
	Quota          *int            `json:"quota"`
	Used           *int            `json:"used,omitempty"`
	RemainingQuota *int            `json:"remaining_quota,omitempty"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

func toResponse(p *price.Price) priceResponse {
	return priceResponse{
		ID:          p.ID,
		Amount:      p.Amount,
		Description: p.Description,
		Quota:       p.Quota,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toUsageResponse(u *price.Usage) priceResponse {
	resp := toResponse(u.Price)
	resp.Used = new(u.Used)
	resp.RemainingQuota = u.RemainingQuota

	return resp
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	usages, err := h.ledger.List(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]priceResponse, len(usages))
	for i, u := range usages {
		resp[i] = toUsageResponse(u)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	u, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toUsageResponse(u))
}

type createPriceRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description"`
	Quota       *int            `json:"quota"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, apperror.BadRequest("invalid request body", nil))
		return
	}

	p, err := h.ledger.Create(r.Context(), price.CreateParams{
		Amount:      req.Amount,
		Description: req.Description,
		Quota:       req.Quota,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.ledger.Activate)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.ledger.Deactivate)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (*price.Price, error)) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := fn(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(p))
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, apperror.BadRequest("invalid id", nil))
		return uuid.Nil, false
	}

	return id, true
}
