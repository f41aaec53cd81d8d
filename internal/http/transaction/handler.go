package transaction

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
	"github.com/MrJamesThe3rd/photobox/internal/http/respond"
	"github.com/MrJamesThe3rd/photobox/internal/transaction"
)

//go:generate mockgen -source=handler.go -destination=handler_mock.go -package=transaction
type Service interface {
	Create(ctx context.Context, params transaction.CreateParams) (*transaction.Detail, error)
	Poll(ctx context.Context, externalID string) (*transaction.Detail, error)
	Get(ctx context.Context, id int64) (*transaction.Detail, error)
	List(ctx context.Context, filter transaction.ListFilter) (*transaction.Page, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// PublicRoutes are called by the kiosks.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/external/{external_id}", h.poll)
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

type createTransactionRequest struct {
	LocationID int64     `json:"location_id"`
	PriceID    uuid.UUID `json:"price_id"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, apperror.BadRequest("invalid request body", nil))
		return
	}

	if req.LocationID <= 0 || req.PriceID == uuid.Nil {
		respond.Error(w, r, apperror.BadRequest("location_id and price_id are required", nil))
		return
	}

	d, err := h.svc.Create(r.Context(), transaction.CreateParams{
		LocationID: req.LocationID,
		PriceID:    req.PriceID,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toDetailResponse(d))
}

func (h *Handler) poll(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Poll(r.Context(), chi.URLParam(r, "external_id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toPollResponse(d))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, r, apperror.BadRequest("invalid id", nil))
		return
	}

	d, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toDetailResponse(d))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	page, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toPageResponse(page))
}

func parseListFilter(r *http.Request) (transaction.ListFilter, error) {
	q := r.URL.Query()

	filter := transaction.ListFilter{
		Search:    q.Get("search"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Page:      1,
		Limit:     20,
	}

	var err error

	if filter.DateFrom, err = parseDate(q.Get("date_from"), "date_from"); err != nil {
		return filter, err
	}

	if filter.DateTo, err = parseDate(q.Get("date_to"), "date_to"); err != nil {
		return filter, err
	}

	if s := q.Get("page"); s != "" {
		if filter.Page, err = strconv.Atoi(s); err != nil {
			return filter, apperror.BadRequest("page must be a number", map[string]any{"page": s})
		}
	}

	if s := q.Get("limit"); s != "" {
		if filter.Limit, err = strconv.Atoi(s); err != nil {
			return filter, apperror.BadRequest("limit must be a number", map[string]any{"limit": s})
		}
	}

	for _, s := range splitValues(q["location_id"]) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return filter, apperror.BadRequest("location_id must be a number", map[string]any{"location_id": s})
		}

		filter.LocationIDs = append(filter.LocationIDs, id)
	}

	for _, s := range splitValues(q["status"]) {
		st, err := transaction.ParseStatus(s)
		if err != nil {
			return filter, err
		}

		filter.Statuses = append(filter.Statuses, st)
	}

	return filter, nil
}

func parseDate(s, field string) (time.Time, error) {
	if s == "" {
		return time.Time{}, apperror.BadRequest(field+" is required", nil)
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperror.BadRequest(field+" must be YYYY-MM-DD", map[string]any{field: s})
	}

	return t, nil
}

// splitValues accepts both repeated parameters and comma separated lists.
func splitValues(values []string) []string {
	var out []string

	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
