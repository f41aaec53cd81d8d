package location

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
	"github.com/MrJamesThe3rd/photobox/internal/http/respond"
	"github.com/MrJamesThe3rd/photobox/internal/location"
)

//go:generate mockgen -source=handler.go -destination=handler_mock.go -package=location
type Service interface {
	Get(ctx context.Context, id int64) (*location.Location, error)
	List(ctx context.Context, filter location.ListFilter) ([]*location.Location, error)
	Create(ctx context.Context, params location.CreateParams) (*location.Location, error)
	Update(ctx context.Context, id int64, params location.UpdateParams) (*location.Location, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
}

type locationResponse struct {
	ID          int64     `json:"id"`
	MachineCode string    `json:"machine_code"`
	Name        string    `json:"name"`
	Address     *string   `json:"address"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResponse(l *location.Location) locationResponse {
	return locationResponse{
		ID:          l.ID,
		MachineCode: l.MachineCode,
		Name:        l.Name,
		Address:     l.Address,
		IsActive:    l.IsActive,
		CreatedAt:   l.CreatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := location.ListFilter{Search: r.URL.Query().Get("search")}

	if s := r.URL.Query().Get("is_active"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			respond.Error(w, r, apperror.BadRequest("is_active must be a boolean", nil))
			return
		}

		filter.IsActive = &v
	}

	locs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]locationResponse, len(locs))
	for i, l := range locs {
		resp[i] = toResponse(l)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	l, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(l))
}

type createLocationRequest struct {
	MachineCode string  `json:"machine_code"`
	Name        string  `json:"name"`
	Address     *string `json:"address"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, apperror.BadRequest("invalid request body", nil))
		return
	}

	l, err := h.svc.Create(r.Context(), location.CreateParams{
		MachineCode: req.MachineCode,
		Name:        req.Name,
		Address:     req.Address,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(l))
}

type updateLocationRequest struct {
	Name     *string `json:"name,omitempty"`
	Address  *string `json:"address,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, apperror.BadRequest("invalid request body", nil))
		return
	}

	l, err := h.svc.Update(r.Context(), id, location.UpdateParams{
		Name:     req.Name,
		Address:  req.Address,
		IsActive: req.IsActive,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(l))
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.Error(w, r, apperror.BadRequest("invalid id", nil))
		return 0, false
	}

	return id, true
}
