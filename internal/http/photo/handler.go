package photo

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
	"github.com/MrJamesThe3rd/photobox/internal/delivery"
	"github.com/MrJamesThe3rd/photobox/internal/http/respond"
	"github.com/MrJamesThe3rd/photobox/internal/storage"
)

// maxUploadBytes bounds a whole multipart request.
const maxUploadBytes = delivery.MaxFiles*delivery.MaxFileSize + 1<<20

//go:generate mockgen -source=handler.go -destination=handler_mock.go -package=photo
type Service interface {
	Deliver(ctx context.Context, params delivery.DeliverParams) (*delivery.Result, error)
	ListPhotos(ctx context.Context, externalID string) (*delivery.Gallery, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/{external_id}/photos", h.upload)
	r.Get("/{external_id}/photos", h.list)
}

type photoResponse struct {
	PublicID     string `json:"public_id,omitempty"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type uploadResponse struct {
	ExternalID     string          `json:"external_id"`
	UploadedCount  int             `json:"uploaded_count"`
	GalleryURL     string          `json:"gallery_url"`
	EmailSent      bool            `json:"email_sent"`
	DeliverySentAt time.Time       `json:"email_sent_at"`
	ExpiresAt      time.Time       `json:"expiry_date"`
	Photos         []photoResponse `json:"photos"`
}

type galleryResponse struct {
	ExternalID     string          `json:"external_id"`
	PhotoCount     int             `json:"photo_count"`
	DeliverySentAt time.Time       `json:"email_sent_at"`
	ExpiresAt      time.Time       `json:"expiry_date"`
	Photos         []photoResponse `json:"photos"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, r, apperror.BadRequest("upload too large", map[string]any{"max_bytes": tooLarge.Limit}))
			return
		}

		respond.Error(w, r, apperror.BadRequest("invalid multipart form", nil))

		return
	}
	defer r.MultipartForm.RemoveAll()

	sendInvoice := false
	if s := r.FormValue("send_invoice"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			respond.Error(w, r, apperror.BadRequest("send_invoice must be a boolean", nil))
			return
		}

		sendInvoice = v
	}

	headers := r.MultipartForm.File["files"]

	files, closeAll, err := openFiles(headers)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	defer closeAll()

	res, err := h.svc.Deliver(r.Context(), delivery.DeliverParams{
		ExternalID:  chi.URLParam(r, "external_id"),
		Email:       r.FormValue("email"),
		SendInvoice: sendInvoice,
		Photos:      files,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, uploadResponse{
		ExternalID:     res.ExternalID,
		UploadedCount:  len(res.Photos),
		GalleryURL:     res.GalleryURL,
		EmailSent:      true,
		DeliverySentAt: res.DeliverySentAt,
		ExpiresAt:      res.ExpiresAt,
		Photos:         toPhotoResponses(res.Photos),
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.ListPhotos(r.Context(), chi.URLParam(r, "external_id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, galleryResponse{
		ExternalID:     g.ExternalID,
		PhotoCount:     len(g.Photos),
		DeliverySentAt: g.DeliverySentAt,
		ExpiresAt:      g.ExpiresAt,
		Photos:         toPhotoResponses(g.Photos),
	})
}

func openFiles(headers []*multipart.FileHeader) ([]storage.File, func(), error) {
	var opened []multipart.File

	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	files := make([]storage.File, 0, len(headers))

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, apperror.BadRequest("failed to read uploaded file", map[string]any{"filename": fh.Filename})
		}

		opened = append(opened, f)
		files = append(files, storage.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     f,
		})
	}

	return files, closeAll, nil
}

func toPhotoResponses(assets []storage.Asset) []photoResponse {
	out := make([]photoResponse, len(assets))
	for i, a := range assets {
		thumb := a.ThumbnailURL
		if thumb == "" {
			thumb = storage.Thumbnail(a.URL)
		}

		out[i] = photoResponse{PublicID: a.PublicID, URL: a.URL, ThumbnailURL: thumb}
	}

	return out
}
