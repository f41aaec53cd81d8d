package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
)

func TestError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantDetails map[string]any
	}{
		{
			name:        "NotFoundSentinel",
			err:         fmt.Errorf("transaction %w", apperror.ErrNotFound),
			wantStatus:  http.StatusNotFound,
			wantMessage: "Not Found",
		},
		{
			name:        "BadRequestWithDetails",
			err:         apperror.BadRequest("limit must be between 1 and 100", map[string]any{"limit": float64(500)}),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "limit must be between 1 and 100",
			wantDetails: map[string]any{"limit": float64(500)},
		},
		{
			name:        "Unprocessable",
			err:         fmt.Errorf("creating: %w", apperror.Unprocessable("price quota exceeded", nil)),
			wantStatus:  http.StatusUnprocessableEntity,
			wantMessage: "price quota exceeded",
		},
		{
			name:        "Conflict",
			err:         apperror.Conflict("machine code already registered", nil),
			wantStatus:  http.StatusConflict,
			wantMessage: "machine code already registered",
		},
		{
			name:        "UpstreamHidden",
			err:         apperror.Upstream("failed to create QR payment", errors.New("xendit: 503")),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "internal server error",
		},
		{
			name:        "Unknown",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantMessage, body.Error)
			assert.Equal(t, tt.wantDetails, body.Details)
		})
	}
}
