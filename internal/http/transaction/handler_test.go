package transaction

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
	"github.com/MrJamesThe3rd/photobox/internal/transaction"
)

var (
	priceID   = uuid.MustParse("6f1c1f3e-7a6b-4c55-9f0e-2f7f3c1d9a10")
	createdAt = time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)
)

func newRouter(t *testing.T) (http.Handler, *MockService) {
	t.Helper()

	svc := NewMockService(gomock.NewController(t))
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Route("/transactions", func(r chi.Router) {
		h.PublicRoutes(r)
		h.AdminRoutes(r)
	})

	return r, svc
}

func detail() *transaction.Detail {
	return &transaction.Detail{
		Transaction: transaction.Transaction{
			ID:         7,
			ExternalID: "TRX-1-20250310083000-ABCD1234",
			LocationID: 1,
			PriceID:    priceID,
			Amount:     decimal.NewFromInt(35000),
			QRString:   "00020101021226",
			Status:     transaction.StatusPending,
			CreatedAt:  createdAt,
		},
		Location: transaction.LocationSummary{ID: 1, MachineCode: "PB-001", Name: "Lobby", IsActive: true},
		Price:    transaction.PriceSummary{ID: priceID, Amount: decimal.NewFromInt(35000), IsActive: true},
	}
}

func TestHandler_Create(t *testing.T) {
	type testCase struct {
		name       string
		body       string
		setupMock  func(svc *MockService)
		wantStatus int
	}

	tests := []testCase{
		{
			name: "Created",
			body: `{"location_id": 1, "price_id": "` + priceID.String() + `"}`,
			setupMock: func(svc *MockService) {
				svc.EXPECT().Create(gomock.Any(), transaction.CreateParams{LocationID: 1, PriceID: priceID}).Return(detail(), nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "MalformedBody",
			body:       `{"location_id": `,
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MissingPrice",
			body:       `{"location_id": 1}`,
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "QuotaExceeded",
			body: `{"location_id": 1, "price_id": "` + priceID.String() + `"}`,
			setupMock: func(svc *MockService) {
				svc.EXPECT().Create(gomock.Any(), gomock.Any()).
					Return(nil, apperror.Unprocessable("price quota exceeded", map[string]any{"quota": 3, "used": 3}))
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "GatewayDown",
			body: `{"location_id": 1, "price_id": "` + priceID.String() + `"}`,
			setupMock: func(svc *MockService) {
				svc.EXPECT().Create(gomock.Any(), gomock.Any()).
					Return(nil, apperror.Upstream("failed to create QR payment", nil))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc := newRouter(t)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transactions/", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusCreated {
				var body detailResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, "TRX-1-20250310083000-ABCD1234", body.ExternalID)
				assert.Equal(t, "00020101021226", body.QRString)
				assert.Equal(t, "PB-001", body.Location.MachineCode)
				assert.Equal(t, priceID, body.Price.ID)
			}
		})
	}
}

func TestHandler_Poll(t *testing.T) {
	r, svc := newRouter(t)

	svc.EXPECT().Poll(gomock.Any(), "TRX-1-20250310083000-ABCD1234").Return(detail(), nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/external/TRX-1-20250310083000-ABCD1234", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	assert.Equal(t, "PENDING", body["status"])
	assert.Equal(t, map[string]any{"id": float64(1), "machine_code": "PB-001"}, body["location"])
	assert.NotContains(t, body, "id")
	assert.NotContains(t, body, "price")
}

func TestHandler_PollNotFound(t *testing.T) {
	r, svc := newRouter(t)

	svc.EXPECT().Poll(gomock.Any(), "TRX-404").Return(nil, transaction.ErrNotFound)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/external/TRX-404", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Get(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		r, svc := newRouter(t)

		d := detail()
		d.Price.RemainingQuota = new(2)
		svc.EXPECT().Get(gomock.Any(), int64(7)).Return(d, nil)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/7", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body detailResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, 2, *body.Price.RemainingQuota)
	})

	t.Run("InvalidID", func(t *testing.T) {
		r, _ := newRouter(t)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/abc", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_List(t *testing.T) {
	type testCase struct {
		name       string
		query      string
		setupMock  func(svc *MockService)
		wantStatus int
	}

	tests := []testCase{
		{
			name:  "AllFilters",
			query: "date_from=2025-03-01&date_to=2025-03-10&location_id=1,2&status=completed&status=EXPIRED&search=lobby&sort_by=amount&sort_order=asc&page=2&limit=10",
			setupMock: func(svc *MockService) {
				svc.EXPECT().List(gomock.Any(), transaction.ListFilter{
					DateFrom:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
					DateTo:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
					LocationIDs: []int64{1, 2},
					Statuses:    []transaction.Status{transaction.StatusCompleted, transaction.StatusExpired},
					Search:      "lobby",
					SortBy:      "amount",
					SortOrder:   "asc",
					Page:        2,
					Limit:       10,
				}).Return(&transaction.Page{
					Items: []*transaction.Detail{detail()},
					Meta:  transaction.PageMeta{Page: 2, Limit: 10, TotalItems: 11, TotalPages: 2},
				}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "MissingDates",
			query:      "page=1",
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "BadDate",
			query:      "date_from=03/01/2025&date_to=2025-03-10",
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "BadStatus",
			query:      "date_from=2025-03-01&date_to=2025-03-10&status=REFUNDED",
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "BadLocation",
			query:      "date_from=2025-03-01&date_to=2025-03-10&location_id=x",
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "ServiceValidation",
			query: "date_from=2025-03-10&date_to=2025-03-01",
			setupMock: func(svc *MockService) {
				svc.EXPECT().List(gomock.Any(), gomock.Any()).
					Return(nil, apperror.BadRequest("date_to must not be before date_from", nil))
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc := newRouter(t)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/?"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusOK {
				var body pageResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Len(t, body.Data, 1)
				assert.Equal(t, 11, body.Meta.TotalItems)
			}
		})
	}
}
