package location

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/photobox/internal/location"
)

func newRouter(t *testing.T) (http.Handler, *MockService) {
	t.Helper()

	svc := NewMockService(gomock.NewController(t))

	r := chi.NewRouter()
	r.Route("/locations", NewHandler(svc).Routes)

	return r, svc
}

func TestHandler(t *testing.T) {
	lobby := &location.Location{ID: 1, MachineCode: "PB-001", Name: "Lobby", IsActive: true}

	type testCase struct {
		name       string
		method     string
		target     string
		body       string
		setupMock  func(svc *MockService)
		wantStatus int
	}

	tests := []testCase{
		{
			name:   "ListActive",
			method: http.MethodGet,
			target: "/locations/?is_active=true&search=lob",
			setupMock: func(svc *MockService) {
				svc.EXPECT().List(gomock.Any(), location.ListFilter{IsActive: new(true), Search: "lob"}).
					Return([]*location.Location{lobby}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "ListBadFlag",
			method:     http.MethodGet,
			target:     "/locations/?is_active=sometimes",
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "Get",
			method: http.MethodGet,
			target: "/locations/1",
			setupMock: func(svc *MockService) {
				svc.EXPECT().Get(gomock.Any(), int64(1)).Return(lobby, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "GetMissing",
			method: http.MethodGet,
			target: "/locations/9",
			setupMock: func(svc *MockService) {
				svc.EXPECT().Get(gomock.Any(), int64(9)).Return(nil, location.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "Create",
			method: http.MethodPost,
			target: "/locations/",
			body:   `{"machine_code":"PB-001","name":"Lobby"}`,
			setupMock: func(svc *MockService) {
				svc.EXPECT().Create(gomock.Any(), location.CreateParams{MachineCode: "PB-001", Name: "Lobby"}).Return(lobby, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:   "CreateDuplicate",
			method: http.MethodPost,
			target: "/locations/",
			body:   `{"machine_code":"PB-001","name":"Lobby"}`,
			setupMock: func(svc *MockService) {
				svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, location.ErrDuplicateMachineCode)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:   "Deactivate",
			method: http.MethodPatch,
			target: "/locations/1",
			body:   `{"is_active":false}`,
			setupMock: func(svc *MockService) {
				svc.EXPECT().Update(gomock.Any(), int64(1), location.UpdateParams{IsActive: new(false)}).
					Return(&location.Location{ID: 1, MachineCode: "PB-001", Name: "Lobby"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "UpdateBadID",
			method:     http.MethodPatch,
			target:     "/locations/x",
			body:       `{}`,
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc := newRouter(t)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body)))

			require.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus < 300 && tt.method == http.MethodGet && strings.HasSuffix(tt.target, "/1") {
				var body locationResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, "PB-001", body.MachineCode)
			}
		})
	}
}
