package webhook

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

	"github.com/MrJamesThe3rd/photobox/internal/http/middleware"
	"github.com/MrJamesThe3rd/photobox/internal/transaction"
)

func TestHandler_Xendit(t *testing.T) {
	type testCase struct {
		name        string
		token       string
		body        string
		setupMock   func(svc *MockService)
		wantStatus  int
		wantApplied bool
	}

	tests := []testCase{
		{
			name:  "Completed",
			token: "cb-token",
			body:  `{"external_id":"TRX-1","status":"COMPLETED","xendit_id":"qr_1","paid_at":"2025-03-10T08:31:12Z"}`,
			setupMock: func(svc *MockService) {
				svc.EXPECT().ApplyWebhook(gomock.Any(), transaction.WebhookParams{
					ExternalID:        "TRX-1",
					Status:            transaction.StatusCompleted,
					ProviderPaymentID: "qr_1",
				}).Return(&transaction.WebhookResult{ExternalID: "TRX-1", Status: transaction.StatusCompleted, Applied: true}, nil)
			},
			wantStatus:  http.StatusOK,
			wantApplied: true,
		},
		{
			name:  "ProviderVocabulary",
			token: "cb-token",
			body:  `{"external_id":"TRX-1","status":"succeeded","xendit_id":"qr_1"}`,
			setupMock: func(svc *MockService) {
				svc.EXPECT().ApplyWebhook(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, p transaction.WebhookParams) (*transaction.WebhookResult, error) {
						assert.Equal(t, transaction.StatusCompleted, p.Status)
						return &transaction.WebhookResult{ExternalID: "TRX-1", Status: transaction.StatusCompleted, Applied: true}, nil
					})
			},
			wantStatus:  http.StatusOK,
			wantApplied: true,
		},
		{
			name:  "SettledIsNoop",
			token: "cb-token",
			body:  `{"external_id":"TRX-1","status":"EXPIRED","xendit_id":"qr_1"}`,
			setupMock: func(svc *MockService) {
				svc.EXPECT().ApplyWebhook(gomock.Any(), gomock.Any()).
					Return(&transaction.WebhookResult{ExternalID: "TRX-1", Status: transaction.StatusCompleted}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "MissingToken",
			body:       `{"external_id":"TRX-1","status":"COMPLETED"}`,
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "WrongTokenRejectedBeforeDecode",
			token:      "guess",
			body:       `not json`,
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "UnknownStatus",
			token:      "cb-token",
			body:       `{"external_id":"TRX-1","status":"REFUNDED"}`,
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MissingExternalID",
			token:      "cb-token",
			body:       `{"status":"COMPLETED"}`,
			setupMock:  func(*MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "UnknownTransaction",
			token: "cb-token",
			body:  `{"external_id":"TRX-404","status":"COMPLETED"}`,
			setupMock: func(svc *MockService) {
				svc.EXPECT().ApplyWebhook(gomock.Any(), gomock.Any()).Return(nil, transaction.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMockService(gomock.NewController(t))
			tt.setupMock(svc)

			r := chi.NewRouter()
			r.Route("/webhooks", func(r chi.Router) {
				r.Use(middleware.RequireToken("x-callback-token", "cb-token"))
				NewHandler(svc).Routes(r)
			})

			req := httptest.NewRequest(http.MethodPost, "/webhooks/xendit", strings.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set("x-callback-token", tt.token)
			}

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusOK {
				var body xenditResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, tt.wantApplied, body.Applied)
				assert.NotEmpty(t, body.Message)
			}
		})
	}
}
