package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/MrJamesThe3rd/photobox/internal/metrics"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequireToken(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
	}{
		{name: "Valid", configured: "secret", header: "secret", wantStatus: http.StatusOK},
		{name: "Missing", configured: "secret", wantStatus: http.StatusUnauthorized},
		{name: "MissingBeforeConfigCheck", configured: "", wantStatus: http.StatusUnauthorized},
		{name: "Unconfigured", configured: "", header: "anything", wantStatus: http.StatusInternalServerError},
		{name: "Mismatch", configured: "secret", header: "guess", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhooks/xendit", nil)
			if tt.header != "" {
				req.Header.Set("x-callback-token", tt.header)
			}

			rec := httptest.NewRecorder()
			RequireToken("x-callback-token", tt.configured)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()

	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)

	return "Bearer " + s
}

func TestRequireAdmin(t *testing.T) {
	const secret = "signing-key"

	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name       string
		secret     string
		auth       func(t *testing.T) string
		wantStatus int
	}{
		{
			name:   "Admin",
			secret: secret,
			auth: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte(secret), Claims{RoleLevel: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}})
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "BoundaryLevel",
			secret: secret,
			auth: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte(secret), Claims{RoleLevel: 10})
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "InsufficientRole",
			secret: secret,
			auth: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte(secret), Claims{RoleLevel: 20})
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "Expired",
			secret: secret,
			auth: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte(secret), Claims{RoleLevel: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: past}})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "WrongKey",
			secret: secret,
			auth: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte("other"), Claims{RoleLevel: 1})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "WrongAlgorithm",
			secret: secret,
			auth: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS512, []byte(secret), Claims{RoleLevel: 1})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Missing",
			secret:     secret,
			auth:       func(*testing.T) string { return "" },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Unconfigured",
			auth:       func(*testing.T) string { return "Bearer x" },
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/prices", nil)
			if a := tt.auth(t); a != "" {
				req.Header.Set("Authorization", a)
			}

			rec := httptest.NewRecorder()
			RequireAdmin(tt.secret, 10)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(Observe(noop.NewTracerProvider().Tracer("test"), m))
	r.Get("/transactions/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	count, err := testutil.GatherAndCount(reg, "photobox_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "both requests share the route pattern series")
}
