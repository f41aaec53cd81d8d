// Package middleware holds the HTTP middleware shared by the API routes.
package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrJamesThe3rd/photobox/internal/http/respond"
)

// RequireToken guards a route with a static shared secret carried in header.
// Nothing downstream runs unless the token matches.
func RequireToken(header, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if got == "" {
				respond.ErrorMessage(w, http.StatusUnauthorized, fmt.Sprintf("missing %s header", header))
				return
			}

			if token == "" {
				slog.Error("token not configured", "header", header)
				respond.ErrorMessage(w, http.StatusInternalServerError, "token not configured")

				return
			}

			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				slog.Warn("invalid token", "header", header, "remote_addr", r.RemoteAddr)
				respond.ErrorMessage(w, http.StatusForbidden, "invalid token")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type Claims struct {
	RoleLevel int `json:"role_level"`
	jwt.RegisteredClaims
}

// RequireAdmin accepts HS256 bearer tokens whose role_level is at most
// maxRoleLevel. Lower levels are more privileged.
func RequireAdmin(secret string, maxRoleLevel int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				slog.Error("admin auth not configured")
				respond.ErrorMessage(w, http.StatusInternalServerError, "authentication not configured")

				return
			}

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				respond.ErrorMessage(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := parseClaims(raw, secret)
			if err != nil {
				slog.Warn("rejected bearer token", "error", err)
				respond.ErrorMessage(w, http.StatusUnauthorized, "invalid token")

				return
			}

			if claims.RoleLevel > maxRoleLevel {
				respond.ErrorMessage(w, http.StatusForbidden, "insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func parseClaims(raw, secret string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	return claims, nil
}
