package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/tair/marketplace/internal/listing/access"
	"github.com/tair/marketplace/pkg/auth"
	"github.com/tair/marketplace/pkg/logger"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	EmailKey  contextKey = "email"
)

// RequireAuth validates the bearer token and rejects unauthenticated
// requests.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := claimsFromRequest(r)
		if err != nil {
			logger.Warn(r.Context()).Err(err).Msg("Authentication failed")
			respondJSON(w, http.StatusUnauthorized, Response{
				Success: false,
				Error:   "Authentication required",
			})
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, EmailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// OptionalAuth attaches identity when a valid bearer token is present
// and lets the request through as anonymous otherwise. Reads on
// listings use this: visibility rules decide later what the requester
// may see.
func OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := claimsFromRequest(r)
		if err != nil {
			if r.Header.Get("Authorization") != "" {
				logger.Debug(r.Context()).Err(err).Msg("Ignoring invalid bearer token")
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, EmailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func claimsFromRequest(r *http.Request) (*auth.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, auth.ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, auth.ErrInvalidToken
	}

	return auth.ValidateToken(parts[1])
}

// requesterFromRequest builds the access requester from whatever
// credentials the request carries. The share token rides in the "token"
// query parameter.
func requesterFromRequest(r *http.Request) access.Requester {
	req := access.Requester{
		ShareToken: r.URL.Query().Get("token"),
	}
	if userID, ok := r.Context().Value(UserIDKey).(string); ok {
		req.UserID = userID
	}
	if email, ok := r.Context().Value(EmailKey).(string); ok {
		req.Email = email
	}
	return req
}
