package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/arnavk09/campusswap/internal/auth"
	"github.com/arnavk09/campusswap/internal/utils"
)

type contextKey string

const (
	UIDKey   contextKey = "uid"
	EmailKey contextKey = "email"
)

// AuthMiddleware validates the Bearer token and stores the caller's
// uid/email in the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
				Success: false,
				Message: "Invalid/Missing token",
			})
			return
		}

		claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
				Success: false,
				Message: "Invalid token",
			})
			return
		}

		ctx := context.WithValue(r.Context(), UIDKey, claims.UID)
		ctx = context.WithValue(ctx, EmailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerUID returns the authenticated uid stored by AuthMiddleware.
func CallerUID(r *http.Request) string {
	uid, _ := r.Context().Value(UIDKey).(string)
	return uid
}
