package storefront

import (
	"context"
	"errors"
	"net/http"

	"RetroStore/internal/auth"
	"RetroStore/pkg/kit"
)

type ctxKey string

const adminKey ctxKey = "admin"

func AdminFromContext(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(adminKey).(auth.Claims)
	return c, ok
}

// AdminJWT gates the admin mutation surface: a valid bearer token with the
// admin role, or nothing.
func AdminJWT(jwt *auth.TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := jwt.ParseBearer(r.Header.Get("Authorization"))
			if errors.Is(err, auth.ErrNoBearer) {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}
			if !claims.IsAdmin() {
				kit.WriteError(w, r, http.StatusForbidden, "admin access required", nil)
				return
			}

			ctx := context.WithValue(r.Context(), adminKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
