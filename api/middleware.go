package api

import (
	"context"
	"net/http"

	"github.com/raushankrgupta/fitly-tryon/auth"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

// AuthMiddleware verifies the bearer token and binds the user id to the
// request context.
func AuthMiddleware(v auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := auth.Authenticate(r.Context(), v, r.Header.Get("Authorization"))
			if err != nil {
				utils.RespondAppError(w, nil, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// GetUserIDFromContext returns the verified caller bound by AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	return auth.UserIDFromContext(ctx)
}
