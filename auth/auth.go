// Package auth verifies bearer tokens against the identity service and binds
// the verified user id to the request.
package auth

import (
	"context"
	"strings"

	"github.com/raushankrgupta/fitly-tryon/apperrors"
)

// Verifier checks a bearer token and returns the stable id of its user.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// BearerToken extracts the token from an Authorization header of the form
// "Bearer <token>".
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", apperrors.New(apperrors.KindUnauthenticated, "No valid authentication token provided")
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", apperrors.New(apperrors.KindUnauthenticated, "No valid authentication token provided")
	}
	return token, nil
}

// Authenticate runs BearerToken and then the verifier. The returned id is the
// only caller identity the pipeline trusts.
func Authenticate(ctx context.Context, v Verifier, header string) (string, error) {
	token, err := BearerToken(header)
	if err != nil {
		return "", err
	}
	userID, err := v.Verify(ctx, token)
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return "", err
		}
		return "", apperrors.Wrap(apperrors.KindInvalidToken, "Invalid authentication token", err)
	}
	if userID == "" {
		return "", apperrors.New(apperrors.KindInvalidToken, "Invalid authentication token")
	}
	return userID, nil
}

type userIDKey struct{}

// WithUserID returns a context carrying the verified user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the user id stored by WithUserID.
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey{}).(string)
	if !ok || userID == "" {
		return "", apperrors.New(apperrors.KindUnauthenticated, "user id not found in context")
	}
	return userID, nil
}
