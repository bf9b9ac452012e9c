package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raushankrgupta/fitly-tryon/apperrors"
)

// RemoteVerifier asks a hosted identity service who a token belongs to via
// GET {baseURL}/auth/v1/user.
type RemoteVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRemoteVerifier returns a verifier for the identity service at baseURL.
func NewRemoteVerifier(baseURL, apiKey string) *RemoteVerifier {
	return &RemoteVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type remoteUser struct {
	ID string `json:"id"`
}

// Verify returns the user id reported by the identity service.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if v.apiKey != "" {
		req.Header.Set("apikey", v.apiKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInvalidToken, "Invalid authentication token", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", apperrors.Wrap(apperrors.KindInvalidToken, "Invalid authentication token",
			fmt.Errorf("identity service returned %s", resp.Status))
	}

	var user remoteUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return "", apperrors.Wrap(apperrors.KindInvalidToken, "Invalid authentication token", err)
	}
	if user.ID == "" {
		return "", apperrors.New(apperrors.KindInvalidToken, "Invalid authentication token")
	}
	return user.ID, nil
}
