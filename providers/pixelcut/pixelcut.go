package pixelcut

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/raushankrgupta/fitly-tryon/apperrors"
	"github.com/raushankrgupta/fitly-tryon/models"
)

// Client calls a Pixelcut-compatible try-on endpoint:
// POST {person_image_url, garment_image_url} -> {result_url}.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// New returns a client for endpoint authenticated with apiKey. Deadlines come
// from the caller's context.
func New(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{},
	}
}

func (c *Client) Name() string { return "pixelcut" }

type tryOnRequest struct {
	PersonImageURL  string `json:"person_image_url"`
	GarmentImageURL string `json:"garment_image_url"`
}

// tryOnResponse covers both the success body and the provider-defined error body.
type tryOnResponse struct {
	ResultURL string `json:"result_url"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

// TryOn submits both URLs and validates the response before use.
func (c *Client) TryOn(ctx context.Context, personImageURL, garmentImageURL string) (*models.ProviderResult, error) {
	body, err := json.Marshal(tryOnRequest{
		PersonImageURL:  personImageURL,
		GarmentImageURL: garmentImageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Wrap(apperrors.KindProviderError, "Pixelcut API timed out", err)
		}
		return nil, apperrors.Wrap(apperrors.KindProviderError, "Pixelcut API request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindProviderError, "Pixelcut API response unreadable", err)
	}

	var parsed tryOnResponse
	decodeErr := json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := parsed.Error
		if reason == "" {
			reason = parsed.Message
		}
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return nil, apperrors.New(apperrors.KindProviderError, "Pixelcut API error: "+reason)
	}
	if decodeErr != nil {
		return nil, apperrors.Wrap(apperrors.KindProviderError, "Pixelcut API returned malformed JSON", decodeErr)
	}
	if parsed.ResultURL == "" {
		return nil, apperrors.New(apperrors.KindProviderError, "No result image URL received from Pixelcut API")
	}
	return &models.ProviderResult{ResultURL: parsed.ResultURL}, nil
}
