// Package client calls the try-on service: uploads, generation (guarded
// against double submission) and ledger listing.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/raushankrgupta/fitly-tryon/models"
)

// ErrSignedOut is returned when the session carries no token.
var ErrSignedOut = errors.New("session has no token")

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Client talks to one service base URL on behalf of one session.
type Client struct {
	baseURL string
	session *Session
	http    *http.Client
	guard   Guard
}

func New(baseURL string, session *Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		http:    &http.Client{Timeout: 3 * time.Minute},
	}
}

// Upload stores the payloads as one batch and returns their references in order.
func (c *Client) Upload(ctx context.Context, payloads []models.UploadPayload) ([]models.AssetReference, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range payloads {
		part, err := createFilePart(mw, p)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(p.Data); err != nil {
			return nil, fmt.Errorf("failed to write form file: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	var out struct {
		Assets []models.AssetReference `json:"assets"`
	}
	if err := c.do(ctx, http.MethodPost, "/uploads", mw.FormDataContentType(), &buf, &out); err != nil {
		return nil, err
	}
	return out.Assets, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// createFilePart is CreateFormFile with the payload's declared content type.
func createFilePart(mw *multipart.Writer, p models.UploadPayload) (io.Writer, error) {
	if p.ContentType == "" {
		return mw.CreateFormFile("images", p.Filename)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="images"; filename="%s"`, quoteEscaper.Replace(p.Filename)))
	h.Set("Content-Type", p.ContentType)
	return mw.CreatePart(h)
}

// Generate invokes try-on for the pair. A second call while one is
// outstanding returns ErrInFlight without contacting the service.
func (c *Client) Generate(ctx context.Context, person, garment models.AssetReference) (*models.TryOnResponse, error) {
	var resp *models.TryOnResponse
	err := c.guard.Do(func() error {
		body, err := json.Marshal(models.TryOnBody{Image1: person.PublicURL, Image2: garment.PublicURL})
		if err != nil {
			return err
		}
		var out models.TryOnResponse
		if err := c.do(ctx, http.MethodPost, "/try-on", "application/json", bytes.NewReader(body), &out); err != nil {
			return err
		}
		resp = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Generating reports whether a Generate call is outstanding.
func (c *Client) Generating() bool {
	return c.guard.InFlight()
}

// ListOutfits returns the caller's ledger, newest first. limit <= 0 lists all.
func (c *Client) ListOutfits(ctx context.Context, page, limit int) (*models.OutfitPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/outfits"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out models.OutfitPage
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	token := c.session.Token()
	if token == "" {
		return ErrSignedOut
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error, Details: e.Details}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
