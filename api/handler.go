// Package api exposes the try-on pipeline over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/raushankrgupta/fitly-tryon/auth"
	"github.com/raushankrgupta/fitly-tryon/ledger"
	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/telemetry"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

// TryOnInvoker runs one try-on invocation.
type TryOnInvoker interface {
	Invoke(ctx context.Context, authorization string, body []byte, logger *utils.RequestLog) (*models.TryOnResponse, error)
}

// Uploader stores a batch of images for a caller.
type Uploader interface {
	Upload(ctx context.Context, callerID string, payloads []models.UploadPayload) ([]models.AssetReference, error)
}

// ImageFetcher downloads an image and reports its content type.
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

// GarmentScraper extracts a garment image from a product page URL.
type GarmentScraper func(ctx context.Context, url string) (*models.Garment, error)

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	TryOn         TryOnInvoker
	Uploader      Uploader
	Ledger        ledger.Store
	Fetcher       ImageFetcher
	Scrape        GarmentScraper
	Verifier      auth.Verifier
	Metrics       *telemetry.Metrics
	ProviderName  string
	MaxImageBytes int64
}

// Handler holds the HTTP handlers.
type Handler struct {
	deps Deps
}

func NewHandler(deps Deps) *Handler {
	if deps.MaxImageBytes <= 0 {
		deps.MaxImageBytes = 10 << 20
	}
	return &Handler{deps: deps}
}

// HealthHandler reports liveness and ledger drift.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":                "ok",
		"provider":              h.deps.ProviderName,
		"ledger_write_failures": h.deps.Metrics.LedgerWriteFailures(),
	})
}
