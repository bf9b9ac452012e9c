package providers

import (
	"context"

	"github.com/raushankrgupta/fitly-tryon/models"
)

// Provider defines the interface for external image-transformation providers
type Provider interface {
	// Name identifies the provider in logs and health output
	Name() string
	// TryOn composes the garment onto the person and returns one result URL
	TryOn(ctx context.Context, personImageURL, garmentImageURL string) (*models.ProviderResult, error)
}
