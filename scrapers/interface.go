package scrapers

import (
	"context"

	"github.com/raushankrgupta/fitly-tryon/models"
)

// Scraper extracts the main garment image from a product page
type Scraper interface {
	// CanScrape checks if the scraper can handle the given URL
	CanScrape(url string) bool
	// ScrapeGarment fetches the page and picks its garment image
	ScrapeGarment(ctx context.Context, url string) (*models.Garment, error)
}
