package scrapers

import (
	"context"
	"fmt"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/scrapers/amazon"
	"github.com/raushankrgupta/fitly-tryon/scrapers/generic"
	"github.com/raushankrgupta/fitly-tryon/scrapers/myntra"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

// GetScraper returns the appropriate scraper and the resolved URL
func GetScraper(ctx context.Context, url string) (Scraper, string, error) {
	// Resolve shortened URLs (e.g., amzn.in, bit.ly)
	resolvedURL, err := utils.ResolveShortenedURL(ctx, url)
	if err != nil {
		return nil, url, fmt.Errorf("error resolving url: %w", err)
	}

	s, err := selectScraper(resolvedURL)
	return s, resolvedURL, err
}

// selectScraper tries site scrapers first; generic is last since it accepts
// any http(s) page.
func selectScraper(resolvedURL string) (Scraper, error) {
	scrapers := []Scraper{
		amazon.NewAmazonScraper(),
		myntra.NewMyntraScraper(),
		generic.NewGenericScraper(),
	}

	for _, s := range scrapers {
		if s.CanScrape(resolvedURL) {
			return s, nil
		}
	}

	return nil, fmt.Errorf("no scraper found for url: %s", resolvedURL)
}

// ScrapeGarment resolves url, picks a scraper and extracts the garment.
func ScrapeGarment(ctx context.Context, url string) (*models.Garment, error) {
	s, resolvedURL, err := GetScraper(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.ScrapeGarment(ctx, resolvedURL)
}
