package generic

import (
	"context"
	"fmt"
	"strings"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/scrapers/base"
)

// GenericScraper reads OpenGraph and Twitter card metadata from any shop page.
type GenericScraper struct {
	*base.BaseScraper
}

func NewGenericScraper() *GenericScraper {
	return &GenericScraper{
		BaseScraper: base.NewBaseScraper(),
	}
}

func (s *GenericScraper) CanScrape(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func (s *GenericScraper) ScrapeGarment(ctx context.Context, url string) (*models.Garment, error) {
	doc, err := s.FetchDocument(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	image := base.MetaImage(doc, url)
	if image == "" {
		return nil, fmt.Errorf("no garment image found on %s", url)
	}
	return &models.Garment{
		SourceURL: url,
		Title:     base.Title(doc),
		ImageURL:  image,
	}, nil
}
