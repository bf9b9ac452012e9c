package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/scrapers/base"
)

// thumbSuffix matches size tokens such as "._AC_US40_." in image URLs.
var thumbSuffix = regexp.MustCompile(`\._.+_\.`)

// AmazonScraper handles the HTML parsing for Amazon
type AmazonScraper struct {
	*base.BaseScraper
}

func NewAmazonScraper() *AmazonScraper {
	return &AmazonScraper{
		BaseScraper: base.NewBaseScraper(),
	}
}

func (s *AmazonScraper) CanScrape(url string) bool {
	return strings.Contains(url, "amazon") || strings.Contains(url, "amzn")
}

func (s *AmazonScraper) ScrapeGarment(ctx context.Context, url string) (*models.Garment, error) {
	doc, err := s.FetchDocument(ctx, url, func(doc *goquery.Document) bool {
		return strings.TrimSpace(doc.Find("#productTitle").Text()) != "" || doc.Find("#landingImage").Length() > 0
	})
	if err != nil {
		return nil, err
	}

	image := landingImage(doc)
	if image == "" {
		image = base.MetaImage(doc, url)
	}
	if image == "" {
		return nil, fmt.Errorf("no garment image found on %s", url)
	}

	title := strings.TrimSpace(doc.Find("#productTitle").Text())
	if title == "" {
		title = base.Title(doc)
	}
	return &models.Garment{SourceURL: url, Title: title, ImageURL: image}, nil
}

// landingImage prefers the hi-res attribute, then the largest entry of the
// dynamic image map, then the plain src with its size token stripped.
func landingImage(doc *goquery.Document) string {
	img := doc.Find("#landingImage")
	if img.Length() == 0 {
		img = doc.Find("#imgBlkFront")
	}
	if hires := strings.TrimSpace(img.AttrOr("data-old-hires", "")); hires != "" {
		return hires
	}

	if raw := img.AttrOr("data-a-dynamic-image", ""); raw != "" {
		// {"https://...jpg": [width, height], ...}
		var images map[string][]int
		if err := json.Unmarshal([]byte(raw), &images); err == nil {
			best, bestArea := "", 0
			for u, dims := range images {
				if len(dims) != 2 {
					continue
				}
				if area := dims[0] * dims[1]; area > bestArea || (area == bestArea && u < best) {
					best, bestArea = u, area
				}
			}
			if best != "" {
				return best
			}
		}
	}

	if src := strings.TrimSpace(img.AttrOr("src", "")); src != "" {
		return thumbSuffix.ReplaceAllString(src, ".")
	}
	return ""
}
