package myntra

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/scrapers/base"
)

const stateMarker = "window.__myx ="

type MyntraScraper struct {
	*base.BaseScraper
}

func NewMyntraScraper() *MyntraScraper {
	return &MyntraScraper{
		BaseScraper: base.NewBaseScraper(),
	}
}

func (s *MyntraScraper) CanScrape(url string) bool {
	return strings.Contains(url, "myntra.com")
}

// pageState is the part of window.__myx we read.
type pageState struct {
	PdpData struct {
		Name  string `json:"name"`
		Media struct {
			Albums []struct {
				Images []struct {
					Src string `json:"src"`
				} `json:"images"`
			} `json:"albums"`
		} `json:"media"`
	} `json:"pdpData"`
}

func (s *MyntraScraper) ScrapeGarment(ctx context.Context, url string) (*models.Garment, error) {
	doc, err := s.FetchDocument(ctx, url, func(doc *goquery.Document) bool {
		return strings.Contains(doc.Text(), "window.__myx") || doc.Find("h1").Length() > 0 || doc.Find("meta").Length() > 0
	})
	if err != nil {
		return nil, err
	}

	garment := &models.Garment{SourceURL: url}
	if state, ok := readState(doc); ok {
		garment.Title = state.PdpData.Name
		for _, album := range state.PdpData.Media.Albums {
			if len(album.Images) > 0 && album.Images[0].Src != "" {
				// Myntra templates the size: .../h_($height),q_($qualityPercentage),w_($width)/...
				garment.ImageURL = strings.NewReplacer(
					"($height)", "1440", "($width)", "1080", "($qualityPercentage)", "90",
				).Replace(album.Images[0].Src)
				break
			}
		}
	}

	if garment.ImageURL == "" {
		garment.ImageURL = base.MetaImage(doc, url)
	}
	if garment.ImageURL == "" {
		return nil, fmt.Errorf("no garment image found on %s", url)
	}
	if garment.Title == "" {
		garment.Title = strings.TrimSpace(doc.Find(".pdp-title").Text())
	}
	if garment.Title == "" {
		garment.Title = base.Title(doc)
	}
	return garment, nil
}

func readState(doc *goquery.Document) (pageState, bool) {
	var state pageState
	found := false
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		start := strings.Index(text, stateMarker)
		if start < 0 {
			return true
		}
		raw := strings.TrimSpace(text[start+len(stateMarker):])
		raw = strings.TrimSuffix(raw, ";")
		found = json.Unmarshal([]byte(raw), &state) == nil
		return false
	})
	return state, found
}
