package base

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/fitly-tryon/config"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

// minImageSide is the smallest declared <img> width or height taken as a product shot.
const minImageSide = 300

// BaseScraper handles common scraping logic
type BaseScraper struct {
	Client *http.Client
	// Headless enables the chromedp fallback when the HTTP fetch is refused.
	Headless bool
}

// NewBaseScraper creates a new BaseScraper instance
func NewBaseScraper() *BaseScraper {
	transport := &http.Transport{
		ForceAttemptHTTP2:     false,
		TLSNextProto:          make(map[string]func(string, *tls.Conn) http.RoundTripper),
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if config.App.BlockPrivateFetch {
		transport.DialContext = utils.PublicDialer().DialContext
	}
	return &BaseScraper{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Headless: config.App.ChromeDPEnabled,
	}
}

// FetchDocument fetches the page over HTTP and, when that is refused and
// Headless is set, retries in a headless browser. Bot walls and pages the
// validator refuses are rejected.
func (b *BaseScraper) FetchDocument(ctx context.Context, pageURL string, validator func(*goquery.Document) bool) (*goquery.Document, error) {
	doc, err := b.FetchDocumentHTTP(ctx, pageURL)
	if err == nil {
		err = checkDocument(doc, pageURL, validator)
	}
	if err == nil {
		return doc, nil
	}
	if !b.Headless {
		return nil, err
	}

	log.Printf("[BaseScraper] HTTP fetch rejected (%v), trying ChromeDP: %s", err, pageURL)
	doc, cdpErr := b.FetchDocumentChromeDP(ctx, pageURL)
	if cdpErr != nil {
		return nil, fmt.Errorf("%v; chromedp: %w", err, cdpErr)
	}
	if err := checkDocument(doc, pageURL, validator); err != nil {
		return nil, err
	}
	return doc, nil
}

func checkDocument(doc *goquery.Document, pageURL string, validator func(*goquery.Document) bool) error {
	if !isValidDocument(doc) {
		return fmt.Errorf("page blocked or empty: %s", pageURL)
	}
	if validator != nil && !validator(doc) {
		return fmt.Errorf("page has no product content: %s", pageURL)
	}
	return nil
}

func isValidDocument(doc *goquery.Document) bool {
	title := strings.ToLower(strings.TrimSpace(doc.Find("title").Text()))
	if strings.Contains(title, "robot check") ||
		strings.Contains(title, "captcha") ||
		strings.Contains(title, "access denied") {
		return false
	}
	// Meta-only and image-only pages are fine; a page with none of meta,
	// img or body text is not.
	return doc.Find("meta").Length() > 0 ||
		doc.Find("img").Length() > 0 ||
		strings.TrimSpace(doc.Find("body").Text()) != ""
}

// FetchDocumentHTTP fetches the URL and returns a GoQuery document via standard HTTP
func (b *BaseScraper) FetchDocumentHTTP(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	// Common headers to mimic a real browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := b.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}

	return goquery.NewDocumentFromReader(res.Body)
}

// MetaImage picks og:image, then twitter:image, then the first large <img>.
// The result is absolute, resolved against pageURL.
func MetaImage(doc *goquery.Document, pageURL string) string {
	for _, sel := range []string{
		`meta[property="og:image:secure_url"]`,
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
	} {
		if content := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); content != "" {
			return Absolute(pageURL, content)
		}
	}

	var found string
	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" || strings.HasPrefix(src, "data:") || strings.HasSuffix(strings.ToLower(src), ".svg") {
			return true
		}
		if side(s, "width") >= minImageSide || side(s, "height") >= minImageSide {
			found = Absolute(pageURL, src)
			return false
		}
		return true
	})
	return found
}

// Title returns og:title or the document title.
func Title(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", "")); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// Absolute resolves ref against base; protocol-relative refs get https.
func Absolute(base, ref string) string {
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func side(s *goquery.Selection, attr string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(s.AttrOr(attr, ""), "px"))
	if err != nil {
		return 0
	}
	return n
}
