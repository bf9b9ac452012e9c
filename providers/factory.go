package providers

import (
	"context"
	"fmt"

	"github.com/raushankrgupta/fitly-tryon/providers/gemini"
	"github.com/raushankrgupta/fitly-tryon/providers/pixelcut"
)

// Options selects and configures a provider.
type Options struct {
	Name           string
	PixelcutURL    string
	PixelcutAPIKey string
	GeminiAPIKey   string
	GeminiModel    string
	// Fetcher downloads input images for providers that take bytes.
	Fetcher gemini.ImageFetcher
}

// New returns the provider named in opts and a function releasing its resources.
func New(ctx context.Context, opts Options) (Provider, func() error, error) {
	noop := func() error { return nil }

	switch opts.Name {
	case "pixelcut":
		return pixelcut.New(opts.PixelcutURL, opts.PixelcutAPIKey), noop, nil
	case "gemini":
		if opts.Fetcher == nil {
			return nil, noop, fmt.Errorf("gemini provider needs an image fetcher")
		}
		client, err := gemini.New(ctx, opts.GeminiAPIKey, opts.GeminiModel, opts.Fetcher)
		if err != nil {
			return nil, noop, err
		}
		return client, client.Close, nil
	default:
		return nil, noop, fmt.Errorf("no provider found for name: %s", opts.Name)
	}
}
