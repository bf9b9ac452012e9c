package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/raushankrgupta/fitly-tryon/apperrors"
	"github.com/raushankrgupta/fitly-tryon/models"
)

const tryOnPrompt = `
Dress the person in the first image with the garment shown in the second image.
Keep the person's face, body, pose and background unchanged.
Return a single photorealistic image.
`

// ImageFetcher downloads an image and reports its content type.
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Client generates try-on images with a Gemini image model. Results are
// returned inline as data: URLs.
type Client struct {
	client  *genai.Client
	model   string
	fetcher ImageFetcher
}

// New creates a Gemini client for model using apiKey.
func New(ctx context.Context, apiKey, model string, fetcher ImageFetcher) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client, model: model, fetcher: fetcher}, nil
}

func (c *Client) Name() string { return "gemini" }

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.client.Close()
}

// TryOn downloads both inputs and asks the model for a composed image.
func (c *Client) TryOn(ctx context.Context, personImageURL, garmentImageURL string) (*models.ProviderResult, error) {
	personData, personType, err := c.fetcher.Fetch(ctx, personImageURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindProviderError, "Failed to fetch person image", err)
	}
	garmentData, garmentType, err := c.fetcher.Fetch(ctx, garmentImageURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindProviderError, "Failed to fetch garment image", err)
	}

	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx,
		genai.Text(tryOnPrompt),
		genai.ImageData(imageFormat(personType), personData),
		genai.ImageData(imageFormat(garmentType), garmentData),
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindProviderError, "Gemini generation failed", err)
	}
	return resultFromResponse(resp)
}

// resultFromResponse picks the first image part of the first candidate.
func resultFromResponse(resp *genai.GenerateContentResponse) (*models.ProviderResult, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, apperrors.New(apperrors.KindProviderError, "No result image received from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Blob:
			if strings.HasPrefix(p.MIMEType, "image/") && len(p.Data) > 0 {
				url := "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
				return &models.ProviderResult{ResultURL: url}, nil
			}
		case genai.Text:
			text.WriteString(string(p))
		}
	}

	if text.Len() > 0 {
		return nil, apperrors.WithDetails(apperrors.KindProviderError, "Gemini returned text instead of an image", truncate(text.String(), 200))
	}
	return nil, apperrors.New(apperrors.KindProviderError, "No result image received from Gemini")
}

// imageFormat maps "image/png" to "png" as genai.ImageData expects.
func imageFormat(contentType string) string {
	format := strings.TrimPrefix(contentType, "image/")
	if format == contentType || format == "" {
		return "jpeg"
	}
	if i := strings.IndexByte(format, ';'); i >= 0 {
		format = format[:i]
	}
	return format
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
