package providers

import (
	"context"
	"testing"
)

type nopFetcher struct{}

func (nopFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	return nil, "", nil
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantName string
		wantErr  bool
	}{
		{"pixelcut", Options{Name: "pixelcut", PixelcutURL: "https://example.test/v1/try-on", PixelcutAPIKey: "k"}, "pixelcut", false},
		{"unknown", Options{Name: "dalle"}, "", true},
		{"gemini without fetcher", Options{Name: "gemini", GeminiAPIKey: "k"}, "", true},
		{"gemini without key", Options{Name: "gemini", Fetcher: nopFetcher{}}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, closeFn, err := New(context.Background(), tt.opts)
			if closeFn == nil {
				t.Fatal("close func is nil")
			}
			defer closeFn()
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}
