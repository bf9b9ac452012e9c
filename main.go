package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raushankrgupta/fitly-tryon/api"
	"github.com/raushankrgupta/fitly-tryon/auth"
	"github.com/raushankrgupta/fitly-tryon/config"
	"github.com/raushankrgupta/fitly-tryon/ledger"
	"github.com/raushankrgupta/fitly-tryon/providers"
	"github.com/raushankrgupta/fitly-tryon/scrapers"
	"github.com/raushankrgupta/fitly-tryon/storage"
	"github.com/raushankrgupta/fitly-tryon/telemetry"
	"github.com/raushankrgupta/fitly-tryon/tryon"
	"github.com/raushankrgupta/fitly-tryon/uploads"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "fitly-tryon", cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	store, files, err := newObjectStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}

	outfits, err := ledger.Open(ctx, ledger.Options{
		Backend:    cfg.LedgerBackend,
		SQLitePath: cfg.SQLitePath,
		MongoURI:   cfg.MongoURI,
		DBName:     cfg.DBName,
	})
	if err != nil {
		log.Fatalf("Failed to open outfit ledger: %v", err)
	}
	defer outfits.Close()

	verifier, err := newVerifier(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize identity verifier: %v", err)
	}

	fetcher := utils.NewHTTPFetcher(cfg.ResultFetchTimeout, cfg.MaxImageBytes)
	if cfg.BlockPrivateFetch {
		fetcher.BlockPrivateNetworks()
	}
	provider, closeProvider, err := providers.New(ctx, providers.Options{
		Name:           cfg.Provider,
		PixelcutURL:    cfg.PixelcutURL,
		PixelcutAPIKey: cfg.PixelcutAPIKey,
		GeminiAPIKey:   cfg.GeminiAPIKey,
		GeminiModel:    cfg.GeminiModel,
		Fetcher:        fetcher,
	})
	if err != nil {
		log.Fatalf("Failed to initialize provider: %v", err)
	}
	defer closeProvider()

	service := tryon.NewService(tryon.Deps{
		Verifier:        verifier,
		Provider:        provider,
		Store:           store,
		Ledger:          outfits,
		Fetcher:         fetcher,
		Metrics:         metrics,
		ProviderTimeout: cfg.ProviderTimeout,
		FetchTimeout:    cfg.ResultFetchTimeout,
	})

	handler := api.NewHandler(api.Deps{
		TryOn:         service,
		Uploader:      uploads.NewOrchestrator(store, cfg.MaxImageBytes),
		Ledger:        outfits,
		Fetcher:       fetcher,
		Scrape:        scrapers.ScrapeGarment,
		Verifier:      verifier,
		Metrics:       metrics,
		ProviderName:  provider.Name(),
		MaxImageBytes: cfg.MaxImageBytes,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler, api.RouterOptions{AllowedOrigin: cfg.AllowedOrigin, Files: files}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
	}()

	fmt.Printf("Server starting on port %s (provider=%s storage=%s ledger=%s)...\n",
		cfg.Port, provider.Name(), cfg.StorageBackend, cfg.LedgerBackend)
	fmt.Printf("Usage: curl -X POST -H \"Authorization: Bearer <token>\" -d '{\"image1\":\"<url>\",\"image2\":\"<url>\"}' http://localhost:%s/try-on\n", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// newObjectStore returns the configured store and, for the local backend,
// the handler that serves it under /files/.
func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, http.Handler, error) {
	switch cfg.StorageBackend {
	case "s3":
		s, err := storage.NewS3Store(ctx, storage.S3Options{
			Region:        cfg.AWSRegion,
			Bucket:        cfg.AWSBucketName,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
			URLMode:       cfg.S3URLMode,
			PresignExpiry: cfg.S3PresignExpiry,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case "local":
		s, err := storage.NewLocalStore(cfg.StorageDir, cfg.PublicBaseURL+"/files")
		if err != nil {
			return nil, nil, err
		}
		return s, s.Handler(), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}

func newVerifier(cfg *config.Config) (auth.Verifier, error) {
	switch cfg.AuthMode {
	case "jwt":
		v, err := auth.NewJWTVerifier(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "remote":
		return auth.NewRemoteVerifier(cfg.AuthURL, cfg.AuthAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown auth mode: %s", cfg.AuthMode)
	}
}
