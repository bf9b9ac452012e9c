package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting the service reads from the environment.
type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	AllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`

	// Identity
	AuthMode   string `env:"AUTH_MODE" envDefault:"jwt"`
	JWTSecret  string `env:"JWT_SECRET"`
	AuthURL    string `env:"AUTH_URL"`
	AuthAPIKey string `env:"AUTH_API_KEY"`

	// Transformation provider
	Provider           string        `env:"PROVIDER" envDefault:"pixelcut"`
	PixelcutAPIKey     string        `env:"PIXELCUT_API_KEY"`
	PixelcutURL        string        `env:"PIXELCUT_URL" envDefault:"https://api.developer.pixelcut.ai/v1/try-on"`
	GeminiAPIKey       string        `env:"GEMINI_API_KEY"`
	GeminiModel        string        `env:"GEMINI_MODEL" envDefault:"gemini-3-pro-image-preview"`
	ProviderTimeout    time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"2m"`
	ResultFetchTimeout time.Duration `env:"RESULT_FETCH_TIMEOUT" envDefault:"30s"`
	MaxImageBytes      int64         `env:"MAX_IMAGE_BYTES" envDefault:"10485760"`
	BlockPrivateFetch  bool          `env:"BLOCK_PRIVATE_FETCH" envDefault:"false"`

	// Object store
	StorageBackend  string        `env:"STORAGE_BACKEND" envDefault:"local"`
	StorageDir      string        `env:"STORAGE_DIR" envDefault:"user_images"`
	AWSRegion       string        `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSBucketName   string        `env:"AWS_BUCKET_NAME"`
	S3Endpoint      string        `env:"S3_ENDPOINT"`
	S3PublicBaseURL string        `env:"S3_PUBLIC_BASE_URL"`
	S3URLMode       string        `env:"S3_URL_MODE" envDefault:"public"`
	S3PresignExpiry time.Duration `env:"S3_PRESIGN_EXPIRY" envDefault:"1h"`

	// Outfit ledger
	LedgerBackend string `env:"LEDGER_BACKEND" envDefault:"sqlite"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"fitly.db"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017/"`
	DBName        string `env:"DB_NAME" envDefault:"fitly"`

	// Garment import
	ChromeDPEnabled bool `env:"CHROMEDP_ENABLED" envDefault:"false"`

	// Telemetry
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// App is the configuration loaded by LoadConfig.
var App Config

// LoadConfig loads environment variables from the .env file (if any) and the
// process environment, validates them and stores the result in App.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values or system environment variables")
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	App = *cfg
	return cfg, nil
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.AuthMode = strings.ToLower(strings.TrimSpace(c.AuthMode))
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	c.LedgerBackend = strings.ToLower(strings.TrimSpace(c.LedgerBackend))
	c.S3URLMode = strings.ToLower(strings.TrimSpace(c.S3URLMode))
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
}

// Validate checks that the keys required by the selected backends are set.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for jwt auth")
		}
	case "remote":
		if c.AuthURL == "" {
			return fmt.Errorf("AUTH_URL is required for remote auth")
		}
	default:
		return fmt.Errorf("unsupported AUTH_MODE %q", c.AuthMode)
	}

	switch c.Provider {
	case "pixelcut":
		if c.PixelcutAPIKey == "" {
			return fmt.Errorf("PIXELCUT_API_KEY is required for the pixelcut provider")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	default:
		return fmt.Errorf("unsupported PROVIDER %q", c.Provider)
	}

	switch c.StorageBackend {
	case "local":
	case "s3":
		if c.AWSBucketName == "" {
			return fmt.Errorf("AWS_BUCKET_NAME is required for s3 storage")
		}
		if c.S3URLMode != "public" && c.S3URLMode != "presigned" {
			return fmt.Errorf("unsupported S3_URL_MODE %q", c.S3URLMode)
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.LedgerBackend {
	case "sqlite", "mongo", "memory":
	default:
		return fmt.Errorf("unsupported LEDGER_BACKEND %q", c.LedgerBackend)
	}

	if c.ProviderTimeout <= 0 || c.ResultFetchTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT and RESULT_FETCH_TIMEOUT must be positive")
	}
	return nil
}
