package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Options configures an S3Store.
type S3Options struct {
	Region   string
	Bucket   string
	Endpoint string // S3-compatible endpoint; empty for AWS
	// PublicBaseURL is prefixed to keys in public mode. Defaults to the
	// bucket's virtual-hosted URL.
	PublicBaseURL string
	URLMode       string // "public" or "presigned"
	PresignExpiry time.Duration
}

// S3Store is an ObjectStore backed by an S3 bucket.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	opts    S3Options
}

// NewS3Store loads the default AWS credential chain and builds the S3 clients.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	if opts.PublicBaseURL == "" {
		opts.PublicBaseURL = defaultPublicBaseURL(opts)
	}
	if opts.PresignExpiry <= 0 {
		opts.PresignExpiry = time.Hour
	}

	log.Printf("S3 store initialized (bucket=%s, url_mode=%s)", opts.Bucket, opts.URLMode)
	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		opts:    opts,
	}, nil
}

func defaultPublicBaseURL(opts S3Options) string {
	if opts.Endpoint != "" {
		return objectURL(opts.Endpoint, opts.Bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
}

// Put uploads data with If-None-Match so an existing key is never replaced.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		if isConditionalFailure(err) {
			return fmt.Errorf("put %s: %w", key, ErrExists)
		}
		return fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return nil
}

// URL returns the public URL for key, or a presigned GET URL in presigned mode.
func (s *S3Store) URL(ctx context.Context, key string) (string, error) {
	if s.opts.URLMode != "presigned" {
		return objectURL(s.opts.PublicBaseURL, key), nil
	}

	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.opts.PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	return request.URL, nil
}

func isConditionalFailure(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}
