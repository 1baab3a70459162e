package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/config"
)

// objectPutter is the part of the S3 client the archive needs
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive copies complaint PDFs into an S3-compatible bucket
type S3Archive struct {
	client   objectPutter
	bucket   string
	endpoint string
	logger   *slog.Logger
}

// NewS3Client builds a client for AWS or any S3-compatible endpoint. A custom endpoint
// switches to path-style addressing.
func NewS3Client(ctx context.Context, cfg *config.StorageConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewS3Archive(client objectPutter, cfg *config.StorageConfig, logger *slog.Logger) *S3Archive {
	return &S3Archive{
		client:   client,
		bucket:   cfg.S3Bucket,
		endpoint: strings.TrimRight(cfg.S3Endpoint, "/"),
		logger:   logger,
	}
}

// Archive uploads the file at path under key and returns its URL
func (a *S3Archive) Archive(ctx context.Context, key, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		a.logger.Error("failed to archive pdf",
			slog.String("bucket", a.bucket),
			slog.String("key", key),
			slog.Any("error", err))
		return "", fmt.Errorf("put object %s/%s: %w", a.bucket, key, err)
	}

	url := a.objectURL(key)
	a.logger.Info("pdf archived", slog.String("url", url))
	return url, nil
}

func (a *S3Archive) objectURL(key string) string {
	if a.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", a.endpoint, a.bucket, key)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key)
}
