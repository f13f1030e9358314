// Package blobstore stores user-uploaded binary payloads in S3 or an
// S3-compatible service. Payloads arrive as base64 data URIs from the web
// client; keys are prefixed with a random UUID so repeated uploads under the
// same filename never collide.
package blobstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Client defines the interface for S3 operations used by Store.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config contains configuration for the S3-backed store.
type Config struct {
	Bucket      string `env:"AWS_BUCKET_NAME,required"`
	Region      string `env:"AWS_REGION,required"`
	AccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	SecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint    string `env:"AWS_S3_ENDPOINT"` // optional, for S3-compatible services
	BaseURL     string `env:"AWS_S3_BASE_URL"` // public URL base for serving files
}

// Object describes a stored blob.
type Object struct {
	URL string
	Key string
}

// Store implements uploads and deletes against a single bucket.
// It is safe for concurrent use.
type Store struct {
	client  S3Client
	bucket  string
	baseURL string
}

// Option configures Store construction.
type Option func(*options)

type options struct {
	s3Client S3Client
}

// WithS3Client sets a custom pre-configured S3 client. Useful for testing with mocks.
func WithS3Client(client S3Client) Option {
	return func(o *options) {
		o.s3Client = client
	}
}

// New creates an S3-backed store.
func New(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrMissingBucketConfig
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.s3Client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		client = s3.NewFromConfig(awsConfig, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
				so.UsePathStyle = true
			}
		})
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Endpoint != "" {
			baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
	}, nil
}

// UploadDataURI decodes a base64 data URI ("data:image/jpeg;base64,...") and
// uploads it under a UUID-prefixed key derived from filename.
func (s *Store) UploadDataURI(ctx context.Context, dataURI, filename string) (*Object, error) {
	mimeType, payload, err := decodeDataURI(dataURI)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s-%s", uuid.New().String(), filename)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object: %w", err)
	}

	return &Object{
		URL: s.baseURL + "/" + key,
		Key: key,
	}, nil
}

// Delete removes a single object. Deleting an empty key is a no-op so callers
// can pass a possibly-absent stored key without checking first.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// decodeDataURI splits a data URI into its MIME type and decoded payload.
func decodeDataURI(dataURI string) (string, []byte, error) {
	head, data, ok := strings.Cut(dataURI, ",")
	if !ok || !strings.HasPrefix(head, "data:") {
		return "", nil, ErrInvalidDataURI
	}

	meta := strings.TrimPrefix(head, "data:")
	mimeType, encoding, ok := strings.Cut(meta, ";")
	if !ok || encoding != "base64" || mimeType == "" {
		return "", nil, ErrInvalidDataURI
	}

	payload, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}

	return mimeType, payload, nil
}
