package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"

	"eclipse/internal/config"
)

const cacheControl = "public, max-age=31536000" // 1 year

// ObjectStore uploads media by key and derives public references.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key string, body []byte, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
	PublicURL(bucket, key string) string
	// KeyFromURL inverts PublicURL; "" when url is not in bucket.
	KeyFromURL(bucket, url string) string
}

// S3Store talks to Cloudflare R2 through the S3 API.
type S3Store struct {
	client    *s3.Client
	publicURL string
}

// NewS3Store constructs an S3-compatible client for Cloudflare R2.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2PublicURL == "" {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:    client,
		publicURL: strings.TrimSuffix(cfg.R2PublicURL, "/"),
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, bucket, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

// PublicURL is <public base>/<bucket>/<key>.
func (s *S3Store) PublicURL(bucket, key string) string {
	return PublicURL(s.publicURL, bucket, key)
}

// PublicURL joins a public base with bucket and key.
func PublicURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(base, "/"), bucket, key)
}

// NewObjectKey returns a random key keeping ext (without dot) when given.
func NewObjectKey(ext string) string {
	key := strings.ToLower(ulid.Make().String())
	if ext != "" {
		key += "." + ext
	}
	return key
}

// NewOwnedObjectKey prefixes the random key with the owner id.
func NewOwnedObjectKey(ownerID, ext string) string {
	return ownerID + "/" + NewObjectKey(ext)
}

// KeyFromURL recovers the object key from a public URL of bucket, or ""
// when the URL is not one of ours.
func (s *S3Store) KeyFromURL(bucket, url string) string {
	prefix := s.publicURL + "/" + bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}
