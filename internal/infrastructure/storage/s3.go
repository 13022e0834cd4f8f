package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/orient-appliances/storefront/internal/config"
)

// S3Store keeps objects in an S3 bucket
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Client builds an S3 client from the default AWS credential chain
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Storage.S3Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.S3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3Store creates a store over bucket. Objects are addressed as baseURL/key; when baseURL is
// empty the virtual-hosted bucket URL is used.
func NewS3Store(client *s3.Client, bucket, region, baseURL string) *S3Store {
	if baseURL == "" || strings.HasPrefix(baseURL, "/") {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Store{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Put uploads body as key
func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	return s.baseURL + "/" + (&url.URL{Path: key}).EscapedPath(), nil
}

// Delete removes the object behind url
func (s *S3Store) Delete(ctx context.Context, objectURL string) error {
	escaped, ok := strings.CutPrefix(objectURL, s.baseURL+"/")
	if !ok {
		return fmt.Errorf("url %q is not served by this store", objectURL)
	}
	key, err := url.PathUnescape(escaped)
	if err != nil {
		return fmt.Errorf("invalid object url: %w", err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
