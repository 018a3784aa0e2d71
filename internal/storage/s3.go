// Package storage uploads generated dish images to S3
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pageza/dishcraft/backend/config"
)

// PutObjectAPI is the part of the S3 client the store needs
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ImageStore writes images to a bucket and hands back their public URL
type S3ImageStore struct {
	client        PutObjectAPI
	bucket        string
	publicBaseURL string
}

// NewS3ImageStore creates a store. When publicBaseURL is empty the
// virtual-hosted bucket URL is used.
func NewS3ImageStore(client PutObjectAPI, bucket, publicBaseURL string) *S3ImageStore {
	return &S3ImageStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// NewS3ImageStoreFromConfig wires a store to an initialized S3 client
func NewS3ImageStoreFromConfig(cfg *config.S3Config) *S3ImageStore {
	return NewS3ImageStore(cfg.Client, cfg.BucketName, cfg.PublicBaseURL)
}

// Upload stores data under key and returns the public URL
func (s *S3ImageStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.PublicURL(key), nil
}

// PublicURL returns the URL an uploaded key is served from
func (s *S3ImageStore) PublicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
