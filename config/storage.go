package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds S3 client and bucket info
type S3Config struct {
	Client        *s3.Client
	BucketName    string
	PublicBaseURL string
}

// Enabled reports whether uploads to durable storage are configured
func (c StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

// NewS3Config initializes the S3 client from the default AWS credential chain
func NewS3Config(ctx context.Context, sc StorageConfig) (*S3Config, error) {
	var opts []func(*config.LoadOptions) error
	if sc.Region != "" {
		opts = append(opts, config.WithRegion(sc.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &S3Config{
		Client:        s3.NewFromConfig(awsCfg),
		BucketName:    sc.Bucket,
		PublicBaseURL: sc.PublicBaseURL,
	}, nil
}
