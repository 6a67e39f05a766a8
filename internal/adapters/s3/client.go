package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/zerr"
)

// Client is the subset of the S3 API the store uses.
type Client interface {
	s3.HeadObjectAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient builds an S3 client from the shared AWS configuration chain,
// applying the profile, region and endpoint overrides in cfg.
func NewClient(ctx context.Context, cfg domain.S3StoreConfig) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to load aws configuration"), "profile", cfg.Profile)
	}

	var optFns []func(*s3.Options)
	if cfg.Endpoint != "" {
		// Custom endpoints (minio, localstack) rarely support virtual-host addressing.
		optFns = append(optFns, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, optFns...), nil
}
