// Package store opens the blob and state stores selected by the configuration.
package store

import (
	"context"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/stash/internal/adapters/cas"
	"go.trai.ch/stash/internal/adapters/local"
	"go.trai.ch/stash/internal/adapters/s3"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/zerr"
)

// S3ClientFactory builds the S3 client for a store configuration.
type S3ClientFactory func(ctx context.Context, cfg domain.S3StoreConfig) (s3.Client, error)

// Opener implements ports.StoreOpener.
type Opener struct {
	clock     clockwork.Clock
	logger    ports.Logger
	newClient S3ClientFactory
}

var _ ports.StoreOpener = (*Opener)(nil)

// Option configures an Opener.
type Option func(*Opener)

// WithS3ClientFactory replaces the default AWS client construction.
func WithS3ClientFactory(f S3ClientFactory) Option {
	return func(o *Opener) { o.newClient = f }
}

// NewOpener creates an Opener.
func NewOpener(clock clockwork.Clock, logger ports.Logger, opts ...Option) *Opener {
	o := &Opener{
		clock:  clock,
		logger: logger,
		newClient: func(ctx context.Context, cfg domain.S3StoreConfig) (s3.Client, error) {
			return s3.NewClient(ctx, cfg)
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OpenBlobStore implements ports.StoreOpener.
func (o *Opener) OpenBlobStore(ctx context.Context, cfg domain.StoreConfig) (ports.BlobStore, error) {
	switch cfg.Kind {
	case domain.StoreKindLocal, "":
		store, err := local.NewStore(cfg.Local.Dir, o.clock)
		if err != nil {
			return nil, err
		}
		o.logger.Info("using local cache store at " + cfg.Local.Dir)
		return store, nil
	case domain.StoreKindS3:
		client, err := o.newClient(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		o.logger.Info("using s3 cache store in bucket " + cfg.S3.Bucket)
		return s3.NewStore(client, cfg.S3.Bucket, cfg.S3.Prefix, o.clock), nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownStoreKind, "cannot open cache store"), "kind", cfg.Kind)
	}
}

// OpenStateStore implements ports.StoreOpener.
func (o *Opener) OpenStateStore(path string) (ports.StateStore, error) {
	return cas.NewStore(path)
}
