// Package app implements the application layer for stash.
package app

import (
	"context"
	"slices"

	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/stash/internal/engine/cacher"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	source       ports.InputSource
	probe        ports.DatasetProbe
	opener       ports.StoreOpener
	cacher       *cacher.Cacher
	logger       ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	source ports.InputSource,
	probe ports.DatasetProbe,
	opener ports.StoreOpener,
	c *cacher.Cacher,
	logger ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		source:       source,
		probe:        probe,
		opener:       opener,
		cacher:       c,
		logger:       logger,
	}
}

// RestoreOptions configures a restore.
type RestoreOptions struct {
	// Path overrides the configured cache directory.
	Path string
}

// SaveOptions configures a save.
type SaveOptions struct {
	// Path overrides the configured cache directory.
	Path string
	// Force saves even when the restored entry is unchanged.
	Force bool
}

// Keys resolves the cache keys of the current run.
func (a *App) Keys(ctx context.Context, configPath string) (domain.Resolution, error) {
	_, res, err := a.resolve(ctx, configPath)
	return res, err
}

// Restore restores the best matching cache entry into the cache directory.
func (a *App) Restore(ctx context.Context, configPath string, opts RestoreOptions) (*domain.RestoreResult, error) {
	cfg, res, err := a.resolve(ctx, configPath)
	if err != nil {
		return nil, err
	}

	blobs, state, err := a.openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer a.closeStore(blobs)

	result, err := a.cacher.Restore(ctx, res, pathOr(opts.Path, cfg.Path), blobs, state)
	if err != nil {
		return nil, zerr.Wrap(err, "restore failed")
	}
	return result, nil
}

// Save stores the cache directory under the primary key.
func (a *App) Save(ctx context.Context, configPath string, opts SaveOptions) (*domain.SaveResult, error) {
	cfg, res, err := a.resolve(ctx, configPath)
	if err != nil {
		return nil, err
	}

	blobs, state, err := a.openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer a.closeStore(blobs)

	result, err := a.cacher.Save(ctx, res, pathOr(opts.Path, cfg.Path), blobs, state, opts.Force)
	if err != nil {
		return nil, zerr.Wrap(err, "save failed")
	}
	return result, nil
}

func (a *App) resolve(ctx context.Context, configPath string) (*domain.Config, domain.Resolution, error) {
	cfg, err := a.configLoader.Load(configPath)
	if err != nil {
		return nil, domain.Resolution{}, zerr.Wrap(err, "failed to load configuration")
	}

	inputs, err := a.inputs(ctx, cfg)
	if err != nil {
		return nil, domain.Resolution{}, err
	}

	return cfg, domain.Resolve(inputs), nil
}

// inputs gathers the key inputs. The environment wins; the configuration
// supplies the cache version and the dataset probe the dataset versions.
// Anything still missing passes through empty.
func (a *App) inputs(ctx context.Context, cfg *domain.Config) (domain.KeyInputs, error) {
	in, missing, err := a.source.Inputs(ctx)
	if err != nil {
		return domain.KeyInputs{}, zerr.Wrap(err, "failed to read key inputs")
	}

	if slices.Contains(missing, domain.FieldCacheVersion) && cfg.CacheVersion != "" {
		in.CacheVersion = cfg.CacheVersion
		missing = slices.DeleteFunc(missing, func(f domain.Field) bool { return f == domain.FieldCacheVersion })
	}

	needsDataset := slices.Contains(missing, domain.FieldDatasetVersion) ||
		slices.Contains(missing, domain.FieldDatasetVersionFull)
	if needsDataset && len(cfg.Dataset.Command) > 0 {
		majorMinor, full, err := a.probe.Probe(ctx, cfg.Dataset)
		if err != nil {
			return domain.KeyInputs{}, zerr.Wrap(err, "failed to probe dataset version")
		}
		missing = slices.DeleteFunc(missing, func(f domain.Field) bool {
			switch f {
			case domain.FieldDatasetVersion:
				in.DatasetVersion = majorMinor
				return true
			case domain.FieldDatasetVersionFull:
				in.DatasetVersionFull = full
				return true
			}
			return false
		})
	}

	for _, f := range missing {
		a.logger.Warn(f.EnvName() + " is not set, using an empty value")
	}
	return in, nil
}

func (a *App) openStores(ctx context.Context, cfg *domain.Config) (ports.BlobStore, ports.StateStore, error) {
	state, err := a.opener.OpenStateStore(cfg.StatePath)
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to open state store")
	}
	blobs, err := a.opener.OpenBlobStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to open cache store")
	}
	return blobs, state, nil
}

func (a *App) closeStore(blobs ports.BlobStore) {
	if err := blobs.Close(); err != nil {
		a.logger.Error(zerr.Wrap(err, "failed to close cache store"))
	}
}

func pathOr(override, configured string) string {
	if override != "" {
		return override
	}
	return configured
}
