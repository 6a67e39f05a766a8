// Package config provides the configuration loader for stash.
package config

import (
	"errors"
	"io/fs"
	"os"

	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFilename is the configuration file looked up when no path is given.
	DefaultFilename = "stash.yaml"

	supportedVersion = "1"

	defaultPath          = "data"
	defaultStatePath     = ".stash/state.json"
	defaultLocalDir      = ".stash/store"
	defaultFullKey       = "version.full"
	defaultMajorMinorKey = "version.major_minor"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the configuration at path.
// A missing file yields the defaults.
func (l *Loader) Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Info("no configuration at " + path + ", using defaults")
			return Defaults(), nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return cfg, nil
}

// Parse decodes a stash.yaml document and applies defaults.
// Path-like values are expanded against the process environment.
func Parse(data []byte) (*domain.Config, error) {
	var file Stashfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}

	if file.Version != "" && file.Version != supportedVersion {
		return nil, zerr.With(zerr.New("unsupported config version"), "version", file.Version)
	}

	cfg := Defaults()
	cfg.CacheVersion = file.CacheVersion
	setIfNotEmpty(&cfg.Path, os.ExpandEnv(file.Path))
	setIfNotEmpty(&cfg.StatePath, os.ExpandEnv(file.State))

	setIfNotEmpty(&cfg.Store.Kind, file.Store.Kind)
	setIfNotEmpty(&cfg.Store.Local.Dir, os.ExpandEnv(file.Store.Local.Dir))
	cfg.Store.S3 = domain.S3StoreConfig{
		Bucket:   file.Store.S3.Bucket,
		Prefix:   file.Store.S3.Prefix,
		Region:   file.Store.S3.Region,
		Profile:  file.Store.S3.Profile,
		Endpoint: file.Store.S3.Endpoint,
	}

	cfg.Dataset.Command = file.Dataset.Command
	setIfNotEmpty(&cfg.Dataset.FullKey, file.Dataset.FullKey)
	setIfNotEmpty(&cfg.Dataset.MajorMinorKey, file.Dataset.MajorMinorKey)

	switch cfg.Store.Kind {
	case domain.StoreKindLocal:
	case domain.StoreKindS3:
		if cfg.Store.S3.Bucket == "" {
			return nil, zerr.New("s3 store requires a bucket")
		}
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownStoreKind, "invalid store configuration"), "kind", cfg.Store.Kind)
	}

	return cfg, nil
}

// Defaults returns the configuration used when no file exists.
func Defaults() *domain.Config {
	return &domain.Config{
		Path:      defaultPath,
		StatePath: defaultStatePath,
		Store: domain.StoreConfig{
			Kind:  domain.StoreKindLocal,
			Local: domain.LocalStoreConfig{Dir: defaultLocalDir},
		},
		Dataset: domain.DatasetConfig{
			FullKey:       defaultFullKey,
			MajorMinorKey: defaultMajorMinorKey,
		},
	}
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
