package ports

import (
	"context"

	"go.trai.ch/stash/internal/core/domain"
)

// DatasetProbe asks the regression-data package which version is installed.
//
//go:generate go run go.uber.org/mock/mockgen -source=dataset.go -destination=mocks/mock_dataset.go -package=mocks
type DatasetProbe interface {
	// Probe runs the configured introspection command.
	// It returns the major.minor version and the full version.
	Probe(ctx context.Context, cfg domain.DatasetConfig) (majorMinor, full string, err error)
}
