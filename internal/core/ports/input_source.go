// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/stash/internal/core/domain"
)

// InputSource provides the key inputs of the current run.
//
//go:generate go run go.uber.org/mock/mockgen -source=input_source.go -destination=mocks/mock_input_source.go -package=mocks
type InputSource interface {
	// Inputs returns the inputs the source knows about.
	// Fields the source has no value for are listed in missing and left empty.
	Inputs(ctx context.Context) (inputs domain.KeyInputs, missing []domain.Field, err error)
}
