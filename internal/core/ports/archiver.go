package ports

import (
	"context"
	"io"
)

// Archiver converts a directory to a single blob and back.
//
//go:generate go run go.uber.org/mock/mockgen -source=archiver.go -destination=mocks/mock_archiver.go -package=mocks
type Archiver interface {
	// Pack writes the contents of dir to w.
	Pack(ctx context.Context, dir string, w io.Writer) error

	// Unpack extracts an archive read from r into dir, adding to what is already there.
	Unpack(ctx context.Context, r io.Reader, dir string) error
}
