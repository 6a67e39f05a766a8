package ports

import (
	"context"
	"io"

	"go.trai.ch/stash/internal/core/domain"
)

// BlobStore is the cache storage collaborator. It is treated as an opaque get/put service.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BlobStore interface {
	// Lookup finds an entry for key.
	// With exact set only an entry stored under key itself matches. Otherwise the newest
	// entry whose key has key as a field-wise prefix matches.
	// Returns nil, nil if nothing matches.
	Lookup(ctx context.Context, key domain.CacheKey, exact bool) (*domain.Entry, error)

	// Open returns the content of an entry returned by Lookup or Put.
	Open(ctx context.Context, entry domain.Entry) (io.ReadCloser, error)

	// Put stores the content read from r under key, replacing any previous entry.
	Put(ctx context.Context, key domain.CacheKey, r io.Reader) (*domain.Entry, error)

	// Close releases the resources held by the store.
	Close() error
}

// StateStore keeps restore records between the restore and save steps of a run.
type StateStore interface {
	// Get retrieves the record for a primary key.
	// Returns nil, nil if not found.
	Get(primary string) (*domain.RestoreRecord, error)

	// Put stores the record.
	Put(record domain.RestoreRecord) error
}

// StoreOpener opens the stores selected by the configuration.
type StoreOpener interface {
	// OpenBlobStore opens the blob store described by cfg.
	OpenBlobStore(ctx context.Context, cfg domain.StoreConfig) (BlobStore, error)

	// OpenStateStore opens the state file at path.
	OpenStateStore(path string) (StateStore, error)
}
