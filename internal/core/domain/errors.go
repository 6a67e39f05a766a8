package domain

import "go.trai.ch/zerr"

var (
	// ErrNoPrimaryKey is returned when a resolution without a primary key is used to store or restore data.
	ErrNoPrimaryKey = zerr.New("no primary cache key")

	// ErrUnknownStoreKind is returned when the configured store kind has no backend.
	ErrUnknownStoreKind = zerr.New("unknown store kind")

	// ErrUnsafeArchivePath is returned when an archive entry would be written outside the target directory.
	ErrUnsafeArchivePath = zerr.New("unsafe archive path")

	// ErrDatasetVersionNotFound is returned when the dataset probe output carries no version.
	ErrDatasetVersionNotFound = zerr.New("dataset version not found")

	// ErrNoDirectory is returned when the directory to save does not exist.
	ErrNoDirectory = zerr.New("cache directory does not exist")

	// ErrNotRestored reports that no restore record exists for the primary key.
	// Save logs it as a warning and proceeds unconditionally.
	ErrNotRestored = zerr.New("no restore record for primary key")

	// ErrInvalidFormat is returned when an unknown output format is requested.
	ErrInvalidFormat = zerr.New("invalid output format")
)
