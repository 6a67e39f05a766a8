package domain

// Store kinds understood by the store opener.
const (
	StoreKindLocal = "local"
	StoreKindS3    = "s3"
)

// Config is the operator configuration of a stash run.
type Config struct {
	CacheVersion string
	Path         string
	StatePath    string
	Store        StoreConfig
	Dataset      DatasetConfig
}

// StoreConfig selects and configures the blob store.
type StoreConfig struct {
	Kind  string
	Local LocalStoreConfig
	S3    S3StoreConfig
}

// LocalStoreConfig configures the on-disk store.
type LocalStoreConfig struct {
	Dir string
}

// S3StoreConfig configures the S3 store.
type S3StoreConfig struct {
	Bucket   string
	Prefix   string
	Region   string
	Profile  string
	Endpoint string
}

// DatasetConfig describes how to ask the dataset package for its version.
type DatasetConfig struct {
	Command       []string
	FullKey       string
	MajorMinorKey string
}
