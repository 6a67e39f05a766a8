package config

// Stashfile represents the structure of the stash.yaml configuration file.
type Stashfile struct {
	Version      string     `yaml:"version"`
	CacheVersion string     `yaml:"cache_version"`
	Path         string     `yaml:"path"`
	State        string     `yaml:"state"`
	Store        StoreDTO   `yaml:"store"`
	Dataset      DatasetDTO `yaml:"dataset"`
}

// StoreDTO represents the blob store section.
type StoreDTO struct {
	Kind  string        `yaml:"kind"`
	Local LocalStoreDTO `yaml:"local"`
	S3    S3StoreDTO    `yaml:"s3"`
}

// LocalStoreDTO represents the on-disk store settings.
type LocalStoreDTO struct {
	Dir string `yaml:"dir"`
}

// S3StoreDTO represents the S3 store settings.
type S3StoreDTO struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Profile  string `yaml:"profile"`
	Endpoint string `yaml:"endpoint"`
}

// DatasetDTO represents the dataset introspection settings.
type DatasetDTO struct {
	Command       []string `yaml:"command"`
	FullKey       string   `yaml:"full_key"`
	MajorMinorKey string   `yaml:"major_minor_key"`
}
