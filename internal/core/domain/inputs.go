package domain

// Field identifies one of the key inputs.
type Field int

const (
	// FieldCacheVersion is the operator-set cache version.
	FieldCacheVersion Field = iota
	// FieldCurrentWeek is the week label of the build.
	FieldCurrentWeek
	// FieldDatasetVersion is the major.minor dataset version.
	FieldDatasetVersion
	// FieldTodayISO is the build date.
	FieldTodayISO
	// FieldDatasetVersionFull is the exact dataset version.
	FieldDatasetVersionFull
)

// AllFields lists the key inputs in key order.
var AllFields = []Field{
	FieldCacheVersion,
	FieldCurrentWeek,
	FieldDatasetVersion,
	FieldTodayISO,
	FieldDatasetVersionFull,
}

// EnvName returns the environment variable a pipeline uses to pass the field.
func (f Field) EnvName() string {
	switch f {
	case FieldCacheVersion:
		return "CACHE_VERSION"
	case FieldCurrentWeek:
		return "CURRENT_WEEK"
	case FieldDatasetVersion:
		return "DIALS_DATA_VERSION"
	case FieldTodayISO:
		return "TODAY_ISO"
	case FieldDatasetVersionFull:
		return "DIALS_DATA_VERSION_FULL"
	default:
		return ""
	}
}

func (f Field) String() string {
	return f.EnvName()
}

// KeyInputs holds the values a cache key is built from.
// Values are never validated; empty strings take part in the key as they are.
type KeyInputs struct {
	CacheVersion       string `json:"cache_version"`
	CurrentWeek        string `json:"current_week"`
	DatasetVersion     string `json:"dataset_version"`
	TodayISO           string `json:"today_iso"`
	DatasetVersionFull string `json:"dataset_version_full"`
}

// Get returns the value of the given field.
func (in KeyInputs) Get(f Field) string {
	switch f {
	case FieldCacheVersion:
		return in.CacheVersion
	case FieldCurrentWeek:
		return in.CurrentWeek
	case FieldDatasetVersion:
		return in.DatasetVersion
	case FieldTodayISO:
		return in.TodayISO
	case FieldDatasetVersionFull:
		return in.DatasetVersionFull
	default:
		return ""
	}
}

// Set returns a copy of in with the given field replaced.
func (in KeyInputs) Set(f Field, value string) KeyInputs {
	switch f {
	case FieldCacheVersion:
		in.CacheVersion = value
	case FieldCurrentWeek:
		in.CurrentWeek = value
	case FieldDatasetVersion:
		in.DatasetVersion = value
	case FieldTodayISO:
		in.TodayISO = value
	case FieldDatasetVersionFull:
		in.DatasetVersionFull = value
	}
	return in
}
