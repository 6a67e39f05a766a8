package domain

import "time"

// HitKind describes how a restore lookup was satisfied.
type HitKind string

const (
	// HitMiss means none of the keys matched.
	HitMiss HitKind = "miss"
	// HitExact means the primary key matched.
	HitExact HitKind = "exact"
	// HitPartial means the same-day key matched.
	HitPartial HitKind = "partial"
	// HitBroad means only the same-epoch key matched.
	HitBroad HitKind = "broad"
)

// Signal returns the value published to later pipeline steps.
// Fallback hits are reported as "inexact".
func (h HitKind) Signal() string {
	switch h {
	case HitExact:
		return "true"
	case HitPartial, HitBroad:
		return "inexact"
	default:
		return "false"
	}
}

// Restored reports whether any data was restored.
func (h HitKind) Restored() bool {
	return h == HitExact || h == HitPartial || h == HitBroad
}

// Entry describes a blob held by a cache store.
type Entry struct {
	Key     string    `json:"key"`
	Digest  string    `json:"digest,omitzero"`
	Size    int64     `json:"size,omitzero"`
	Created time.Time `json:"created,omitzero"`
}

// RestoreRecord is written by a restore step and read by the save step of the same run.
type RestoreRecord struct {
	Primary     string    `json:"primary"`
	Matched     string    `json:"matched,omitzero"`
	Hit         HitKind   `json:"hit"`
	Fingerprint string    `json:"fingerprint,omitzero"`
	RestoredAt  time.Time `json:"restored_at,omitzero"`
}

// RestoreResult is the outcome of a restore.
type RestoreResult struct {
	Resolution Resolution
	Hit        HitKind
	Entry      *Entry
}

// SaveResult is the outcome of a save.
type SaveResult struct {
	Key     CacheKey
	Skipped bool
	Entry   *Entry
}
