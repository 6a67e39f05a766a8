package domain

// keyNamespace is the leading field of every regression-data key.
const keyNamespace = "data"

// Resolution is the primary key of a run and its restore keys in priority order.
type Resolution struct {
	Inputs  KeyInputs
	Primary CacheKey
	Restore []CacheKey
}

// Resolve builds the primary key and its two restore keys.
//
// The primary key is data, CacheVersion-CurrentWeek, DatasetVersion, TodayISO,
// DatasetVersionFull. Each restore key drops one trailing field of the
// previous one.
func Resolve(in KeyInputs) Resolution {
	primary := NewCacheKey(
		keyNamespace,
		in.CacheVersion+"-"+in.CurrentWeek,
		in.DatasetVersion,
		in.TodayISO,
		in.DatasetVersionFull,
	)
	sameDay := primary.Parent()
	sameEpoch := sameDay.Parent()

	return Resolution{
		Inputs:  in,
		Primary: primary,
		Restore: []CacheKey{sameDay, sameEpoch},
	}
}

// Keys returns every lookup key, most specific first.
func (r Resolution) Keys() []CacheKey {
	keys := make([]CacheKey, 0, 1+len(r.Restore))
	keys = append(keys, r.Primary)
	return append(keys, r.Restore...)
}

// HitFor classifies a lookup that succeeded at position i of Keys.
func (r Resolution) HitFor(i int) HitKind {
	switch i {
	case 0:
		return HitExact
	case 1:
		return HitPartial
	case 2:
		return HitBroad
	default:
		return HitMiss
	}
}
