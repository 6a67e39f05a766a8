package domain

import (
	"slices"
	"strings"
)

// KeyDelimiter separates the fields of a CacheKey in its string form.
// None of the key inputs (version numbers, week labels, dates) contain it.
const KeyDelimiter = "|"

// CacheKey is an ordered, immutable list of key fields.
type CacheKey struct {
	fields []string
}

// NewCacheKey creates a CacheKey from the given fields. Fields are used verbatim.
func NewCacheKey(fields ...string) CacheKey {
	return CacheKey{fields: slices.Clone(fields)}
}

// ParseCacheKey splits the string form of a key back into its fields.
func ParseCacheKey(s string) CacheKey {
	if s == "" {
		return CacheKey{}
	}
	return CacheKey{fields: strings.Split(s, KeyDelimiter)}
}

// String joins the fields with KeyDelimiter.
func (k CacheKey) String() string {
	return strings.Join(k.fields, KeyDelimiter)
}

// Fields returns a copy of the key fields.
func (k CacheKey) Fields() []string {
	return slices.Clone(k.fields)
}

// Len returns the number of fields.
func (k CacheKey) Len() int {
	return len(k.fields)
}

// IsZero reports whether the key has no fields.
func (k CacheKey) IsZero() bool {
	return len(k.fields) == 0
}

// Parent returns the key without its trailing field.
// The parent of an empty key is the empty key.
func (k CacheKey) Parent() CacheKey {
	if len(k.fields) == 0 {
		return CacheKey{}
	}
	return CacheKey{fields: slices.Clone(k.fields[:len(k.fields)-1])}
}

// HasPrefix reports whether prefix matches the leading fields of k.
// The comparison is field-wise: "2.4" is not a prefix of "2.41".
func (k CacheKey) HasPrefix(prefix CacheKey) bool {
	if len(prefix.fields) > len(k.fields) {
		return false
	}
	return slices.Equal(k.fields[:len(prefix.fields)], prefix.fields)
}

// Equal reports whether both keys have the same fields.
func (k CacheKey) Equal(other CacheKey) bool {
	return slices.Equal(k.fields, other.fields)
}

// MarshalText implements encoding.TextMarshaler.
func (k CacheKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *CacheKey) UnmarshalText(text []byte) error {
	*k = ParseCacheKey(string(text))
	return nil
}
