package local_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stash/internal/adapters/local"
	"go.trai.ch/stash/internal/core/domain"
)

func newStore(t *testing.T) (*local.Store, *clockwork.FakeClock, string) {
	t.Helper()
	dir := t.TempDir()
	clock := clockwork.NewFakeClockAt(time.Date(2020, time.November, 10, 0, 0, 0, 0, time.UTC))
	store, err := local.NewStore(dir, clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, clock, dir
}

func readAll(t *testing.T, store *local.Store, entry *domain.Entry) string {
	t.Helper()
	rc, err := store.Open(context.Background(), *entry)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestStore_PutLookupExact(t *testing.T) {
	store, _, _ := newStore(t)
	ctx := context.Background()
	key := domain.ParseCacheKey("data|1-W46|2.4|20201110|2.4.3")

	put, err := store.Put(ctx, key, strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), put.Size)
	assert.True(t, strings.HasPrefix(put.Digest, "sha256:"))

	got, err := store.Lookup(ctx, key, true)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, key.String(), got.Key)
	assert.Equal(t, "payload", readAll(t, store, got))
}

func TestStore_LookupMiss(t *testing.T) {
	store, _, _ := newStore(t)

	got, err := store.Lookup(context.Background(), domain.ParseCacheKey("data|1-W46"), false)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_PrefixLookupPicksNewest(t *testing.T) {
	store, clock, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, domain.ParseCacheKey("data|1-W46|2.4|20201109|2.4.2"), strings.NewReader("monday"))
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)
	_, err = store.Put(ctx, domain.ParseCacheKey("data|1-W46|2.4|20201110|2.4.3"), strings.NewReader("tuesday"))
	require.NoError(t, err)
	_, err = store.Put(ctx, domain.ParseCacheKey("data|1-W46|2.41|20201111|2.41.0"), strings.NewReader("other"))
	require.NoError(t, err)

	got, err := store.Lookup(ctx, domain.ParseCacheKey("data|1-W46|2.4"), false)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tuesday", readAll(t, store, got))

	got, err = store.Lookup(ctx, domain.ParseCacheKey("data|1-W46|2.4|20201109"), false)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "monday", readAll(t, store, got))

	got, err = store.Lookup(ctx, domain.ParseCacheKey("data|1-W46|2.4|20201109"), true)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_PutReplaces(t *testing.T) {
	store, clock, _ := newStore(t)
	ctx := context.Background()
	key := domain.ParseCacheKey("data|1-W46|2.4|20201110|2.4.3")

	_, err := store.Put(ctx, key, strings.NewReader("old"))
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = store.Put(ctx, key, strings.NewReader("new"))
	require.NoError(t, err)

	got, err := store.Lookup(ctx, key, true)
	require.NoError(t, err)
	assert.Equal(t, "new", readAll(t, store, got))
}

func TestStore_DetectsCorruption(t *testing.T) {
	store, _, dir := newStore(t)
	ctx := context.Background()
	key := domain.ParseCacheKey("data|1-W46")

	entry, err := store.Put(ctx, key, strings.NewReader("payload"))
	require.NoError(t, err)

	encoded := strings.TrimPrefix(entry.Digest, "sha256:")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blobs", "sha256", encoded), []byte("tampered"), 0o600))

	rc, err := store.Open(ctx, *entry)
	require.NoError(t, err)
	defer rc.Close()

	_, err = io.ReadAll(rc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match digest")
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	clock := clockwork.NewFakeClock()
	ctx := context.Background()
	key := domain.ParseCacheKey("data|1-W46")

	first, err := local.NewStore(dir, clock)
	require.NoError(t, err)
	_, err = first.Put(ctx, key, strings.NewReader("kept"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := local.NewStore(dir, clock)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Lookup(ctx, key, true)
	require.NoError(t, err)
	require.NotNil(t, got)
}
