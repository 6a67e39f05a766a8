package cacher_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports/mocks"
	"go.trai.ch/stash/internal/engine/cacher"
	"go.uber.org/mock/gomock"
)

var now = time.Date(2020, time.November, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	archiver      *mocks.MockArchiver
	fingerprinter *mocks.MockFingerprinter
	logger        *mocks.MockLogger
	blobs         *mocks.MockBlobStore
	state         *mocks.MockStateStore
	cacher        *cacher.Cacher
	res           domain.Resolution
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		archiver:      mocks.NewMockArchiver(ctrl),
		fingerprinter: mocks.NewMockFingerprinter(ctrl),
		logger:        mocks.NewMockLogger(ctrl),
		blobs:         mocks.NewMockBlobStore(ctrl),
		state:         mocks.NewMockStateStore(ctrl),
		res: domain.Resolve(domain.KeyInputs{
			CacheVersion:       "20201102",
			CurrentWeek:        "W46",
			DatasetVersion:     "2.4",
			TodayISO:           "20201110",
			DatasetVersionFull: "2.4.3",
		}),
	}
	f.cacher = cacher.NewCacher(f.archiver, f.fingerprinter, f.logger, clockwork.NewFakeClockAt(now))
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	return f
}

func (f *fixture) expectUnpack(entry *domain.Entry, dir string) {
	f.blobs.EXPECT().Open(gomock.Any(), *entry).Return(io.NopCloser(strings.NewReader("archive")), nil)
	f.archiver.EXPECT().Unpack(gomock.Any(), gomock.Any(), dir).Return(nil)
	f.fingerprinter.EXPECT().Fingerprint(dir).Return("fp", nil)
}

func TestCacher_Restore(t *testing.T) {
	tests := []struct {
		name    string
		matchAt int
		want    domain.HitKind
	}{
		{name: "exact", matchAt: 0, want: domain.HitExact},
		{name: "same day", matchAt: 1, want: domain.HitPartial},
		{name: "same epoch", matchAt: 2, want: domain.HitBroad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			dir := t.TempDir()
			keys := f.res.Keys()
			entry := &domain.Entry{Key: keys[tt.matchAt].String() + "|x", Digest: "sha256:abc"}

			var calls []any
			for i := 0; i < tt.matchAt; i++ {
				calls = append(calls, f.blobs.EXPECT().Lookup(gomock.Any(), keys[i], i == 0).Return(nil, nil))
			}
			calls = append(calls, f.blobs.EXPECT().Lookup(gomock.Any(), keys[tt.matchAt], tt.matchAt == 0).Return(entry, nil))
			gomock.InOrder(calls...)

			f.expectUnpack(entry, dir)
			f.state.EXPECT().Put(domain.RestoreRecord{
				Primary:     f.res.Primary.String(),
				Matched:     entry.Key,
				Hit:         tt.want,
				Fingerprint: "fp",
				RestoredAt:  now,
			}).Return(nil)

			result, err := f.cacher.Restore(context.Background(), f.res, dir, f.blobs, f.state)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Hit)
			assert.Equal(t, entry, result.Entry)
		})
	}
}

func TestCacher_RestoreMiss(t *testing.T) {
	f := newFixture(t)
	keys := f.res.Keys()

	gomock.InOrder(
		f.blobs.EXPECT().Lookup(gomock.Any(), keys[0], true).Return(nil, nil),
		f.blobs.EXPECT().Lookup(gomock.Any(), keys[1], false).Return(nil, nil),
		f.blobs.EXPECT().Lookup(gomock.Any(), keys[2], false).Return(nil, nil),
	)
	f.state.EXPECT().Put(domain.RestoreRecord{
		Primary:    f.res.Primary.String(),
		Hit:        domain.HitMiss,
		RestoredAt: now,
	}).Return(nil)

	result, err := f.cacher.Restore(context.Background(), f.res, t.TempDir(), f.blobs, f.state)
	require.NoError(t, err)
	assert.Equal(t, domain.HitMiss, result.Hit)
	assert.Nil(t, result.Entry)
	assert.Equal(t, "false", result.Hit.Signal())
}

func TestCacher_RestoreLookupError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("store unavailable")
	f.blobs.EXPECT().Lookup(gomock.Any(), f.res.Primary, true).Return(nil, boom)

	_, err := f.cacher.Restore(context.Background(), f.res, t.TempDir(), f.blobs, f.state)
	require.ErrorIs(t, err, boom)
}

func TestCacher_RestoreUnpackError(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	entry := &domain.Entry{Key: f.res.Primary.String()}
	boom := errors.New("corrupt archive")

	f.blobs.EXPECT().Lookup(gomock.Any(), f.res.Primary, true).Return(entry, nil)
	f.blobs.EXPECT().Open(gomock.Any(), *entry).Return(io.NopCloser(strings.NewReader("x")), nil)
	f.archiver.EXPECT().Unpack(gomock.Any(), gomock.Any(), dir).Return(boom)

	_, err := f.cacher.Restore(context.Background(), f.res, dir, f.blobs, f.state)
	require.ErrorIs(t, err, boom)
}

func TestCacher_RestoreNoPrimaryKey(t *testing.T) {
	f := newFixture(t)

	_, err := f.cacher.Restore(context.Background(), domain.Resolution{}, t.TempDir(), f.blobs, f.state)
	require.ErrorIs(t, err, domain.ErrNoPrimaryKey)
}

func (f *fixture) expectPut(t *testing.T, dir string) {
	t.Helper()
	f.archiver.EXPECT().Pack(gomock.Any(), dir, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, w io.Writer) error {
			_, err := io.WriteString(w, "archive")
			return err
		})
	f.blobs.EXPECT().Put(gomock.Any(), f.res.Primary, gomock.Any()).
		DoAndReturn(func(_ context.Context, key domain.CacheKey, r io.Reader) (*domain.Entry, error) {
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "archive", string(data))
			return &domain.Entry{Key: key.String(), Size: int64(len(data))}, nil
		})
	f.state.EXPECT().Put(domain.RestoreRecord{
		Primary:     f.res.Primary.String(),
		Matched:     f.res.Primary.String(),
		Hit:         domain.HitExact,
		Fingerprint: "fp",
		RestoredAt:  now,
	}).Return(nil)
}

func TestCacher_SaveSkipsUnchangedExactHit(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	f.state.EXPECT().Get(f.res.Primary.String()).Return(&domain.RestoreRecord{
		Primary:     f.res.Primary.String(),
		Hit:         domain.HitExact,
		Fingerprint: "fp",
	}, nil)
	f.fingerprinter.EXPECT().Fingerprint(dir).Return("fp", nil)

	result, err := f.cacher.Save(context.Background(), f.res, dir, f.blobs, f.state, false)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Nil(t, result.Entry)
}

func TestCacher_SaveWritesThrough(t *testing.T) {
	tests := []struct {
		name   string
		record *domain.RestoreRecord
		force  bool
	}{
		{
			name:   "fallback hit",
			record: &domain.RestoreRecord{Hit: domain.HitPartial, Fingerprint: "fp"},
		},
		{
			name:   "exact hit with changes",
			record: &domain.RestoreRecord{Hit: domain.HitExact, Fingerprint: "old"},
		},
		{
			name:   "miss",
			record: &domain.RestoreRecord{Hit: domain.HitMiss},
		},
		{
			name:   "forced",
			record: &domain.RestoreRecord{Hit: domain.HitExact, Fingerprint: "fp"},
			force:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			dir := t.TempDir()

			f.state.EXPECT().Get(f.res.Primary.String()).Return(tt.record, nil)
			f.fingerprinter.EXPECT().Fingerprint(dir).Return("fp", nil)
			f.expectPut(t, dir)

			result, err := f.cacher.Save(context.Background(), f.res, dir, f.blobs, f.state, tt.force)
			require.NoError(t, err)
			assert.False(t, result.Skipped)
			require.NotNil(t, result.Entry)
			assert.Equal(t, f.res.Primary.String(), result.Entry.Key)
		})
	}
}

func TestCacher_SaveWithoutRestoreRecord(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	f.state.EXPECT().Get(f.res.Primary.String()).Return(nil, nil)
	f.fingerprinter.EXPECT().Fingerprint(dir).Return("fp", nil)
	f.logger.EXPECT().Warn(gomock.Cond(func(msg string) bool {
		return strings.HasPrefix(msg, domain.ErrNotRestored.Error())
	}))
	f.expectPut(t, dir)

	result, err := f.cacher.Save(context.Background(), f.res, dir, f.blobs, f.state, false)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
}

func TestCacher_SaveMissingDirectory(t *testing.T) {
	f := newFixture(t)

	_, err := f.cacher.Save(context.Background(), f.res, filepath.Join(t.TempDir(), "missing"), f.blobs, f.state, false)
	require.ErrorIs(t, err, domain.ErrNoDirectory)
}

func TestCacher_SaveFileInsteadOfDirectory(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := f.cacher.Save(context.Background(), f.res, path, f.blobs, f.state, false)
	require.ErrorIs(t, err, domain.ErrNoDirectory)
}

func TestCacher_SavePutErrorUnblocksPacker(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	boom := errors.New("upload rejected")

	f.state.EXPECT().Get(f.res.Primary.String()).Return(&domain.RestoreRecord{Hit: domain.HitMiss}, nil)
	f.fingerprinter.EXPECT().Fingerprint(dir).Return("fp", nil)
	f.archiver.EXPECT().Pack(gomock.Any(), dir, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, w io.Writer) error {
			_, err := io.WriteString(w, strings.Repeat("x", 1<<20))
			return err
		})
	f.blobs.EXPECT().Put(gomock.Any(), f.res.Primary, gomock.Any()).Return(nil, boom)

	_, err := f.cacher.Save(context.Background(), f.res, dir, f.blobs, f.state, false)
	require.ErrorIs(t, err, boom)
}

func TestCacher_SavePackError(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	boom := errors.New("permission denied")

	f.state.EXPECT().Get(f.res.Primary.String()).Return(nil, nil)
	f.logger.EXPECT().Warn(gomock.Any())
	f.fingerprinter.EXPECT().Fingerprint(dir).Return("fp", nil)
	f.archiver.EXPECT().Pack(gomock.Any(), dir, gomock.Any()).Return(boom)
	f.blobs.EXPECT().Put(gomock.Any(), f.res.Primary, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.CacheKey, r io.Reader) (*domain.Entry, error) {
			_, err := io.ReadAll(r)
			return nil, err
		})

	_, err := f.cacher.Save(context.Background(), f.res, dir, f.blobs, f.state, false)
	require.ErrorIs(t, err, boom)
}
