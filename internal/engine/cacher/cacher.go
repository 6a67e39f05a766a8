// Package cacher restores and saves a directory through a blob store using the
// keys of a resolution.
package cacher

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Cacher moves a directory between the workspace and a blob store.
type Cacher struct {
	archiver      ports.Archiver
	fingerprinter ports.Fingerprinter
	logger        ports.Logger
	clock         clockwork.Clock
}

// NewCacher creates a new Cacher.
func NewCacher(
	archiver ports.Archiver,
	fingerprinter ports.Fingerprinter,
	logger ports.Logger,
	clock clockwork.Clock,
) *Cacher {
	return &Cacher{
		archiver:      archiver,
		fingerprinter: fingerprinter,
		logger:        logger,
		clock:         clock,
	}
}

// Restore looks up the keys of res in priority order and unpacks the first
// match into dir. The primary key must match exactly; restore keys match the
// newest entry they prefix. The outcome is recorded in state for the save step.
// A total miss is not an error.
func (c *Cacher) Restore(
	ctx context.Context,
	res domain.Resolution,
	dir string,
	blobs ports.BlobStore,
	state ports.StateStore,
) (*domain.RestoreResult, error) {
	if res.Primary.IsZero() {
		return nil, domain.ErrNoPrimaryKey
	}

	result := &domain.RestoreResult{Resolution: res, Hit: domain.HitMiss}
	for i, key := range res.Keys() {
		entry, err := blobs.Lookup(ctx, key, i == 0)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			result.Hit = res.HitFor(i)
			result.Entry = entry
			break
		}
	}

	record := domain.RestoreRecord{
		Primary:    res.Primary.String(),
		Hit:        result.Hit,
		RestoredAt: c.clock.Now().UTC(),
	}

	if result.Entry == nil {
		c.logger.Info("cache miss for " + res.Primary.String())
	} else {
		if err := c.unpack(ctx, blobs, *result.Entry, dir); err != nil {
			return nil, err
		}

		fingerprint, err := c.fingerprinter.Fingerprint(dir)
		if err != nil {
			return nil, err
		}
		record.Matched = result.Entry.Key
		record.Fingerprint = fingerprint
		c.logger.Info("restored " + string(result.Hit) + " match " + result.Entry.Key)
	}

	if err := state.Put(record); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Cacher) unpack(ctx context.Context, blobs ports.BlobStore, entry domain.Entry, dir string) error {
	rc, err := blobs.Open(ctx, entry)
	if err != nil {
		return err
	}
	defer rc.Close() //nolint:errcheck // Read side only

	if err := c.archiver.Unpack(ctx, rc, dir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to unpack cache entry"), "key", entry.Key)
	}
	// Drain trailing bytes so the store can verify the whole blob.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read cache entry"), "key", entry.Key)
	}
	return nil
}

// Save packs dir and stores it under the primary key of res.
//
// The save is skipped when the restore step of this run hit the primary key
// exactly and the directory has not changed since, unless force is set.
func (c *Cacher) Save(
	ctx context.Context,
	res domain.Resolution,
	dir string,
	blobs ports.BlobStore,
	state ports.StateStore,
	force bool,
) (*domain.SaveResult, error) {
	if res.Primary.IsZero() {
		return nil, domain.ErrNoPrimaryKey
	}

	info, err := os.Stat(dir)
	if errors.Is(err, iofs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, zerr.With(zerr.Wrap(domain.ErrNoDirectory, "nothing to save"), "dir", dir)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to stat cache directory"), "dir", dir)
	}

	primary := res.Primary.String()
	record, err := state.Get(primary)
	if err != nil {
		return nil, err
	}

	fingerprint, err := c.fingerprinter.Fingerprint(dir)
	if err != nil {
		return nil, err
	}

	switch {
	case record == nil:
		c.logger.Warn(domain.ErrNotRestored.Error() + ", saving unconditionally")
	case force:
	case record.Hit == domain.HitExact && record.Fingerprint == fingerprint:
		c.logger.Info("cache entry " + primary + " is up to date, skipping save")
		return &domain.SaveResult{Key: res.Primary, Skipped: true}, nil
	}

	entry, err := c.put(ctx, res.Primary, dir, blobs)
	if err != nil {
		return nil, err
	}

	err = state.Put(domain.RestoreRecord{
		Primary:     primary,
		Matched:     primary,
		Hit:         domain.HitExact,
		Fingerprint: fingerprint,
		RestoredAt:  c.clock.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("saved cache entry " + primary)
	return &domain.SaveResult{Key: res.Primary, Entry: entry}, nil
}

// put streams the archive of dir into the store without buffering it in memory.
func (c *Cacher) put(ctx context.Context, key domain.CacheKey, dir string, blobs ports.BlobStore) (*domain.Entry, error) {
	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := c.archiver.Pack(gctx, dir, pw)
		_ = pw.CloseWithError(err)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to pack cache directory"), "dir", dir)
		}
		return nil
	})

	var entry *domain.Entry
	g.Go(func() error {
		var err error
		entry, err = blobs.Put(gctx, key, pr)
		// Unblock the packer if the store stopped reading early.
		_ = pr.CloseWithError(err)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entry, nil
}
