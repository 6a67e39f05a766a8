// Package local implements a blob store on the local filesystem.
//
// Entries are indexed in a bbolt database keyed by cache key; blob contents
// live next to it, addressed by their digest, so entries sharing content share
// a file.
package local

import (
	"bytes"
	"context"
	_ "crypto/sha256" // registers digest.SHA256
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/opencontainers/go-digest"
	"go.etcd.io/bbolt"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	indexFile  = "index.db"
	blobsDir   = "blobs"
	bucketName = "entries"
)

var _ ports.BlobStore = (*Store)(nil)

// Store implements ports.BlobStore on a directory.
type Store struct {
	root  string
	db    *bbolt.DB
	clock clockwork.Clock
}

// NewStore opens (creating if needed) the store rooted at dir.
func NewStore(dir string, clock clockwork.Clock) (*Store, error) {
	root := filepath.Clean(dir)
	if err := os.MkdirAll(filepath.Join(root, blobsDir), 0o750); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create store directory"), "dir", root)
	}

	db, err := bbolt.Open(filepath.Join(root, indexFile), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open store index"), "dir", root)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, zerr.Wrap(err, "failed to create store bucket")
	}

	return &Store{root: root, db: db, clock: clock}, nil
}

// Close closes the index database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup implements ports.BlobStore.
func (s *Store) Lookup(_ context.Context, key domain.CacheKey, exact bool) (*domain.Entry, error) {
	var found *domain.Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		if exact {
			data := b.Get([]byte(key.String()))
			if data == nil {
				return nil
			}
			var entry domain.Entry
			if err := json.Unmarshal(data, &entry); err != nil {
				return err
			}
			found = &entry
			return nil
		}

		prefix := []byte(key.String())
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if !domain.ParseCacheKey(string(k)).HasPrefix(key) {
				continue
			}
			var entry domain.Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			if found == nil || entry.Created.After(found.Created) {
				found = &entry
			}
		}
		return nil
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read store index"), "key", key.String())
	}
	return found, nil
}

// Open implements ports.BlobStore. The content is verified against the
// entry digest when the reader reaches EOF.
func (s *Store) Open(_ context.Context, entry domain.Entry) (io.ReadCloser, error) {
	d, err := digest.Parse(entry.Digest)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid entry digest"), "key", entry.Key)
	}

	f, err := os.Open(s.blobPath(d))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open blob"), "digest", d.String())
	}

	return &verifyingReader{f: f, verifier: d.Verifier(), digest: d}, nil
}

// Put implements ports.BlobStore.
func (s *Store) Put(_ context.Context, key domain.CacheKey, r io.Reader) (*domain.Entry, error) {
	tmp, err := os.CreateTemp(filepath.Join(s.root, blobsDir), ".upload-*")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create blob file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Already renamed on success

	digester := digest.Canonical.Digester()
	size, err := io.Copy(io.MultiWriter(tmp, digester.Hash()), r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to write blob"), "key", key.String())
	}

	d := digester.Digest()
	dst := s.blobPath(d)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return nil, zerr.Wrap(err, "failed to create blob directory")
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, zerr.Wrap(err, "failed to move blob into place")
	}

	entry := domain.Entry{
		Key:     key.String(),
		Digest:  d.String(),
		Size:    size,
		Created: s.clock.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to marshal entry")
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(entry.Key), data)
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to update store index"), "key", entry.Key)
	}

	return &entry, nil
}

func (s *Store) blobPath(d digest.Digest) string {
	return filepath.Join(s.root, blobsDir, d.Algorithm().String(), d.Encoded())
}

type verifyingReader struct {
	f        *os.File
	verifier digest.Verifier
	digest   digest.Digest
}

func (r *verifyingReader) Read(p []byte) (int, error) {
	n, err := r.f.Read(p)
	_, _ = r.verifier.Write(p[:n])
	if err == io.EOF && !r.verifier.Verified() {
		return n, zerr.With(zerr.New("blob content does not match digest"), "digest", r.digest.String())
	}
	return n, err
}

func (r *verifyingReader) Close() error {
	return r.f.Close()
}
