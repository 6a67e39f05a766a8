package fs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Fingerprinter = (*Hasher)(nil)

// Hasher fingerprints directory trees with xxhash.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// Fingerprint hashes the relative path and content of every file below dir.
// Symlinks contribute their target rather than the linked content.
// A missing directory has an empty fingerprint.
func (h *Hasher) Fingerprint(dir string) (string, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, iofs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to stat directory"), "dir", dir)
	}
	if !info.IsDir() {
		return "", zerr.With(zerr.Wrap(domain.ErrNoDirectory, "cannot fingerprint a file"), "dir", dir)
	}

	hasher := xxhash.New()
	for rel, err := range h.walker.WalkFiles(dir) {
		if err != nil {
			return "", err
		}
		if err := h.hashEntry(filepath.Join(dir, filepath.FromSlash(rel)), rel, hasher); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

func (h *Hasher) hashEntry(path, rel string, hasher *xxhash.Digest) error {
	_, _ = hasher.WriteString(rel)
	_, _ = hasher.Write([]byte{0})

	info, err := os.Lstat(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
	}

	if info.Mode()&iofs.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read symlink"), "path", path)
		}
		_, _ = hasher.Write([]byte{'@'})
		_, _ = hasher.WriteString(target)
		_, _ = hasher.Write([]byte{0})
		return nil
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	hash, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}
	if err := binary.Write(hasher, binary.LittleEndian, hash); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}
