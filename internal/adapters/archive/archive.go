// Package archive packs directories into gzip-compressed tar streams and back.
package archive

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Archiver = (*TarGz)(nil)

// TarGz implements ports.Archiver with tar and gzip.
type TarGz struct {
	level int
}

// NewTarGz creates an archiver compressing at the given gzip level.
func NewTarGz(level int) *TarGz {
	return &TarGz{level: level}
}

// Pack writes the contents of dir to w. Entry names are relative to dir and
// emitted in lexical order.
func (a *TarGz) Pack(ctx context.Context, dir string, w io.Writer) (err error) {
	gz, err := gzip.NewWriterLevel(w, a.level)
	if err != nil {
		return zerr.Wrap(err, "failed to create gzip writer")
	}
	tw := tar.NewWriter(gz)
	defer func() {
		err = errors.Join(err, tw.Close(), gz.Close())
	}()

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return zerr.With(zerr.Wrap(walkErr, "failed to walk directory"), "path", path)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return zerr.Wrap(err, "failed to compute relative path")
		}
		if rel == "." {
			return nil
		}

		return addEntry(tw, path, filepath.ToSlash(rel), d)
	})
}

func addEntry(tw *tar.Writer, path, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read symlink"), "path", path)
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to build tar header"), "path", path)
	}
	hdr.Name = name
	if d.IsDir() {
		hdr.Name += "/"
	}
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""

	if err := tw.WriteHeader(hdr); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write tar header"), "path", path)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to archive file"), "path", path)
	}
	return nil
}

// Unpack extracts the archive read from r into dir, creating it if needed.
// Entries that would land outside dir are rejected.
func (a *TarGz) Unpack(ctx context.Context, r io.Reader, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "dir", dir)
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return zerr.Wrap(err, "failed to open gzip stream")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return zerr.Wrap(err, "failed to read archive")
		}

		target, err := safeJoin(dir, hdr.Name)
		if err != nil {
			return err
		}
		if err := walkInside(dir, dir, hdr.Name); err != nil {
			return err
		}

		if err := extract(tr, hdr, target); err != nil {
			return zerr.With(err, "entry", hdr.Name)
		}
	}
}

func extract(tr *tar.Reader, hdr *tar.Header, target string) error {
	switch hdr.Typeflag {
	case tar.TypeDir:
		if info, err := os.Lstat(target); err == nil && info.Mode()&fs.ModeSymlink != 0 {
			return zerr.Wrap(domain.ErrUnsafeArchivePath, "directory entry over symlink")
		}
		if err := os.MkdirAll(target, 0o750); err != nil {
			return zerr.Wrap(err, "failed to create directory")
		}
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return zerr.Wrap(err, "failed to create parent directory")
		}
		if info, err := os.Lstat(target); err == nil && info.Mode()&fs.ModeSymlink != 0 {
			if err := os.Remove(target); err != nil {
				return zerr.Wrap(err, "failed to replace symlink")
			}
		}
		f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fs.FileMode(hdr.Mode)&fs.ModePerm)
		if err != nil {
			return zerr.Wrap(err, "failed to create file")
		}
		_, copyErr := io.Copy(f, tr)
		if err := errors.Join(copyErr, f.Close()); err != nil {
			return zerr.Wrap(err, "failed to write file")
		}
		if !hdr.ModTime.IsZero() {
			_ = os.Chtimes(target, hdr.ModTime, hdr.ModTime)
		}
	case tar.TypeSymlink:
		if filepath.IsAbs(hdr.Linkname) {
			return zerr.With(zerr.Wrap(domain.ErrUnsafeArchivePath, "absolute symlink in archive"), "link", hdr.Linkname)
		}
		if _, err := safeJoin(filepath.Dir(target), hdr.Linkname); err != nil {
			return err
		}
		if err := walkInside(dir, filepath.Dir(target), hdr.Linkname); err != nil {
			return err
		}
		_ = os.Remove(target)
		if err := os.Symlink(hdr.Linkname, target); err != nil {
			return zerr.Wrap(err, "failed to create symlink")
		}
	}
	// Other entry types (devices, fifos) are skipped.
	return nil
}

// safeJoin joins name to dir and rejects results that escape dir.
func safeJoin(dir, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", zerr.With(zerr.Wrap(domain.ErrUnsafeArchivePath, "absolute path in archive"), "name", name)
	}
	target := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", zerr.With(zerr.Wrap(domain.ErrUnsafeArchivePath, "path escapes target directory"), "name", name)
	}
	return target, nil
}

// walkInside follows name from base one element at a time. Every step must stay
// within dir, and no element before the last may be an existing symlink.
func walkInside(dir, base, name string) error {
	parts := strings.Split(strings.TrimRight(filepath.ToSlash(name), "/"), "/")
	cur := base
	exists := true
	for i, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
		default:
			cur = filepath.Join(cur, part)
		}
		if !within(dir, cur) {
			return zerr.With(zerr.Wrap(domain.ErrUnsafeArchivePath, "path escapes target directory"), "name", name)
		}
		if i == len(parts)-1 || !exists {
			continue
		}

		info, err := os.Lstat(cur)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			exists = false
		case err != nil:
			return zerr.With(zerr.Wrap(err, "failed to stat path"), "path", cur)
		case info.Mode()&fs.ModeSymlink != 0:
			return zerr.With(zerr.Wrap(domain.ErrUnsafeArchivePath, "path traverses symlink"), "name", name)
		}
	}
	return nil
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
