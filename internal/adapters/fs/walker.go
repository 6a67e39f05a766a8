// Package fs provides file system adapters for walking and fingerprinting directories.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/zerr"
)

// Walker provides file walking functionality.
type Walker struct {
	ignores []string
}

// NewWalker creates a new Walker skipping entries whose base name matches one
// of the ignore patterns.
func NewWalker(ignores ...string) *Walker {
	return &Walker{ignores: ignores}
}

// WalkFiles yields every non-directory entry below root in lexical order, as a
// slash-separated path relative to root. A walk error is yielded once and ends
// the iteration.
func (w *Walker) WalkFiles(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := false
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return zerr.With(zerr.Wrap(err, "failed to walk directory"), "path", path)
			}

			if w.ignored(d.Name()) && path != root {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return zerr.Wrap(err, "failed to compute relative path")
			}

			if !yield(filepath.ToSlash(rel), nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield("", err)
		}
	}
}

func (w *Walker) ignored(name string) bool {
	for _, ignore := range w.ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
