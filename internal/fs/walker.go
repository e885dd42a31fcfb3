// Package fs walks a directory tree and selects files by doublestar glob
// patterns.
package fs

import (
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker selects files under a root by include/exclude glob patterns, matched
// against slash-separated paths relative to the root.
type Walker struct {
	includes []string
	excludes []string
}

// NewWalker returns a Walker. An empty include list matches everything.
func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{includes: includes, excludes: excludes}
}

// File is a selected file.
type File struct {
	// Path is the absolute path.
	Path string
	// Rel is the slash-separated path relative to the walk root.
	Rel string
	// Size is the file size in bytes.
	Size int64
}

// Walk returns the files under root selected by the walker's patterns.
// Excluded directories are skipped without descending.
func (w *Walker) Walk(root string) ([]File, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && w.excluded(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.included(rel) || w.excluded(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, File{Path: path, Rel: rel, Size: info.Size()})
		return nil
	})
	return files, err
}

func (w *Walker) included(rel string) bool {
	for _, pattern := range w.includes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func (w *Walker) excluded(rel string) bool {
	for _, pattern := range w.excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
