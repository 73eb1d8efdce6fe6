package checker

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/nao1215/mdlinkcheck/internal/model"
)

// Discover returns every document under the base directory in traversal order.
// Traversal is lexical within each directory. Subdirectories that cannot be
// read are logged and skipped; only a missing or unreadable base directory
// is an error.
func (c *Checker) Discover() ([]model.Document, error) {
	if err := CheckBaseDir(c.baseDir); err != nil {
		return nil, err
	}

	// A trailing separator makes WalkDir follow a symlinked base directory.
	root := c.baseDir
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}

	docs := make([]model.Document, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			c.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, excluded := c.excludeDirs[d.Name()]; excluded {
				c.logger.Debug("skipping excluded directory", "path", path)
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), c.extension) {
			return nil
		}

		docs = append(docs, model.Document{
			Path:    path,
			RelPath: c.relPath(path),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("discovered documents", "baseDir", c.baseDir, "count", len(docs))
	return docs, nil
}

// relPath returns path relative to the base directory, or path itself
// if no relative form exists.
func (c *Checker) relPath(path string) string {
	rel, err := filepath.Rel(c.baseDir, path)
	if err != nil {
		return path
	}
	return rel
}
