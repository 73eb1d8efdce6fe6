package checker

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/mdlinkcheck/internal/model"
)

// Resolve maps a checked link target to a filesystem path.
//
// Absolute targets are joined onto the base directory without their leading
// "/", relative targets onto the directory of doc. The query string and
// fragment are dropped, a trailing "/" is kept, and the document extension
// is appended when only the extended name exists.
func (c *Checker) Resolve(doc model.Document, target string, kind model.LinkKind) string {
	target = stripQueryAndFragment(target)

	var resolved string
	if kind == model.LinkKindAbsolute {
		resolved = filepath.Join(c.baseDir, filepath.FromSlash(strings.TrimPrefix(target, "/")))
	} else {
		resolved = filepath.Join(filepath.Dir(doc.Path), filepath.FromSlash(target))
	}
	// Join drops a trailing slash, which must still fail for regular files.
	if strings.HasSuffix(target, "/") && !strings.HasSuffix(resolved, string(filepath.Separator)) {
		resolved += string(filepath.Separator)
	}

	if !strings.HasSuffix(resolved, c.extension) && !exists(resolved) && exists(resolved+c.extension) {
		resolved += c.extension
	}
	return resolved
}

// stripQueryAndFragment keeps the part of s before the first "?",
// then the part of that before the first "#".
func stripQueryAndFragment(s string) string {
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return s
}

// attemptedPath returns the form of a resolved path that goes into a
// record: relative to the base directory when the parent directory exists,
// unmodified otherwise.
func (c *Checker) attemptedPath(resolved string) string {
	if !exists(filepath.Dir(resolved)) {
		return resolved
	}
	rel, err := filepath.Rel(c.baseDir, resolved)
	if err != nil {
		return resolved
	}
	return rel
}

// exists reports whether path can be stat'ed.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
