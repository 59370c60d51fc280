package docgroup

import (
	"path/filepath"
	"strings"
)

// resolveUnderRoot resolves p (relative paths are taken relative to root)
// and reports whether the cleaned absolute path stays inside root. It
// returns the absolute path, the root-relative path in slash form, and the
// containment verdict. Lexical containment is checked after Clean, so ".."
// segments cannot escape; symlinks inside the root are the operator's
// responsibility.
func resolveUnderRoot(root, p string) (abs, rel string, ok bool) {
	if p == "" {
		return "", "", false
	}
	abs = p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, abs)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return abs, "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs, filepath.ToSlash(rel), false
	}
	return abs, filepath.ToSlash(rel), true
}
