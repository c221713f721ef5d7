// Package pathutil resolves target-relative output paths against a
// configured working directory, following the teacher's cache.Path shape:
// a pure join-then-absolute computation that never touches the filesystem
// and does not require the target to exist.
package pathutil

import "path/filepath"

// Resolve joins rel against workingDir and returns the absolute, cleaned
// path. If rel is already absolute, it is returned cleaned and unchanged
// relative to workingDir.
func Resolve(workingDir, rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Clean(filepath.Join(workingDir, rel))
}
