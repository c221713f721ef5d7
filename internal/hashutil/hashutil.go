// Package hashutil provides the stable content-addressing primitives shared
// across the catalog model: URL hashing for uuids and filename sanitization
// for STRM/M3U output paths.
package hashutil

import (
	"crypto/sha256"
	"strings"
	"unicode"
)

// HashString returns a deterministic, collision-resistant 256-bit digest of
// s. Used as the content-address uuid for a catalog item, keyed by its
// stream URL; bytewise stable across runs and platforms.
func HashString(s string) [32]byte {
	return sha256.Sum256([]byte(s))
}

// SanitizeFilename retains ASCII alphanumerics, underscore and hyphen;
// every other byte is replaced with '_'.
func SanitizeFilename(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// SanitizeForPath retains ASCII alphanumerics and whitespace only; every
// other character is dropped (not replaced). If underscoreWhitespace is set,
// each whitespace character is replaced with '_'. This is the STRM/M3U path
// sanitizer, distinct from SanitizeFilename's stricter underscore-everything
// rule used for filenames derived from arbitrary strings elsewhere.
func SanitizeForPath(s string, underscoreWhitespace bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			if underscoreWhitespace {
				b.WriteByte('_')
			} else {
				b.WriteRune(r)
			}
		default:
			// dropped
		}
	}
	return b.String()
}
