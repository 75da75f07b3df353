// Package security sanitises user supplied names before they reach the
// filesystem.
package security

import (
	"path/filepath"
	"strings"
)

// maxNameLen bounds names embedded into output file names.
const maxNameLen = 128

// SanitizeFilename makes a file name component from an arbitrary string.
// ASCII letters, digits, '.', '_' and '-' are kept; every other run of
// characters becomes a single underscore. Leading and trailing dots and
// underscores are trimmed, so the result never names a parent directory.
// An empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range s {
		if b.Len() >= maxNameLen {
			break
		}
		if isNameRune(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

// TrajectoryName derives the output name of a trajectory file: its base
// name without extension, sanitised.
func TrajectoryName(path string) string {
	base := filepath.Base(path)
	return SanitizeFilename(strings.TrimSuffix(base, filepath.Ext(base)))
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-':
		return true
	}
	return false
}
