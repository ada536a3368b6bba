package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Runs of two or more dots
	dotRuns = regexp.MustCompile(`\.{2,}`)
	// Anything outside the portable file name alphabet
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._\- ]`)
)

// MakeSafe strips a file name down to characters that are safe to store on disk.
// Dot runs are removed, characters outside [A-Za-z0-9._- ] are dropped, a leading
// dot is removed and surrounding whitespace is trimmed.
func MakeSafe(name string) string {
	name = dotRuns.ReplaceAllString(name, "")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimPrefix(name, ".")
	return strings.TrimSpace(name)
}

// Extension returns the lower-cased text after the last dot, or "" if there is none.
func Extension(name string) string {
	base := filepath.Base(name)
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}

// StripExtension returns the base name without its last extension.
func StripExtension(name string) string {
	base := filepath.Base(name)
	if i := strings.LastIndex(base, "."); i > 0 {
		return base[:i]
	}
	return base
}
