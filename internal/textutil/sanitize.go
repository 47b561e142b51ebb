package textutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// fileNameReplacer substitutes filesystem-unsafe characters with underscores.
var fileNameReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// SanitizeFileName replaces filesystem-unsafe characters in a name so it can
// be used as a path segment. Empty input yields an empty string.
func SanitizeFileName(name string) string {
	return fileNameReplacer.Replace(name)
}

var (
	idStripPattern    = regexp.MustCompile(`[^\w\s-]`)
	idCollapsePattern = regexp.MustCompile(`[\s_-]+`)
)

// NormalizeID converts a title into a lowercase alnum-and-dash identifier
// suitable for manifest set ids. Returns "untitled" when nothing survives.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	s = idStripPattern.ReplaceAllString(s, "")
	s = idCollapsePattern.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	s = strings.ToLower(s)
	if s == "" {
		return "untitled"
	}
	return s
}

// NextAvailablePath returns the first path of the form name+ext,
// name (1)+ext, name (2)+ext ... that does not already exist in dir.
func NextAvailablePath(dir, name, ext string) string {
	full := filepath.Join(dir, name+ext)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(full); err != nil {
			return full
		}
		full = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", name, counter, ext))
	}
}
