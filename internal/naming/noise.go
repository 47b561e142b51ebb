package naming

import (
	"regexp"
	"strings"
)

// Labels longer than this are treated as hardware/vendor strings.
const maxPlausibleLabelLength = 40

var (
	hardwareTokenPattern = regexp.MustCompile(`(?i)(bd-?re|bd-r|bdrom|hl-dt-st|wh\d+[a-z0-9]*|dvd|usb|matshita|lite-on|plextor)`)

	scanTagPattern     = regexp.MustCompile(`(?i)^\s*(?:DRV|CINFO|TINFO)[:\s]*\d+\s*$`)
	clockPattern       = regexp.MustCompile(`^\d{1,2}:\d{2}(?::\d{2})?$`)
	longNumericPattern = regexp.MustCompile(`^[\d,\s]{5,}$`)
	chapterWordPattern = regexp.MustCompile(`(?i)\bchapters?\b`)
	chapterListPattern = regexp.MustCompile(`\(?\d+(?:,\d+)*\)?(?:[,\s]*\d+-\d+)+`)
	numericListPattern = regexp.MustCompile(`^[\d()\-,\s]+$`)
	sizeUnitPattern    = regexp.MustCompile(`(?i)\b(?:\d+(?:\.\d+)?\s*)?[gm]b\b`)
	extensionPattern   = regexp.MustCompile(`(?i)\.(mkv|m2ts|mpls|iso)$`)
	crypticCodePattern = regexp.MustCompile(`(?i)^[A-Z0-9_\-]{1,6}$`)
	shortAlnumPattern  = regexp.MustCompile(`^[0-9A-Za-z]{1,3}$`)
)

// IsHardwareLabel reports whether a string looks like an optical-drive or
// vendor label rather than disc content. Long strings are assumed to be
// hardware descriptions; vendor tokens match even when embedded
// (e.g. WH16NS60).
func IsHardwareLabel(s string) bool {
	if s == "" {
		return false
	}
	if len(s) > maxPlausibleLabelLength {
		return true
	}
	return hardwareTokenPattern.MatchString(s)
}

// IsNoisy reports whether a string is a technical artifact rather than a
// plausible title: scan-line tags, durations, byte counts, chapter lists,
// markup, size units, container extensions, cryptic short codes, or
// hardware labels. The empty string is noisy.
func IsNoisy(s string) bool {
	if s == "" {
		return true
	}
	trimmed := strings.TrimSpace(s)
	low := strings.ToLower(s)

	// Raw DRV/CINFO/TINFO tag tokens.
	if scanTagPattern.MatchString(s) {
		return true
	}
	// Clock-style durations ("2:30:15", "42:00").
	if clockPattern.MatchString(trimmed) {
		return true
	}
	// Long numeric values (file sizes, hashes). A bare 4-digit year stays
	// under the length floor and is deliberately not caught here.
	if longNumericPattern.MatchString(trimmed) {
		return true
	}
	// Chapter words and chapter/offset list shapes.
	if chapterWordPattern.MatchString(s) || chapterListPattern.MatchString(s) {
		return true
	}
	// Punctuation-heavy numeric lists.
	if numericListPattern.MatchString(trimmed) {
		return true
	}
	// Markup artifacts, raw or entity-escaped.
	if strings.ContainsAny(s, "<>") || strings.Contains(low, "&lt;") || strings.Contains(low, "&gt;") {
		return true
	}
	if strings.Contains(low, "title information") || strings.Contains(low, "source information") {
		return true
	}
	// Size units.
	if sizeUnitPattern.MatchString(s) {
		return true
	}
	// Container extensions.
	if extensionPattern.MatchString(s) {
		return true
	}
	// Short cryptic codes like "C9_t00".
	if crypticCodePattern.MatchString(s) && strings.Contains(s, "_") {
		return true
	}
	// Too short to be a title.
	if shortAlnumPattern.MatchString(s) {
		return true
	}
	return IsHardwareLabel(s)
}
