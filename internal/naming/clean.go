package naming

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTagPattern       = regexp.MustCompile(`<[^>]+>`)
	separatorRunPattern  = regexp.MustCompile(`[._]+`)
	markupTokenPattern   = regexp.MustCompile(`(?i)\b(?:b|br|i|span|div)\b`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
	dottedExtPattern     = regexp.MustCompile(`(?i)\.(mkv|m2ts|mpls|iso)\s*$`)
	bareExtPattern       = regexp.MustCompile(`(?i)\s+(mkv|m2ts|mpls|iso)\s*$`)
	titleMarkerPattern   = regexp.MustCompile(`\b[tT]\d{1,3}\b`)
	episodeMarkerPattern = regexp.MustCompile(`\b[Ss]\d{1,2}[Ee]\d{1,2}\b`)
	codecTokenPattern    = regexp.MustCompile(`(?i)\b(?:\d{3,4}p|720p|1080p|2160p|HD|SD|x264|x265|HEVC)\b`)
	suffixSplitPattern   = regexp.MustCompile(`\s+-\s+`)
	punctRunPattern      = regexp.MustCompile(`[_\-]{2,}`)
	markupOnlyPattern    = regexp.MustCompile(`(?i)^(?:b|br|i|span|div)(?:\s+(?:b|br|i|span|div))*$`)
)

// Clean normalizes a raw metadata string into a plausible title. Markup,
// separator runs, container extensions, per-title markers, episode and
// codec tokens, and trailing " - extra info" suffixes are stripped. Returns
// the empty string when nothing title-like survives. Clean is idempotent.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"`)
	if s == "" {
		return ""
	}

	// Markup goes first so entity-decoded text is normalized like the rest.
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)

	// Normalize separators early so later token patterns match reliably.
	s = separatorRunPattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	s = markupTokenPattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))

	low := strings.ToLower(s)
	if s == "" || strings.Contains(low, "title information") || strings.Contains(low, "source information") {
		return ""
	}

	s = dottedExtPattern.ReplaceAllString(s, "")
	s = bareExtPattern.ReplaceAllString(s, "")
	s = titleMarkerPattern.ReplaceAllString(s, "")
	s = episodeMarkerPattern.ReplaceAllString(s, "")
	s = codecTokenPattern.ReplaceAllString(s, "")

	// Drop trailing "extra info" after a spaced hyphen separator.
	if parts := suffixSplitPattern.Split(s, 2); len(parts) > 0 {
		s = parts[0]
	}

	s = punctRunPattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
	s = strings.Trim(s, " _-")

	if markupOnlyPattern.MatchString(s) {
		return ""
	}
	return s
}
