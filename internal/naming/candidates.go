package naming

import (
	"encoding/csv"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Source identifies which metadata channel produced a candidate string.
type Source string

const (
	SourceDiscInfo    Source = "cinfo"
	SourceTitleInfo   Source = "tinfo"
	SourceTitleParsed Source = "tinfo_parsed"
	SourceVolumeLabel Source = "label"
)

// Candidate pairs a raw metadata value with the channel it came from.
// Candidates carry uncleaned strings; cleaning happens during scoring.
type Candidate struct {
	Source Source
	Value  string
}

// ParsedTitle is the per-title view the orchestrator needs: the best
// human-readable name picked from the title's info fields and its runtime.
type ParsedTitle struct {
	Name    string
	Seconds int
}

// Per-title info fields tried first when picking a title name, ordered by
// how often they carry a descriptive name rather than duration/size data.
var titleFieldPriority = []int{27, 49, 30, 3}

// discInfoMirrorField is the per-title field that usually repeats the
// disc-level name; it is skipped during the fallback scan.
const discInfoMirrorField = 2

// PickTitleFromFields picks the best title string from one title's info
// field map. The priority fields are tried first; failing those, every
// remaining field except the disc-info mirror is scanned in ascending
// field order. Returns the empty string when no field yields a clean,
// non-noisy value.
func PickTitleFromFields(fields map[int]string) string {
	for _, id := range titleFieldPriority {
		value := fields[id]
		if value == "" {
			continue
		}
		if cand := Clean(value); cand != "" && !IsNoisy(cand) {
			return cand
		}
	}

	ids := make([]int, 0, len(fields))
	for id := range fields {
		if id == discInfoMirrorField {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if cand := Clean(fields[id]); cand != "" && !IsNoisy(cand) {
			return cand
		}
	}
	return ""
}

var (
	driveLetterPattern = regexp.MustCompile(`^\s*[A-Za-z]:?\s*$`)
	nonAlphaPattern    = regexp.MustCompile(`[^A-Za-z]`)
	allCapsPattern     = regexp.MustCompile(`^[A-Z0-9]{3,}$`)
	quotedFieldPattern = regexp.MustCompile(`"([^"]+)"`)

	titleCaser = cases.Title(language.Und)
)

// PickDiscInfoTitle extracts a probable disc-level title from raw scan text.
// The text is parsed as a quoted/delimited record so quoted fields survive
// intact. Underscored fields with enough letters are preferred
// (REMEMBER_THE_TITANS); a second pass accepts single ALL-CAPS tokens
// verbatim and title-cases other textual fields.
func PickDiscInfoTitle(rawText string) string {
	if strings.TrimSpace(rawText) == "" {
		return ""
	}
	fields := splitRecordFields(rawText)

	// First pass: underscored fields are the most reliable signal.
	for _, f := range fields {
		if f == "" || driveLetterPattern.MatchString(f) || alphaCount(f) < 3 {
			continue
		}
		if !strings.Contains(f, "_") {
			continue
		}
		candidate := titleCaseUpperWords(strings.TrimSpace(strings.ReplaceAll(f, "_", " ")))
		if cand := Clean(candidate); cand != "" && !IsNoisy(cand) {
			return cand
		}
	}

	// Second pass: ALL-CAPS tokens and remaining textual fields.
	for _, f := range fields {
		if f == "" || scanTagPattern.MatchString(f) || driveLetterPattern.MatchString(f) || alphaCount(f) < 3 {
			continue
		}
		token := strings.TrimSpace(f)
		if allCapsPattern.MatchString(token) {
			if cand := Clean(token); cand != "" && !IsNoisy(cand) {
				// Keep the original casing when cleaning only case-folded it.
				if strings.EqualFold(cand, token) {
					return token
				}
				return cand
			}
		}
		candidate := titleCaseUpperWords(strings.Join(strings.Fields(strings.ReplaceAll(token, "_", " ")), " "))
		if cand := Clean(candidate); cand != "" && !IsNoisy(cand) {
			return cand
		}
	}
	return ""
}

// GatherCandidates collects raw candidate strings from every channel: the
// drive volume label, disc-level CINFO values, per-title TINFO values, and
// the parsed titles' human names. No cleaning or filtering happens here.
func GatherCandidates(rawText, driveLabel string, titles []ParsedTitle) []Candidate {
	var cands []Candidate
	if driveLabel != "" {
		cands = append(cands, Candidate{Source: SourceVolumeLabel, Value: driveLabel})
	}
	for _, line := range strings.Split(rawText, "\n") {
		switch {
		case strings.HasPrefix(line, "CINFO"):
			parts := strings.SplitN(line, ",", 3)
			if len(parts) >= 3 {
				if v := trimFieldValue(parts[2]); v != "" {
					cands = append(cands, Candidate{Source: SourceDiscInfo, Value: v})
				}
			}
		case strings.HasPrefix(line, "TINFO"):
			parts := strings.SplitN(line, ",", 4)
			if len(parts) >= 4 {
				if v := trimFieldValue(parts[3]); v != "" {
					cands = append(cands, Candidate{Source: SourceTitleInfo, Value: v})
				}
			}
		}
	}
	for _, t := range titles {
		if t.Name != "" {
			cands = append(cands, Candidate{Source: SourceTitleParsed, Value: t.Name})
		}
	}
	return cands
}

// splitRecordFields parses delimited/quoted scan text into individual
// fields. Falls back to capturing quoted substrings when the record shape
// is malformed.
func splitRecordFields(rawText string) []string {
	reader := csv.NewReader(strings.NewReader(rawText))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		matches := quotedFieldPattern.FindAllStringSubmatch(rawText, -1)
		fields := make([]string, 0, len(matches))
		for _, m := range matches {
			fields = append(fields, strings.TrimSpace(m[1]))
		}
		return fields
	}

	var fields []string
	for _, record := range records {
		for _, f := range record {
			fields = append(fields, strings.TrimSpace(f))
		}
	}
	return fields
}

func trimFieldValue(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

func alphaCount(s string) int {
	return len(nonAlphaPattern.ReplaceAllString(s, ""))
}

// titleCaseUpperWords title-cases fully-uppercase words while leaving
// mixed-case words untouched.
func titleCaseUpperWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == strings.ToUpper(w) && alphaCount(w) > 0 {
			words[i] = titleCaser.String(strings.ToLower(w))
		}
	}
	return strings.Join(words, " ")
}
