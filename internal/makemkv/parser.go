package makemkv

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"librarian/internal/naming"
)

// Drive describes an optical drive reported by the MakeMKV enumeration scan.
type Drive struct {
	Index  int
	Label  string
	Device string
}

// Title is a single playable title discovered on a disc.
type Title struct {
	ID       int
	Name     string
	Duration string
	Seconds  int
	Size     string
	Fields   map[int]string
}

const (
	driveReadyFlag = 2

	fieldDuration     = 9
	fieldSizeReadable = 11
	fieldSizeBytes    = 10
)

// Duration attributes in preference order. Some discs report playback
// length under the chapter-count or angle fields instead of field 9.
var durationFields = []int{fieldDuration, 4, 3}

var durationPattern = regexp.MustCompile(`(?:(\d+):)?(\d{1,2}):(\d{2})`)

// ParseDrives extracts ready drives from robot-mode enumeration output.
// Drives whose flags are not 2 (media present and recognised) are skipped.
func ParseDrives(raw string) []Drive {
	var drives []Drive
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "DRV:") {
			continue
		}
		parts := strings.Split(strings.TrimPrefix(line, "DRV:"), ",")
		if len(parts) < 6 {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		flags, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || flags != driveReadyFlag {
			continue
		}
		label := strings.Trim(strings.TrimSpace(parts[4]), "\"")
		device := strings.Trim(strings.TrimSpace(parts[5]), "\"")
		device = strings.TrimSuffix(device, ":")
		drives = append(drives, Drive{Index: index, Label: label, Device: device})
	}
	return drives
}

// ParseTitles builds per-title attribute maps from TINFO lines, resolves
// each title's playback length, drops titles shorter than minSeconds, and
// returns the remainder sorted longest first. Names come from the cleaned
// attribute text, so they may be empty for discs with no usable metadata.
func ParseTitles(raw string, minSeconds int) []Title {
	fieldsByTitle := collectTitleFields(raw)

	ids := make([]int, 0, len(fieldsByTitle))
	for id := range fieldsByTitle {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	titles := make([]Title, 0, len(ids))
	for _, id := range ids {
		fields := fieldsByTitle[id]
		durationStr := pickDuration(fields)
		if durationStr == "" {
			continue
		}
		seconds, ok := durationSeconds(durationStr)
		if !ok || seconds < minSeconds {
			continue
		}
		durationStr = durationPattern.FindString(durationStr)
		titles = append(titles, Title{
			ID:       id,
			Name:     naming.PickTitleFromFields(fields),
			Duration: durationStr,
			Seconds:  seconds,
			Size:     pickSize(fields),
			Fields:   fields,
		})
	}

	sort.SliceStable(titles, func(i, j int) bool {
		return titles[i].Seconds > titles[j].Seconds
	})
	return titles
}

// Signature hashes the TINFO payload so two scans of the same disc
// compare equal. Returns "" when the scan saw no titles at all.
func Signature(raw string) string {
	var b strings.Builder
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "TINFO") {
			b.WriteString(line)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func collectTitleFields(raw string) map[int]map[int]string {
	result := make(map[int]map[int]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "TINFO:") {
			continue
		}
		parts := strings.SplitN(strings.TrimPrefix(line, "TINFO:"), ",", 4)
		if len(parts) < 4 {
			continue
		}
		titleID, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		fieldID, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		value := strings.Trim(strings.TrimSpace(parts[3]), "\"")
		fields, ok := result[titleID]
		if !ok {
			fields = make(map[int]string)
			result[titleID] = fields
		}
		fields[fieldID] = value
	}
	return result
}

// pickDuration takes the first populated preferred attribute verbatim,
// even when it later fails to parse. Only when every preferred field is
// empty does it scan the remaining attributes for a clock value.
func pickDuration(fields map[int]string) string {
	for _, id := range durationFields {
		if v := fields[id]; v != "" {
			return v
		}
	}
	ids := make([]int, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if m := durationPattern.FindString(fields[id]); m != "" {
			return m
		}
	}
	return ""
}

func durationSeconds(value string) (int, bool) {
	m := durationPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, false
	}
	hours := 0
	if m[1] != "" {
		h, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		hours = h
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, false
	}
	return hours*3600 + minutes*60 + seconds, true
}

func pickSize(fields map[int]string) string {
	if v := fields[fieldSizeReadable]; v != "" {
		return v
	}
	return fields[fieldSizeBytes]
}
