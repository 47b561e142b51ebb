package naming

import (
	"regexp"
	"sort"
)

// Source weights, tuned empirically: disc-level CINFO values are far more
// trustworthy than per-title fields, and parsed human names beat raw labels.
const (
	weightDiscInfo    = 40
	weightTitleParsed = 12
	weightVolumeLabel = 8
	weightTitleInfo   = 4
	weightUnknown     = 1

	lengthBonus          = 2
	lengthBonusThreshold = 4
	mixedCaseBonus       = 1
)

// mixedCasePattern detects adjacent case changes, a signal of
// human-authored text versus all-caps technical strings.
var mixedCasePattern = regexp.MustCompile(`[a-z][A-Z]|[A-Z][a-z]`)

// ScoredCandidate is a cleaned candidate with its accumulated score.
type ScoredCandidate struct {
	Value string
	Score int
}

// ScoreCandidates cleans each candidate, discards empty or noisy results,
// and accumulates a desirability score per distinct cleaned string.
// Duplicates merge additively. The result is sorted descending by score;
// ties keep first-appearance order.
func ScoreCandidates(cands []Candidate) []ScoredCandidate {
	scores := make(map[string]int)
	var order []string

	for _, c := range cands {
		cand := Clean(c.Value)
		if cand == "" || IsNoisy(cand) {
			continue
		}

		score := weightUnknown
		switch c.Source {
		case SourceDiscInfo:
			score = weightDiscInfo
		case SourceTitleParsed:
			score = weightTitleParsed
		case SourceVolumeLabel:
			score = weightVolumeLabel
		case SourceTitleInfo:
			score = weightTitleInfo
		}
		if len(cand) >= lengthBonusThreshold {
			score += lengthBonus
		}
		// The original uncleaned value carries the case-shape signal.
		if mixedCasePattern.MatchString(c.Value) {
			score += mixedCaseBonus
		}

		if _, seen := scores[cand]; !seen {
			order = append(order, cand)
		}
		scores[cand] += score
	}

	ranked := make([]ScoredCandidate, 0, len(order))
	for _, key := range order {
		ranked = append(ranked, ScoredCandidate{Value: key, Score: scores[key]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
