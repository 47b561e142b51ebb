package omdb

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"librarian/internal/logging"
)

// Scoring thresholds. Below AcceptThreshold but at or above
// SuggestThreshold a match is still returned so callers can put it in
// front of a human instead of discarding it.
const (
	AcceptThreshold  = 0.6
	SuggestThreshold = 0.35
)

const (
	weightSimilarity  = 0.50
	weightTokens      = 0.25
	weightLength      = 0.10
	subsequenceBonus  = 0.25
	maxTokenSearches  = 3
	minSearchToken    = 4
	minPrefixLength   = 4
	prefixShrinkRange = 3
)

// Match is a resolved title with its confidence. Confidence 1.0 marks
// an exact-lookup hit; lower values come from fuzzy search scoring.
type Match struct {
	Title      string
	Year       string
	ImdbID     string
	Confidence float64
}

// Resolver turns noisy disc-derived queries into OMDb matches.
type Resolver struct {
	api       Lookup
	threshold float64
	logger    *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithThreshold overrides the acceptance threshold.
func WithThreshold(threshold float64) ResolverOption {
	return func(r *Resolver) {
		if threshold > 0 {
			r.threshold = threshold
		}
	}
}

// WithLogger attaches a logger for per-candidate scoring detail.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logging.NewComponentLogger(logger, "omdb")
		}
	}
}

// NewResolver wires a resolver over the given OMDb lookup.
func NewResolver(api Lookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		api:       api,
		threshold: AcceptThreshold,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	tagPrefixPattern      = regexp.MustCompile(`(?i)^\s*(?:DRV|CINFO|TINFO)\b`)
	tagFieldPattern       = regexp.MustCompile(`(?i)^\s*(?:DRV|CINFO|TINFO)[:\s]*\d+\s*$`)
	driveLetterPattern    = regexp.MustCompile(`^\s*[A-Za-z]:?\s*$`)
	nonAlnumPattern       = regexp.MustCompile(`[^A-Za-z0-9]`)
	wordTokenPattern      = regexp.MustCompile(`\w+`)
	quotedFieldPattern    = regexp.MustCompile(`"([^"]+)"`)
	commaSeparatorPattern = regexp.MustCompile(`\s*,\s*`)
)

// Resolve runs the lookup ladder for the query: exact-title shortcuts
// for record-like and underscored inputs, a plain exact lookup, then a
// broadened search pool scored against the query. Returns false when
// nothing reaches the suggestion floor.
func (r *Resolver) Resolve(ctx context.Context, query string) (Match, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Match{}, false
	}

	if strings.ContainsAny(query, `,"`) || tagPrefixPattern.MatchString(query) {
		if m, ok := r.exactFromRecordFields(ctx, query); ok {
			return m, true
		}
	}

	if strings.Contains(query, "_") {
		raw := strings.Trim(query, `"`)
		for _, cand := range []string{raw, strings.TrimSpace(strings.ReplaceAll(raw, "_", " "))} {
			if m, ok := r.tryExact(ctx, cand); ok {
				return m, true
			}
		}
	}

	if m, ok := r.tryExact(ctx, query); ok {
		return m, true
	}

	pool := r.collectCandidates(ctx, query)
	if len(pool) == 0 {
		r.logger.Debug("no search candidates", logging.String("query", query))
		return Match{}, false
	}

	bestKey, bestScore, bestItem := r.scorePool(query, pool)
	if bestKey == "" {
		return Match{}, false
	}

	if bestScore >= r.threshold {
		return r.finishMatch(ctx, bestKey, bestScore, bestItem), true
	}
	if bestScore >= SuggestThreshold {
		r.logger.Debug("low-confidence suggestion",
			logging.String("title", bestItem.Title),
			logging.Float64("confidence", bestScore))
		return r.finishMatch(ctx, bestKey, bestScore, bestItem), true
	}

	r.logger.Debug("no candidate passed the suggestion floor", logging.String("query", query))
	return Match{}, false
}

// exactFromRecordFields parses the query as a delimited record and tries
// every field as an exact title, raw first and then with underscores
// replaced by spaces. Attempts are deduplicated case-insensitively.
func (r *Resolver) exactFromRecordFields(ctx context.Context, query string) (Match, bool) {
	tried := make(map[string]struct{})
	for _, field := range recordFields(query) {
		key := strings.ToLower(field)
		if _, seen := tried[key]; seen {
			continue
		}
		tried[key] = struct{}{}
		if tagFieldPattern.MatchString(field) || driveLetterPattern.MatchString(field) {
			continue
		}
		if m, ok := r.tryExact(ctx, field); ok {
			return m, true
		}
		norm := strings.TrimSpace(strings.ReplaceAll(field, "_", " "))
		normKey := strings.ToLower(norm)
		if _, seen := tried[normKey]; seen {
			continue
		}
		tried[normKey] = struct{}{}
		if m, ok := r.tryExact(ctx, norm); ok {
			return m, true
		}
	}
	return Match{}, false
}

// tryExact performs one exact-title lookup. Candidates with fewer than
// two alphanumeric characters are not worth a network round trip.
func (r *Resolver) tryExact(ctx context.Context, candidate string) (Match, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || len(nonAlnumPattern.ReplaceAllString(candidate, "")) < 2 {
		return Match{}, false
	}
	detail, err := r.api.ByTitle(ctx, candidate)
	if err != nil {
		r.logger.Debug("exact lookup failed", logging.String("candidate", candidate), logging.Error(err))
		return Match{}, false
	}
	if !detail.OK() {
		return Match{}, false
	}
	r.logger.Debug("exact match", logging.String("title", detail.Title), logging.String("year", detail.Year))
	return Match{Title: detail.Title, Year: detail.Year, ImdbID: detail.ImdbID, Confidence: 1.0}, true
}

// collectCandidates pools search hits from the full query, progressive
// prefixes of its alphanumeric form, and its significant word tokens,
// deduplicated by IMDb id (or a title|year composite when absent).
func (r *Resolver) collectCandidates(ctx context.Context, query string) map[string]SearchItem {
	var items []SearchItem
	runSearch := func(term string) {
		resp, err := r.api.Search(ctx, term)
		if err != nil {
			r.logger.Debug("search failed", logging.String("term", term), logging.Error(err))
			return
		}
		if resp.OK() {
			items = append(items, resp.Search...)
		}
	}

	runSearch(query)

	compact := nonAlnumPattern.ReplaceAllString(query, "")
	for l := len(compact); l >= len(compact)-prefixShrinkRange && l >= minPrefixLength; l-- {
		prefix := compact[:l]
		if prefix == query {
			continue
		}
		runSearch(prefix)
	}

	seenTokens := make(map[string]struct{})
	searched := 0
	for _, token := range wordTokenPattern.FindAllString(query, -1) {
		if len(token) < minSearchToken || searched >= maxTokenSearches {
			continue
		}
		key := strings.ToLower(token)
		if _, ok := seenTokens[key]; ok {
			continue
		}
		seenTokens[key] = struct{}{}
		runSearch(token)
		searched++
	}

	pool := make(map[string]SearchItem, len(items))
	for _, item := range items {
		key := item.ImdbID
		if key == "" {
			key = item.Title + "|" + item.Year
		}
		if _, ok := pool[key]; !ok {
			pool[key] = item
		}
	}
	return pool
}

// scorePool scores every pooled candidate against the query, iterating
// keys in sorted order so ties always resolve the same way. On equal
// scores the longer title wins.
func (r *Resolver) scorePool(query string, pool map[string]SearchItem) (string, float64, SearchItem) {
	keys := make([]string, 0, len(pool))
	for key := range pool {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	queryAlnum := strings.ToLower(nonAlnumPattern.ReplaceAllString(query, ""))
	queryTokens := tokenSet(query)

	var bestKey string
	var bestScore float64
	var bestItem SearchItem
	for _, key := range keys {
		item := pool[key]
		score := scoreCandidate(query, queryAlnum, queryTokens, item.Title)
		r.logger.Debug("scored candidate",
			logging.String("title", item.Title),
			logging.String("imdb_id", item.ImdbID),
			logging.Float64("score", score))
		if score > bestScore || (score == bestScore && len(item.Title) > len(bestItem.Title)) {
			bestKey, bestScore, bestItem = key, score, item
		}
	}
	return bestKey, bestScore, bestItem
}

func scoreCandidate(query, queryAlnum string, queryTokens map[string]struct{}, title string) float64 {
	similarity := float64(edlib.JaroWinklerSimilarity(strings.ToLower(query), strings.ToLower(title)))

	titleTokens := tokenSet(title)
	overlap := 0.0
	if len(queryTokens) > 0 || len(titleTokens) > 0 {
		common := 0
		for token := range queryTokens {
			if _, ok := titleTokens[token]; ok {
				common++
			}
		}
		union := len(queryTokens) + len(titleTokens) - common
		if union > 0 {
			overlap = float64(common) / float64(union)
		}
	}

	titleAlnum := strings.ToLower(nonAlnumPattern.ReplaceAllString(title, ""))
	lengthRatio := 1.0
	if queryAlnum != "" {
		lengthRatio = float64(len(titleAlnum)) / float64(len(queryAlnum))
		if lengthRatio > 1 {
			lengthRatio = 1
		}
	}

	bonus := 0.0
	if isSubsequence(queryAlnum, titleAlnum) {
		bonus = subsequenceBonus
	}

	score := similarity*weightSimilarity + overlap*weightTokens + lengthRatio*weightLength + bonus
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// finishMatch upgrades the pooled summary to full details when a real
// IMDb id is available; synthetic keys and failed fetches fall back to
// the summary fields.
func (r *Resolver) finishMatch(ctx context.Context, key string, score float64, item SearchItem) Match {
	if strings.HasPrefix(key, "tt") {
		if detail, err := r.api.ByID(ctx, key); err == nil && detail.OK() {
			return Match{Title: detail.Title, Year: detail.Year, ImdbID: detail.ImdbID, Confidence: score}
		}
	}
	return Match{Title: item.Title, Year: item.Year, ImdbID: item.ImdbID, Confidence: score}
}

// isSubsequence reports whether every character of small appears in big
// in order. Both arguments must already be lowercase alphanumeric.
func isSubsequence(small, big string) bool {
	if small == "" || big == "" {
		return false
	}
	i := 0
	for _, ch := range []byte(big) {
		if ch == small[i] {
			i++
			if i == len(small) {
				return true
			}
		}
	}
	return false
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range wordTokenPattern.FindAllString(strings.ToLower(s), -1) {
		set[token] = struct{}{}
	}
	return set
}

// recordFields splits a delimited record into trimmed, unquoted fields.
// Falls back to quoted-token extraction when the reader rejects the input.
func recordFields(raw string) []string {
	var fields []string
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return fields
		}
		if err != nil {
			break
		}
		for _, f := range record {
			f = strings.Trim(strings.TrimSpace(f), `"`)
			if f != "" {
				fields = append(fields, f)
			}
		}
	}
	if matches := quotedFieldPattern.FindAllStringSubmatch(raw, -1); len(matches) > 0 {
		fields = fields[:0]
		for _, m := range matches {
			fields = append(fields, m[1])
		}
		return fields
	}
	fields = fields[:0]
	for _, part := range commaSeparatorPattern.Split(raw, -1) {
		if part = strings.TrimSpace(part); part != "" {
			fields = append(fields, part)
		}
	}
	return fields
}
