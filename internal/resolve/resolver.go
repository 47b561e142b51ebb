package resolve

import (
	"context"
	"log/slog"
	"strings"

	"librarian/internal/logging"
	"librarian/internal/makemkv"
	"librarian/internal/metadata/omdb"
	"librarian/internal/naming"
	"librarian/internal/textutil"
)

// Source names where the final title came from.
type Source string

const (
	// SourceMetadata means an accepted external lookup match.
	SourceMetadata Source = "metadata"
	// SourceDiscInfo means the local naming pipeline picked the title
	// from the scan output or parsed titles.
	SourceDiscInfo Source = "disc_info"
	// SourceDriveLabel means nothing better than the raw volume label
	// survived.
	SourceDriveLabel Source = "drive_label"
	// SourceNone means no usable title at all.
	SourceNone Source = "none"
)

// Metadata is the external lookup surface the resolver needs. The
// second return is false when nothing reached the suggestion floor.
type Metadata interface {
	Resolve(ctx context.Context, query string) (omdb.Match, bool)
}

// Input carries everything known about a scanned disc.
type Input struct {
	// DriveLabel is the raw volume label reported for the drive.
	DriveLabel string
	// ScanText is the raw robot-mode scan output for the disc.
	ScanText string
	// Titles are the parsed titles from the same scan.
	Titles []makemkv.Title
}

// Result is the resolved title plus its provenance.
type Result struct {
	// Name is the sanitized library name, empty when nothing was usable.
	Name string
	// Query is the string that produced the winning lookup match, or the
	// local candidate when the lookup found nothing.
	Query string
	// Source records where Name came from.
	Source Source
	// Match holds the lookup match when one was found, zero otherwise.
	Match omdb.Match
	// Suggested marks a match below the accept threshold; Name then
	// stays on the local candidate and Match is advisory.
	Suggested bool
}

// Resolver orchestrates title resolution for one disc at a time.
type Resolver struct {
	meta      Metadata
	threshold float64
	choose    naming.ChooseOptions
	logger    *slog.Logger
}

// Option adjusts resolver construction.
type Option func(*Resolver)

// WithThreshold overrides the accept threshold for lookup matches.
func WithThreshold(threshold float64) Option {
	return func(r *Resolver) { r.threshold = threshold }
}

// WithChooseOptions sets the interactive tie-break behaviour of the
// local naming pipeline.
func WithChooseOptions(opts naming.ChooseOptions) Option {
	return func(r *Resolver) { r.choose = opts }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New builds a Resolver. meta may be nil when no API key is configured;
// resolution then runs on the local pipeline alone.
func New(meta Metadata, opts ...Option) *Resolver {
	r := &Resolver{
		meta:      meta,
		threshold: omdb.AcceptThreshold,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve picks the library name for a scanned disc. The raw drive
// label is probed against the lookup first, underscores intact, so
// tokens like REMEMBER_THE_TITANS reach the exact-title shortcut. The
// local candidate is tried next, and wins outright when the lookup is
// absent or only reaches the suggestion floor.
func (r *Resolver) Resolve(ctx context.Context, in Input) Result {
	label := strings.TrimSpace(in.DriveLabel)

	candidate := naming.ChooseTitle(in.ScanText, label, parsedTitles(in.Titles), r.choose)
	source := SourceNone
	if candidate != "" {
		source = SourceDiscInfo
	}
	r.logger.Debug("local candidate",
		logging.String("candidate", candidate),
		logging.String("label", label))

	res := Result{Query: candidate, Source: source}

	if r.meta != nil {
		match, query, ok := r.lookup(ctx, label, candidate)
		if ok {
			res.Match = match
			res.Query = query
			if match.Confidence >= r.threshold {
				res.Name = textutil.SanitizeFileName(match.Title)
				res.Source = SourceMetadata
				return res
			}
			// Weak match: keep the local candidate when there is one.
			res.Suggested = true
			r.logger.Debug("lookup match below accept threshold",
				logging.String("title", match.Title),
				logging.Float64("confidence", match.Confidence))
			if candidate == "" {
				res.Name = textutil.SanitizeFileName(match.Title)
				res.Source = SourceMetadata
				return res
			}
		}
	}

	if candidate != "" {
		res.Name = textutil.SanitizeFileName(candidate)
		return res
	}
	if label != "" {
		// Last resort, noisy or not. A labelled folder beats no folder.
		res.Name = textutil.SanitizeFileName(label)
		res.Source = SourceDriveLabel
		res.Query = label
	}
	return res
}

// lookup runs the label probe and then the local candidate through the
// external lookup, returning the first hit and the query that found it.
func (r *Resolver) lookup(ctx context.Context, label, candidate string) (omdb.Match, string, bool) {
	if label != "" {
		if m, ok := r.meta.Resolve(ctx, label); ok {
			return m, label, true
		}
		spaced := strings.TrimSpace(strings.ReplaceAll(label, "_", " "))
		if spaced != "" && spaced != label {
			if m, ok := r.meta.Resolve(ctx, spaced); ok {
				return m, spaced, true
			}
		}
	}
	if candidate != "" && !strings.EqualFold(candidate, label) {
		if m, ok := r.meta.Resolve(ctx, candidate); ok {
			return m, candidate, true
		}
	}
	return omdb.Match{}, "", false
}

func parsedTitles(titles []makemkv.Title) []naming.ParsedTitle {
	if len(titles) == 0 {
		return nil
	}
	parsed := make([]naming.ParsedTitle, 0, len(titles))
	for _, t := range titles {
		parsed = append(parsed, naming.ParsedTitle{Name: t.Name, Seconds: t.Seconds})
	}
	return parsed
}
