package config

import (
	"fmt"
	"strings"

	"librarian/internal/services"
)

// Validate checks configuration consistency. It does not require an
// OMDb key: resolution degrades to local heuristics without one.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		problems = append(problems, "paths.library_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.ManifestDir) == "" {
		problems = append(problems, "paths.manifest_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		problems = append(problems, "paths.history_db must not be empty")
	}
	if strings.TrimSpace(c.MakeMKV.Binary) == "" {
		problems = append(problems, "makemkv.binary must not be empty")
	}
	if c.MakeMKV.InfoTimeout < 0 {
		problems = append(problems, "makemkv.info_timeout must not be negative")
	}
	if c.MakeMKV.MinTitleSeconds < 0 {
		problems = append(problems, "makemkv.min_title_seconds must not be negative")
	}
	if c.OMDb.Threshold <= 0 || c.OMDb.Threshold > 1 {
		problems = append(problems, "omdb.threshold must be in (0, 1]")
	}
	if c.Watch.PollSeconds <= 0 {
		problems = append(problems, "watch.poll_seconds must be positive")
	}
	if c.Watch.MinFreeGiB < 0 {
		problems = append(problems, "watch.min_free_gib must not be negative")
	}
	if c.Notifications.RequestTimeout <= 0 {
		problems = append(problems, "notifications.request_timeout must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported", c.Logging.Format))
	}

	if len(problems) > 0 {
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			strings.Join(problems, "; "), nil)
	}
	return nil
}
