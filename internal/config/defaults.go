package config

import "librarian/internal/metadata/omdb"

// Default returns the baseline configuration before file and environment
// values are applied.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir:  "~/Videos/library",
			ManifestDir: "~/.local/share/librarian/manifests",
			LogDir:      "~/.local/share/librarian/logs",
			HistoryDB:   "~/.local/share/librarian/history.db",
		},
		OMDb: OMDb{
			BaseURL:   omdb.DefaultBaseURL,
			Threshold: omdb.AcceptThreshold,
		},
		MakeMKV: MakeMKV{
			Binary:          "makemkvcon",
			InfoTimeout:     180,
			MinTitleSeconds: 600,
		},
		Watch: Watch{
			PollSeconds: 10,
			MinFreeGiB:  20,
			LockPath:    "~/.local/share/librarian/watch.lock",
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Detected:       true,
			Resolved:       true,
			Review:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
