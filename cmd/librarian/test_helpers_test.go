package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// writeTestConfig drops a config file whose paths all live under a temp
// directory, with no API key so commands stay offline.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
library_dir = %q
manifest_dir = %q
log_dir = %q
history_db = %q

[watch]
lock_path = %q
`,
		filepath.Join(base, "library"),
		filepath.Join(base, "manifests"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "history.db"),
		filepath.Join(base, "watch.lock"))

	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("OMDB_API_KEY", "")
	t.Setenv("NTFY_TOPIC", "")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !bytes.Contains([]byte(haystack), []byte(needle)) {
		t.Fatalf("output %q does not contain %q", haystack, needle)
	}
}
