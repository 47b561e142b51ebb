package textutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean title passes through", "Armageddon", "Armageddon"},
		{"unsafe characters replaced", `a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"empty", "", ""},
		{"spaces kept", "The Lost World", "The Lost World"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFileName(tt.input); got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Remember the Titans", "remember-the-titans"},
		{"  Spaced   Out  ", "spaced-out"},
		{"Don't Look Up!", "dont-look-up"},
		{"___", "untitled"},
		{"", "untitled"},
	}

	for _, tt := range tests {
		if got := NormalizeID(tt.input); got != tt.want {
			t.Errorf("NormalizeID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNextAvailablePath(t *testing.T) {
	dir := t.TempDir()

	first := NextAvailablePath(dir, "movie", ".mkv")
	if first != filepath.Join(dir, "movie.mkv") {
		t.Fatalf("NextAvailablePath() = %q, want unsuffixed path", first)
	}

	if err := os.WriteFile(first, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	second := NextAvailablePath(dir, "movie", ".mkv")
	if second != filepath.Join(dir, "movie (1).mkv") {
		t.Errorf("NextAvailablePath() after collision = %q, want movie (1).mkv", second)
	}
}
