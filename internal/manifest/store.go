package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"librarian/internal/textutil"
)

// TitleEntry records one disc title that belongs to the set.
type TitleEntry struct {
	ID      int    `json:"id"`
	Name    string `json:"name,omitempty"`
	Seconds int    `json:"seconds"`
	Size    string `json:"size,omitempty"`
}

// Manifest captures the outcome of resolving a single disc.
type Manifest struct {
	SetID         string       `json:"set_id"`
	Title         string       `json:"title"`
	Year          string       `json:"year,omitempty"`
	ImdbID        string       `json:"imdb_id,omitempty"`
	Confidence    float64      `json:"confidence"`
	Query         string       `json:"query,omitempty"`
	Source        string       `json:"source,omitempty"`
	DriveLabel    string       `json:"drive_label,omitempty"`
	DiscSignature string       `json:"disc_signature,omitempty"`
	Titles        []TitleEntry `json:"titles,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ErrNotFound reports a missing manifest.
var ErrNotFound = errors.New("manifest not found")

// Store reads and writes manifests under a single directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a manifest store rooted at dir.
func NewStore(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("manifest directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create manifest directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// MakeSetID builds a reasonably unique id from the title, a UTC
// timestamp, and a short random suffix.
func (s *Store) MakeSetID(title string) string {
	stamp := s.now().UTC().Format("20060102T150405Z")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return textutil.NormalizeID(title) + "-" + stamp + "-" + suffix
}

// Save persists the manifest atomically, stamping CreatedAt when unset.
func (s *Store) Save(m *Manifest) error {
	if m == nil || strings.TrimSpace(m.SetID) == "" {
		return errors.New("manifest set id required")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now().UTC()
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	final := s.path(m.SetID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest temp file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// Load reads one manifest by set id.
func (s *Store) Load(setID string) (*Manifest, error) {
	data, err := os.ReadFile(s.path(setID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, setID)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", setID, err)
	}
	return &m, nil
}

// List returns every stored set id in sorted order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read manifest directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) path(setID string) string {
	return filepath.Join(s.dir, setID+".json")
}
