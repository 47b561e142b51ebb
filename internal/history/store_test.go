package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Add(ctx, Record{
		DiscSignature: "sig-a",
		DriveLabel:    "ARMAGEDN",
		Query:         "ARMAGEDN",
		Title:         "Armageddon",
		Year:          "1998",
		ImdbID:        "tt0120591",
		Confidence:    0.83,
		Source:        "omdb",
	})
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if first.ID == 0 || first.Status != StatusResolved || first.CreatedAt.IsZero() {
		t.Fatalf("unexpected record: %+v", first)
	}

	if _, err := store.Add(ctx, Record{Title: "Remember the Titans", Status: StatusSuggested}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	records, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Title != "Remember the Titans" {
		t.Fatalf("expected newest first, got %+v", records[0])
	}
	if records[1].Confidence != 0.83 || records[1].Year != "1998" {
		t.Fatalf("round trip lost fields: %+v", records[1])
	}
}

func TestAddRequiresTitle(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Add(context.Background(), Record{Title: "  "}); err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := store.Add(ctx, Record{Title: "Movie", CreatedAt: time.Now().UTC()}); err != nil {
			t.Fatal(err)
		}
	}
	records, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestBySignature(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, found, err := store.BySignature(ctx, "sig-x"); err != nil || found {
		t.Fatalf("expected no record, found=%v err=%v", found, err)
	}

	if _, err := store.Add(ctx, Record{DiscSignature: "sig-x", Title: "First Pass"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Add(ctx, Record{DiscSignature: "sig-x", Title: "Second Pass"}); err != nil {
		t.Fatal(err)
	}

	rec, found, err := store.BySignature(ctx, "sig-x")
	if err != nil {
		t.Fatalf("BySignature returned error: %v", err)
	}
	if !found || rec.Title != "Second Pass" {
		t.Fatalf("expected latest record, got %+v found=%v", rec, found)
	}

	if _, found, err := store.BySignature(ctx, ""); err != nil || found {
		t.Fatalf("blank signature should report not found, found=%v err=%v", found, err)
	}
}
