package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"librarian/internal/config"
	"librarian/internal/history"
	"librarian/internal/makemkv"
	"librarian/internal/manifest"
	"librarian/internal/metadata/omdb"
	"librarian/internal/resolve"
	"librarian/internal/services"
)

func resolveMatch(title, year, imdbID string, confidence float64) omdb.Match {
	return omdb.Match{Title: title, Year: year, ImdbID: imdbID, Confidence: confidence}
}

var scanFixture = strings.Join([]string{
	`TINFO:0,27,0,"Armageddon"`,
	`TINFO:0,9,0,"2:30:00"`,
}, "\n")

type fakeClient struct {
	drives    []makemkv.Drive
	scanText  string
	titles    []makemkv.Title
	scanErr   error
	listCalls int
	scanCalls int
}

func (f *fakeClient) ListDrives(context.Context) ([]makemkv.Drive, error) {
	f.listCalls++
	return f.drives, nil
}

func (f *fakeClient) Scan(context.Context, int) (string, []makemkv.Title, error) {
	f.scanCalls++
	if f.scanErr != nil {
		return "", nil, f.scanErr
	}
	return f.scanText, f.titles, nil
}

type fakeResolver struct {
	result resolve.Result
	calls  int
}

func (f *fakeResolver) Resolve(context.Context, resolve.Input) resolve.Result {
	f.calls++
	return f.result
}

type fakeRecorder struct {
	records []history.Record
}

func (f *fakeRecorder) Add(_ context.Context, rec history.Record) (history.Record, error) {
	f.records = append(f.records, rec)
	return rec, nil
}

type fakeManifests struct {
	saved []*manifest.Manifest
}

func (f *fakeManifests) MakeSetID(title string) string { return "set-" + title }

func (f *fakeManifests) Save(m *manifest.Manifest) error {
	f.saved = append(f.saved, m)
	return nil
}

type fakeNotifier struct {
	detected []string
	resolved []string
	reviews  []string
	errors   []string
}

func (f *fakeNotifier) NotifyDiscDetected(_ context.Context, label string) error {
	f.detected = append(f.detected, label)
	return nil
}

func (f *fakeNotifier) NotifyResolved(_ context.Context, title, _ string, _ float64) error {
	f.resolved = append(f.resolved, title)
	return nil
}

func (f *fakeNotifier) NotifyReview(_ context.Context, query string, _ float64) error {
	f.reviews = append(f.reviews, query)
	return nil
}

func (f *fakeNotifier) NotifyError(_ context.Context, err error, _ string) error {
	f.errors = append(f.errors, err.Error())
	return nil
}

func (f *fakeNotifier) TestNotification(context.Context) error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.LibraryDir = t.TempDir()
	cfg.Watch.MinFreeGiB = 0
	cfg.Watch.LockPath = filepath.Join(t.TempDir(), "watch.lock")
	return &cfg
}

func newTestWatcher(t *testing.T, cfg *config.Config) *Watcher {
	t.Helper()
	client, err := makemkv.New("makemkvcon", 1)
	if err != nil {
		t.Fatalf("makemkv.New: %v", err)
	}
	w, err := New(cfg, client, resolve.New(nil), nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestRunOnceResolvesNewDisc(t *testing.T) {
	cfg := testConfig(t)
	w := newTestWatcher(t, cfg)

	client := &fakeClient{
		drives:   []makemkv.Drive{{Index: 0, Label: "ARMAGEDDON", Device: "/dev/sr0"}},
		scanText: scanFixture,
		titles:   []makemkv.Title{{ID: 0, Name: "Armageddon", Seconds: 9000, Size: "32.1 GB"}},
	}
	resolver := &fakeResolver{result: resolve.Result{
		Name:   "Armageddon",
		Query:  "ARMAGEDDON",
		Source: resolve.SourceMetadata,
		Match:  resolveMatch("Armageddon", "1998", "tt0120591", 0.83),
	}}
	recorder := &fakeRecorder{}
	manifests := &fakeManifests{}
	notifier := &fakeNotifier{}
	w.client = client
	w.resolver = resolver
	w.history = recorder
	w.manifest = manifests
	w.notifier = notifier

	w.RunOnce(context.Background())

	if len(recorder.records) != 1 {
		t.Fatalf("records = %d, want 1", len(recorder.records))
	}
	rec := recorder.records[0]
	if rec.Status != history.StatusResolved {
		t.Fatalf("status = %q", rec.Status)
	}
	if rec.Title != "Armageddon" || rec.Year != "1998" || rec.ImdbID != "tt0120591" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.DiscSignature == "" {
		t.Fatal("record missing disc signature")
	}
	if len(manifests.saved) != 1 {
		t.Fatalf("manifests = %d, want 1", len(manifests.saved))
	}
	m := manifests.saved[0]
	if m.SetID != "set-Armageddon" || m.Title != "Armageddon" || len(m.Titles) != 1 {
		t.Fatalf("manifest = %+v", m)
	}
	if len(notifier.detected) != 1 || len(notifier.resolved) != 1 {
		t.Fatalf("notifications: detected=%v resolved=%v", notifier.detected, notifier.resolved)
	}

	// Same disc on the next pass: scanned for the signature but not
	// re-resolved.
	w.RunOnce(context.Background())
	if resolver.calls != 1 {
		t.Fatalf("resolver calls = %d, want 1", resolver.calls)
	}
	if len(recorder.records) != 1 {
		t.Fatalf("records after second pass = %d", len(recorder.records))
	}
}

func TestRunOnceReprocessesAfterEject(t *testing.T) {
	cfg := testConfig(t)
	w := newTestWatcher(t, cfg)

	client := &fakeClient{
		drives:   []makemkv.Drive{{Index: 0, Label: "ARMAGEDDON"}},
		scanText: scanFixture,
	}
	resolver := &fakeResolver{result: resolve.Result{
		Name:   "Armageddon",
		Source: resolve.SourceDiscInfo,
	}}
	w.client = client
	w.resolver = resolver

	w.RunOnce(context.Background())
	if resolver.calls != 1 {
		t.Fatalf("resolver calls = %d", resolver.calls)
	}

	// Disc ejected: the drive disappears and the dedupe entry is dropped.
	client.drives = nil
	w.RunOnce(context.Background())

	client.drives = []makemkv.Drive{{Index: 0, Label: "ARMAGEDDON"}}
	w.RunOnce(context.Background())
	if resolver.calls != 2 {
		t.Fatalf("resolver calls after reinsert = %d, want 2", resolver.calls)
	}
}

func TestRunOnceSuggestedGoesToReview(t *testing.T) {
	cfg := testConfig(t)
	w := newTestWatcher(t, cfg)

	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{}
	w.client = &fakeClient{
		drives:   []makemkv.Drive{{Index: 0, Label: "HEAT_WAVE"}},
		scanText: scanFixture,
	}
	w.resolver = &fakeResolver{result: resolve.Result{
		Name:      "Heat Wave",
		Query:     "Heat Wave",
		Source:    resolve.SourceDiscInfo,
		Match:     resolveMatch("Heatstroke", "2008", "", 0.45),
		Suggested: true,
	}}
	w.history = recorder
	w.notifier = notifier

	w.RunOnce(context.Background())

	if len(recorder.records) != 1 || recorder.records[0].Status != history.StatusSuggested {
		t.Fatalf("records = %+v", recorder.records)
	}
	if len(notifier.reviews) != 1 || len(notifier.resolved) != 0 {
		t.Fatalf("notifications: reviews=%v resolved=%v", notifier.reviews, notifier.resolved)
	}
}

func TestRunOnceScanFailureRetriesNextPass(t *testing.T) {
	cfg := testConfig(t)
	w := newTestWatcher(t, cfg)

	client := &fakeClient{
		drives:  []makemkv.Drive{{Index: 0, Label: "ARMAGEDDON"}},
		scanErr: errors.New("disc unreadable"),
	}
	resolver := &fakeResolver{}
	notifier := &fakeNotifier{}
	w.client = client
	w.resolver = resolver
	w.notifier = notifier

	w.RunOnce(context.Background())
	w.RunOnce(context.Background())

	if resolver.calls != 0 {
		t.Fatalf("resolver calls = %d, want 0", resolver.calls)
	}
	if client.scanCalls != 2 {
		t.Fatalf("scan calls = %d, want a retry", client.scanCalls)
	}
	if len(notifier.errors) != 2 {
		t.Fatalf("error notifications = %v", notifier.errors)
	}
}

func TestRunOnceParksDiscOnConfigurationFailure(t *testing.T) {
	cfg := testConfig(t)
	w := newTestWatcher(t, cfg)

	client := &fakeClient{
		drives: []makemkv.Drive{{Index: 0, Label: "ARMAGEDDON"}},
		scanErr: services.Wrap(services.ErrConfiguration, "makemkv", "info", "disc 0",
			errors.New("registration key expired")),
	}
	notifier := &fakeNotifier{}
	w.client = client
	w.notifier = notifier

	w.RunOnce(context.Background())
	w.RunOnce(context.Background())
	w.RunOnce(context.Background())

	// A failure a retry cannot fix scans and notifies once, not per poll.
	if client.scanCalls != 1 {
		t.Fatalf("scan calls = %d, want the disc parked after one failure", client.scanCalls)
	}
	if len(notifier.errors) != 1 {
		t.Fatalf("error notifications = %v, want one", notifier.errors)
	}

	// Eject and reinsert: the park clears with the drive.
	client.drives = nil
	w.RunOnce(context.Background())

	client.drives = []makemkv.Drive{{Index: 0, Label: "ARMAGEDDON"}}
	client.scanErr = nil
	client.scanText = scanFixture
	w.RunOnce(context.Background())
	if client.scanCalls != 2 {
		t.Fatalf("scan calls after reinsert = %d, want 2", client.scanCalls)
	}
}

func TestRunOnceLowSpacePausesDetection(t *testing.T) {
	cfg := testConfig(t)
	cfg.Watch.MinFreeGiB = 20
	w := newTestWatcher(t, cfg)

	client := &fakeClient{drives: []makemkv.Drive{{Index: 0, Label: "ARMAGEDDON"}}}
	notifier := &fakeNotifier{}
	w.client = client
	w.notifier = notifier
	w.statfs = func(string) (uint64, uint64, error) {
		return 100 << 30, 1 << 30, nil
	}

	w.RunOnce(context.Background())
	w.RunOnce(context.Background())

	if client.listCalls != 0 {
		t.Fatalf("list calls = %d, want 0 while paused", client.listCalls)
	}
	// The low-space notification fires once per episode, not per poll.
	if len(notifier.errors) != 1 {
		t.Fatalf("error notifications = %v", notifier.errors)
	}

	// Space recovered: detection resumes and the gate rearms.
	w.statfs = func(string) (uint64, uint64, error) {
		return 100 << 30, 50 << 30, nil
	}
	w.RunOnce(context.Background())
	if client.listCalls != 1 {
		t.Fatalf("list calls after recovery = %d", client.listCalls)
	}
}

func TestStartEnforcesSingleInstance(t *testing.T) {
	cfg := testConfig(t)

	first := newTestWatcher(t, cfg)
	first.client = &fakeClient{}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	second := newTestWatcher(t, cfg)
	second.client = &fakeClient{}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second Start succeeded with the lock held")
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("Start after lock release: %v", err)
	}
	second.Stop()
}

func TestStartTwiceFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Watch.LockPath = ""
	w := newTestWatcher(t, cfg)
	w.client = &fakeClient{}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()
	if err := w.Start(context.Background()); err == nil {
		t.Fatal("second Start on a running watcher succeeded")
	}
}
