package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"librarian/internal/config"
	"librarian/internal/history"
	"librarian/internal/logging"
	"librarian/internal/makemkv"
	"librarian/internal/manifest"
	"librarian/internal/notify"
	"librarian/internal/resolve"
	"librarian/internal/services"
)

type discClient interface {
	ListDrives(ctx context.Context) ([]makemkv.Drive, error)
	Scan(ctx context.Context, disc int) (string, []makemkv.Title, error)
}

type titleResolver interface {
	Resolve(ctx context.Context, in resolve.Input) resolve.Result
}

type recorder interface {
	Add(ctx context.Context, rec history.Record) (history.Record, error)
}

type manifestWriter interface {
	MakeSetID(title string) string
	Save(m *manifest.Manifest) error
}

type statfsFunc func(path string) (total, free uint64, err error)

// Watcher owns the detection loop. Construct with New, then Start; Stop
// waits for in-flight work before returning.
type Watcher struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   discClient
	resolver titleResolver
	history  recorder
	manifest manifestWriter
	notifier notify.Service

	pollInterval time.Duration
	minFreeBytes uint64
	lock         *flock.Flock
	statfs       statfsFunc

	mu       sync.Mutex
	running  bool
	lowSpace bool
	// handled maps drive index to the signature of the disc already
	// processed, so an unchanged disc is not rescanned every poll.
	handled map[int]string
	// parked maps drive index to the label of a disc whose scan failed
	// in a way a retry cannot fix. The entry clears on eject.
	parked map[int]string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a watcher. History, manifest store, and notifier may be
// nil; the corresponding step is then skipped.
func New(cfg *config.Config, client *makemkv.Client, resolver *resolve.Resolver,
	hist *history.Store, manifests *manifest.Store, notifier notify.Service, logger *slog.Logger) (*Watcher, error) {
	if cfg == nil || client == nil || resolver == nil {
		return nil, errors.New("watcher requires config, disc client, and resolver")
	}

	poll := time.Duration(cfg.Watch.PollSeconds) * time.Second
	if poll <= 0 {
		poll = 10 * time.Second
	}

	w := &Watcher{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "watcher"),
		client:       client,
		resolver:     resolver,
		notifier:     notifier,
		pollInterval: poll,
		minFreeBytes: uint64(cfg.Watch.MinFreeGiB) * 1024 * 1024 * 1024,
		statfs:       realStatfs,
		handled:      make(map[int]string),
		parked:       make(map[int]string),
	}
	if hist != nil {
		w.history = hist
	}
	if manifests != nil {
		w.manifest = manifests
	}
	if lockPath := cfg.Watch.LockPath; lockPath != "" {
		w.lock = flock.New(lockPath)
	}
	return w, nil
}

// Start acquires the instance lock and launches the poll loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("watcher already running")
	}

	if w.lock != nil {
		ok, err := w.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire watch lock: %w", err)
		}
		if !ok {
			return errors.New("another librarian watcher is already running")
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.ctx = runCtx
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.loop()
	w.logger.Info("watcher started",
		logging.Duration("poll_interval", w.pollInterval),
		logging.String("lock", w.cfg.Watch.LockPath))
	return nil
}

// Stop cancels the loop, waits for it, and releases the instance lock.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()

	if w.lock != nil {
		if err := w.lock.Unlock(); err != nil {
			w.logger.Warn("failed to release watch lock", logging.Error(err))
		}
	}
	w.logger.Info("watcher stopped")
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	w.poll(w.ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.poll(w.ctx)
		}
	}
}

// RunOnce performs a single detection pass. Used by the one-shot CLI
// path; it needs neither Start nor the instance lock.
func (w *Watcher) RunOnce(ctx context.Context) {
	w.poll(ctx)
}

func (w *Watcher) poll(ctx context.Context) {
	if ctx == nil || ctx.Err() != nil {
		return
	}
	if !w.checkFreeSpace(ctx) {
		return
	}

	drives, err := w.client.ListDrives(ctx)
	if err != nil {
		w.logger.Warn("drive enumeration failed; will retry", logging.Error(err))
		return
	}

	present := make(map[int]struct{}, len(drives))
	for _, d := range drives {
		present[d.Index] = struct{}{}
		w.handleDrive(ctx, d)
	}

	// Forget drives whose media went away so reinsertion triggers again.
	w.mu.Lock()
	for idx := range w.handled {
		if _, ok := present[idx]; !ok {
			delete(w.handled, idx)
		}
	}
	for idx := range w.parked {
		if _, ok := present[idx]; !ok {
			delete(w.parked, idx)
		}
	}
	w.mu.Unlock()
}

func (w *Watcher) handleDrive(ctx context.Context, d makemkv.Drive) {
	resolutionID := uuid.NewString()[:8]
	ctx = services.WithResolutionID(ctx, resolutionID)
	logger := w.logger.With(
		logging.Int("drive", d.Index),
		logging.String("label", d.Label),
		logging.String("resolution_id", resolutionID))

	w.mu.Lock()
	if label, ok := w.parked[d.Index]; ok && label == d.Label {
		w.mu.Unlock()
		return
	}
	delete(w.parked, d.Index)
	w.mu.Unlock()

	raw, titles, err := w.client.Scan(ctx, d.Index)
	if err != nil {
		logger.Warn("disc scan failed; will retry", logging.Error(err))
		w.notifyError(ctx, err, d.Label)
		if services.NeedsReview(err) {
			// A configuration problem will not fix itself; park the
			// disc until it is ejected.
			w.mu.Lock()
			w.parked[d.Index] = d.Label
			w.mu.Unlock()
		}
		return
	}

	key := makemkv.Signature(raw)
	if key == "" {
		key = d.Label
	}
	if key == "" {
		return
	}

	w.mu.Lock()
	if w.handled[d.Index] == key {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	logger.Info("detected disc", logging.Int("titles", len(titles)))
	if w.notifier != nil {
		if err := w.notifier.NotifyDiscDetected(ctx, d.Label); err != nil {
			logger.Debug("disc notification failed", logging.Error(err))
		}
	}

	res := w.resolver.Resolve(ctx, resolve.Input{
		DriveLabel: d.Label,
		ScanText:   raw,
		Titles:     titles,
	})

	// Remember the disc either way; an unresolvable disc should not be
	// rescanned every poll.
	w.mu.Lock()
	w.handled[d.Index] = key
	w.mu.Unlock()

	if res.Name == "" {
		logger.Warn("no usable title for disc")
		return
	}

	status := history.StatusReview
	switch {
	case res.Source == resolve.SourceMetadata && !res.Suggested:
		status = history.StatusResolved
	case res.Suggested:
		status = history.StatusSuggested
	}

	logger.Info("resolved disc",
		logging.String("name", res.Name),
		logging.String("source", string(res.Source)),
		logging.String("status", status),
		logging.Float64("confidence", res.Match.Confidence))

	w.record(ctx, d, key, res, status, logger)
	w.persistManifest(d, key, res, titles, logger)
	w.notifyOutcome(ctx, res, status, logger)
}

func (w *Watcher) record(ctx context.Context, d makemkv.Drive, signature string, res resolve.Result, status string, logger *slog.Logger) {
	if w.history == nil {
		return
	}
	rec := history.Record{
		DiscSignature: signature,
		DriveLabel:    d.Label,
		Query:         res.Query,
		Title:         res.Name,
		Year:          res.Match.Year,
		ImdbID:        res.Match.ImdbID,
		Confidence:    res.Match.Confidence,
		Source:        string(res.Source),
		Status:        status,
	}
	if _, err := w.history.Add(ctx, rec); err != nil {
		logger.Warn("failed to record resolution", logging.Error(err))
	}
}

func (w *Watcher) persistManifest(d makemkv.Drive, signature string, res resolve.Result, titles []makemkv.Title, logger *slog.Logger) {
	if w.manifest == nil {
		return
	}
	entries := make([]manifest.TitleEntry, 0, len(titles))
	for _, t := range titles {
		entries = append(entries, manifest.TitleEntry{
			ID:      t.ID,
			Name:    t.Name,
			Seconds: t.Seconds,
			Size:    t.Size,
		})
	}
	m := &manifest.Manifest{
		SetID:         w.manifest.MakeSetID(res.Name),
		Title:         res.Name,
		Year:          res.Match.Year,
		ImdbID:        res.Match.ImdbID,
		Confidence:    res.Match.Confidence,
		Query:         res.Query,
		Source:        string(res.Source),
		DriveLabel:    d.Label,
		DiscSignature: signature,
		Titles:        entries,
	}
	if err := w.manifest.Save(m); err != nil {
		logger.Warn("failed to write manifest", logging.Error(err))
		return
	}
	logger.Debug("manifest written", logging.String("set_id", m.SetID))
}

func (w *Watcher) notifyOutcome(ctx context.Context, res resolve.Result, status string, logger *slog.Logger) {
	if w.notifier == nil {
		return
	}
	var err error
	if status == history.StatusResolved {
		err = w.notifier.NotifyResolved(ctx, res.Match.Title, res.Match.Year, res.Match.Confidence)
	} else {
		err = w.notifier.NotifyReview(ctx, res.Query, res.Match.Confidence)
	}
	if err != nil {
		logger.Debug("outcome notification failed", logging.Error(err))
	}
}

func (w *Watcher) notifyError(ctx context.Context, err error, label string) {
	if w.notifier == nil {
		return
	}
	if nerr := w.notifier.NotifyError(ctx, err, label); nerr != nil {
		w.logger.Debug("error notification failed", logging.Error(nerr))
	}
}

// checkFreeSpace pauses detection while the library volume is below the
// configured floor. The low-space notification fires once per episode.
func (w *Watcher) checkFreeSpace(ctx context.Context) bool {
	if w.minFreeBytes == 0 {
		return true
	}
	_, free, err := w.statfs(w.cfg.Paths.LibraryDir)
	if err != nil {
		w.logger.Warn("free space check failed", logging.Error(err))
		return true
	}
	if free >= w.minFreeBytes {
		w.mu.Lock()
		w.lowSpace = false
		w.mu.Unlock()
		return true
	}

	w.mu.Lock()
	first := !w.lowSpace
	w.lowSpace = true
	w.mu.Unlock()

	if first {
		w.logger.Warn("library volume low on space; pausing detection",
			logging.Int64("free_bytes", int64(free)),
			logging.Int64("required_bytes", int64(w.minFreeBytes)))
		w.notifyError(ctx, fmt.Errorf("library volume low on space: %d bytes free", free), "free space check")
	}
	return false
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
