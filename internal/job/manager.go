package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"merchlens/internal/checkpoint"
	"merchlens/internal/config"
	"merchlens/internal/logging"
	"merchlens/internal/notifications"
	"merchlens/internal/preflight"
	"merchlens/internal/records"
	"merchlens/internal/sheet"
)

// Completion messages reported exactly once per run.
const (
	MessageCompleted = "Completed Successfully"
	MessageStopped   = "Stopped"
	messageFailedFmt = "Failed: %s"
)

// RecordResolver converts one raw record into one resolved record.
type RecordResolver interface {
	Resolve(ctx context.Context, raw records.RawRecord) (records.ResolvedRecord, error)
}

// Callbacks receive progress and completion events. They are invoked from
// the worker goroutine; callers must marshal to their own context as
// needed. Nil callbacks are skipped.
type Callbacks struct {
	Status     func(processed, total int, message string)
	Completion func(message string)
}

var errStopRequested = errors.New("stop requested")

// Manager runs one batch job with exactly one background worker.
type Manager struct {
	cfg      *config.Config
	settings records.JobSettings
	resolver RecordResolver
	store    *checkpoint.Store
	notifier notifications.Service
	logger   *slog.Logger
	cb       Callbacks

	checkpointInterval int
	preflightFn        func(ctx context.Context) error

	mu        sync.Mutex
	running   bool
	paused    bool
	gate      chan struct{}
	stopCh    chan struct{}
	stopOnce  *sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	processed int
	totalCost float64

	completionOnce sync.Once
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithNotifier overrides the notification service.
func WithNotifier(notifier notifications.Service) Option {
	return func(m *Manager) {
		if notifier != nil {
			m.notifier = notifier
		}
	}
}

// WithCallbacks registers the status and completion callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(m *Manager) {
		m.cb = cb
	}
}

// WithPreflight overrides the preflight run (used in tests and by callers
// that already verified readiness).
func WithPreflight(fn func(ctx context.Context) error) Option {
	return func(m *Manager) {
		if fn != nil {
			m.preflightFn = fn
		}
	}
}

// New constructs a Manager for one job. The settings are deep-copied so
// later caller-side mutation cannot race the worker.
func New(cfg *config.Config, settings records.JobSettings, resolver RecordResolver, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("job: configuration required")
	}
	if resolver == nil {
		return nil, errors.New("job: resolver required")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	settings = settings.Clone()
	if len(settings.OutputColumns) == 0 {
		settings.OutputColumns = records.DefaultOutputColumns()
	}

	m := &Manager{
		cfg:                cfg,
		settings:           settings,
		resolver:           resolver,
		store:              checkpoint.NewStore(settings.InputPath),
		notifier:           notifications.NewService(cfg.Notifications),
		logger:             logging.NewNop(),
		checkpointInterval: cfg.Workflow.CheckpointInterval,
	}
	if m.checkpointInterval <= 0 {
		m.checkpointInterval = 50
	}
	m.preflightFn = func(ctx context.Context) error {
		return preflight.Err(preflight.RunAll(ctx, cfg, m.settings))
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start runs preflight synchronously, then spawns the worker and returns.
// Calling Start while the job is already running is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if err := m.preflightFn(ctx); err != nil {
		return err
	}
	if err := m.store.Acquire(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		cancel()
		m.store.Release()
		return nil
	}
	m.running = true
	m.cancel = cancel
	m.paused = false
	m.gate = openGate()
	m.stopCh = make(chan struct{})
	m.stopOnce = &sync.Once{}
	m.processed = 0
	m.totalCost = 0
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Pause blocks the worker at the next row boundary. An in-flight external
// call is never interrupted.
func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running || m.paused {
		return
	}
	m.paused = true
	m.gate = make(chan struct{})
}

// Resume unblocks a paused worker.
func (m *Manager) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.paused {
		return
	}
	m.paused = false
	close(m.gate)
}

// Stop requests a cooperative stop at the next row boundary. Partial
// results are flushed to the output file and the checkpoint is kept so the
// job can resume later.
func (m *Manager) Stop() {
	m.mu.Lock()
	once := m.stopOnce
	stopCh := m.stopCh
	m.mu.Unlock()
	if once == nil {
		return
	}
	once.Do(func() { close(stopCh) })
}

// Wait blocks until the worker has exited.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Running reports whether a worker is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Progress returns the processed row count and accumulated spend so far.
func (m *Manager) Progress() (int, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed, m.totalCost
}

func openGate() chan struct{} {
	gate := make(chan struct{})
	close(gate)
	return gate
}

func (m *Manager) run(ctx context.Context) {
	started := time.Now()
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		m.running = false
		cancel := m.cancel
		m.cancel = nil
		m.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		m.store.Release()
	}()

	settings := m.settings
	accumulated := []records.ResolvedRecord(nil)
	resumeCursor := settings.StartRow

	if snap, err := m.store.Load(settings.InputPath); err != nil {
		m.finishFailed(ctx, fmt.Errorf("load checkpoint: %w", err))
		return
	} else if snap != nil {
		settings = snap.JobSettings.Clone()
		if len(settings.OutputColumns) == 0 {
			settings.OutputColumns = records.DefaultOutputColumns()
		}
		accumulated = append(accumulated, snap.ProcessedRecords...)
		resumeCursor = snap.LastProcessedRow + 1
		m.logger.Info("resuming from checkpoint",
			logging.Int("last_processed_row", snap.LastProcessedRow),
			logging.Int("restored_records", len(accumulated)),
		)
	}
	restored := len(accumulated)

	table, err := sheet.Open(settings.InputPath)
	if err != nil {
		m.finishFailed(ctx, err)
		return
	}
	defer table.Close()

	// The configured window stays fixed for output alignment; the
	// effective window skips rows the checkpoint already covers.
	endRow := settings.EndRow
	if last := table.LastRow(); endRow > last {
		endRow = last
	}
	effectiveStart := settings.StartRow
	if resumeCursor > effectiveStart {
		effectiveStart = resumeCursor
	}
	total := endRow - settings.StartRow + 1
	if total < 0 {
		total = 0
	}

	m.setProgress(len(accumulated), costOf(accumulated))
	_ = m.notifier.NotifyJobStarted(ctx, settings.InputPath, total)

	stopped := false
	sinceCheckpoint := 0
	for row := effectiveStart; row <= endRow; row++ {
		if err := m.waitAtRowBoundary(ctx); err != nil {
			stopped = true
			break
		}

		rec, stop := m.processRow(ctx, table, settings, row)
		if stop {
			stopped = true
			break
		}
		accumulated = append(accumulated, rec)
		sinceCheckpoint++
		m.setProgress(len(accumulated), costOf(accumulated))
		m.status(len(accumulated), total, fmt.Sprintf("Processed row %d", row))

		if sinceCheckpoint >= m.checkpointInterval {
			if err := m.saveCheckpoint(row, settings, accumulated); err != nil {
				m.logger.Warn("checkpoint write failed", logging.Error(err))
			} else {
				sinceCheckpoint = 0
			}
		}
	}

	actualStart := effectiveStart - restored
	lastRow := effectiveStart + (len(accumulated) - restored) - 1

	if stopped {
		if len(accumulated) > 0 {
			if err := m.saveCheckpoint(lastRow, settings, accumulated); err != nil {
				m.logger.Error("checkpoint write on stop failed", logging.Error(err))
			}
			if err := writeOutput(table, actualStart, accumulated, settings); err != nil {
				m.finishFailed(ctx, err)
				return
			}
		}
		m.finish(MessageStopped)
		_ = m.notifier.NotifyJobStopped(ctx, settings.InputPath, len(accumulated))
		return
	}

	if len(accumulated) > 0 {
		if err := writeOutput(table, actualStart, accumulated, settings); err != nil {
			// The checkpoint survives an output failure so the run can
			// be retried from the last good state.
			if cperr := m.saveCheckpoint(lastRow, settings, accumulated); cperr != nil {
				m.logger.Error("checkpoint write after output failure failed", logging.Error(cperr))
			}
			m.finishFailed(ctx, err)
			return
		}
	}
	if err := m.store.Delete(); err != nil {
		m.logger.Warn("checkpoint delete failed", logging.Error(err))
	}
	m.finish(MessageCompleted)
	_ = m.notifier.NotifyJobCompleted(ctx, settings.InputPath, len(accumulated), costOf(accumulated), time.Since(started))
}

// processRow resolves one sheet row, converting every failure into a
// FATAL_ERROR record so a single bad row never aborts the batch. The stop
// return is true only for cancellation.
func (m *Manager) processRow(ctx context.Context, table *sheet.Table, settings records.JobSettings, row int) (rec records.ResolvedRecord, stop bool) {
	defer func() {
		if r := recover(); r != nil {
			rec = failureRecord(records.ResolvedRecord{}, row, fmt.Errorf("panic: %v", r))
		}
	}()

	raw, err := table.Record(row, settings.ColumnMapping)
	if err != nil {
		return failureRecord(records.ResolvedRecord{}, row, err), false
	}

	resolved, err := m.resolver.Resolve(ctx, raw)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return records.ResolvedRecord{}, true
		}
		m.logger.Warn("row resolution failed",
			logging.Int("row", row),
			logging.String("merchant", raw.Name),
			logging.Error(err),
		)
		return failureRecord(resolved, row, err), false
	}
	return resolved, false
}

// failureRecord converts a row-level error into the FATAL_ERROR marker,
// keeping whatever evidence and cost the resolver accumulated first.
func failureRecord(partial records.ResolvedRecord, row int, err error) records.ResolvedRecord {
	partial.CleanedName = ""
	partial.Website = ""
	partial.Socials = nil
	partial.LogoFilename = ""
	partial.Remarks = records.FatalErrorPrefix + err.Error()
	note := fmt.Sprintf("row %d could not be resolved: %v", row, err)
	if partial.Evidence == "" {
		partial.Evidence = note
	} else {
		partial.Evidence += "\n" + note
	}
	return partial
}

// waitAtRowBoundary blocks while paused and reports stop or cancellation.
// The pause gate is a channel closed when processing may proceed, so a
// paused worker sleeps on select instead of polling.
func (m *Manager) waitAtRowBoundary(ctx context.Context) error {
	for {
		m.mu.Lock()
		gate := m.gate
		stopCh := m.stopCh
		m.mu.Unlock()

		select {
		case <-stopCh:
			return errStopRequested
		case <-ctx.Done():
			return ctx.Err()
		case <-gate:
		}

		// The gate may have been swapped by a Pause between the select
		// and here; loop until an open gate and no stop are observed
		// together.
		select {
		case <-stopCh:
			return errStopRequested
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		m.mu.Lock()
		stillPaused := m.paused
		m.mu.Unlock()
		if !stillPaused {
			return nil
		}
	}
}

func (m *Manager) saveCheckpoint(lastRow int, settings records.JobSettings, accumulated []records.ResolvedRecord) error {
	return m.store.Save(checkpoint.Snapshot{
		LastProcessedRow: lastRow,
		JobSettings:      settings,
		ProcessedRecords: accumulated,
	})
}

// writeOutput loads nothing extra: the open table already holds the full
// original sheet, so the projection overwrites only the resolved slice and
// the save rewrites the whole file.
func writeOutput(table *sheet.Table, actualStart int, accumulated []records.ResolvedRecord, settings records.JobSettings) error {
	if err := table.ApplyProjection(actualStart, accumulated, settings.OutputColumns); err != nil {
		return err
	}
	return table.Write(settings.OutputPath)
}

func (m *Manager) setProgress(processed int, totalCost float64) {
	m.mu.Lock()
	m.processed = processed
	m.totalCost = totalCost
	m.mu.Unlock()
}

func (m *Manager) status(processed, total int, message string) {
	if m.cb.Status != nil {
		m.cb.Status(processed, total, message)
	}
}

func (m *Manager) finish(message string) {
	m.completionOnce.Do(func() {
		m.logger.Info("job finished", logging.String("result", message))
		if m.cb.Completion != nil {
			m.cb.Completion(message)
		}
	})
}

func (m *Manager) finishFailed(ctx context.Context, err error) {
	m.logger.Error("job failed", logging.Error(err))
	m.finish(fmt.Sprintf(messageFailedFmt, err.Error()))
	_ = m.notifier.NotifyJobFailed(ctx, m.settings.InputPath, err.Error())
}

func costOf(recs []records.ResolvedRecord) float64 {
	var total float64
	for _, r := range recs {
		total += r.AccumulatedCost
	}
	return total
}
