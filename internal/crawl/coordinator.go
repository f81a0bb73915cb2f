package crawl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/backcheck/backcheck/internal/config"
	"github.com/backcheck/backcheck/internal/fetch"
	"github.com/backcheck/backcheck/internal/match"
	"github.com/backcheck/backcheck/internal/model"
)

// ProgressFunc is called on every task completion. percent is overall
// progress in [0,100]; index is the task's input row, or -1 for
// synthetic error results that could not be tied to a row.
type ProgressFunc func(percent float64, result model.Result, index int)

// Recorder persists completed results. Satisfied by the checkpoint
// store.
type Recorder interface {
	Record(result model.Result, lastRow int)
}

// Coordinator fans tasks out to a bounded worker pool and funnels
// every completion through the recorder and the progress callback.
type Coordinator struct {
	client   *fetch.Client
	picker   fetch.Picker
	domains  []string
	threads  int
	logger   *slog.Logger
	recorder Recorder
	progress ProgressFunc

	// monotonicLastRow makes the persisted resume position never move
	// backwards. The default mirrors long-standing behavior: the resume
	// position is whatever row completed last, which under concurrency
	// can be smaller than rows already recorded. See Run.
	monotonicLastRow bool

	stop      atomic.Bool
	completed atomic.Int64
	maxRow    atomic.Int64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPicker sets the proxy picker used for fetch retries.
func WithPicker(p fetch.Picker) Option {
	return func(c *Coordinator) { c.picker = p }
}

// WithDomains sets the stage-3 domain list.
func WithDomains(domains []string) Option {
	return func(c *Coordinator) { c.domains = domains }
}

// WithThreads sets the worker pool size.
func WithThreads(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.threads = n
		}
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithRecorder sets the result recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithProgress sets the progress callback.
func WithProgress(f ProgressFunc) Option {
	return func(c *Coordinator) { c.progress = f }
}

// WithMonotonicLastRow makes the persisted resume position the maximum
// completed row instead of the most recently completed one.
func WithMonotonicLastRow() Option {
	return func(c *Coordinator) { c.monotonicLastRow = true }
}

// NewCoordinator creates a Coordinator around the given fetch client.
func NewCoordinator(client *fetch.Client, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:  client,
		threads: config.DefaultThreads,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stop requests a cooperative stop. Tasks not yet dispatched are
// reported to the progress callback as stopped but are never recorded,
// so they stay pending for a resumed run; in-flight fetches run to
// completion and their results are still recorded.
func (c *Coordinator) Stop() {
	c.stop.Store(true)
}

// Stopped reports whether a stop was requested.
func (c *Coordinator) Stopped() bool {
	return c.stop.Load()
}

// Run processes all tasks with the configured concurrency. It returns
// only when every task has been accounted for, either processed or
// marked stopped.
//
// The resume position written with each result is completedIndex+1 of
// that result. With concurrent workers completing out of order the
// persisted value can briefly move backwards; a resume then reprocesses
// a few rows, which is safe because results are idempotent.
// WithMonotonicLastRow switches to the maximum instead.
func (c *Coordinator) Run(ctx context.Context, tasks []model.Task) error {
	total := len(tasks)
	if total == 0 {
		return nil
	}

	c.logger.Debug("starting crawl", "tasks", total, "threads", c.threads)

	var emitMu sync.Mutex
	emit := func(result model.Result, index int) {
		completed := c.completed.Add(1)
		percent := float64(completed) / float64(total) * 100

		// One completion at a time keeps recorder writes and progress
		// callbacks in a consistent order.
		emitMu.Lock()
		defer emitMu.Unlock()
		// Stopped tasks were never processed: they reach the progress
		// callback so no row disappears from the output, but they must
		// not touch the counters or the resume position.
		if c.recorder != nil && result.Status != model.StatusStopped {
			c.recorder.Record(result, c.nextLastRow(index))
		}
		if c.progress != nil {
			c.progress(percent, result, index)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.threads)

	for _, task := range tasks {
		if c.stop.Load() {
			// Undispatched tasks surface as stopped in the progress
			// output but stay unrecorded, so a resumed run picks them
			// up again.
			emit(model.Result{DonorURL: task.DonorURL, Status: model.StatusStopped}, task.Index)
			continue
		}

		g.Go(func() error {
			c.runTask(ctx, task, emit)
			return nil
		})
	}

	err := g.Wait()
	c.logger.Debug("crawl finished", "completed", c.completed.Load(), "stopped", c.stop.Load())
	return err
}

// nextLastRow computes the resume position persisted with the result
// of the task at index. Synthetic results with no input row return
// zero, which the recorder treats as "leave the position unchanged".
func (c *Coordinator) nextLastRow(index int) int {
	if index < 0 {
		return 0
	}
	lastRow := index + 1
	if c.monotonicLastRow {
		for {
			current := c.maxRow.Load()
			if int64(lastRow) <= current {
				return int(current)
			}
			if c.maxRow.CompareAndSwap(current, int64(lastRow)) {
				return lastRow
			}
		}
	}
	return lastRow
}

// runTask processes one task and always emits exactly one result. A
// panic in processing is converted into a synthetic error result with
// index -1 rather than killing the whole run.
func (c *Coordinator) runTask(ctx context.Context, task model.Task, emit func(model.Result, int)) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("task processing panicked", "donor", task.DonorURL, "panic", r)
			emit(model.Result{Status: model.StatusError}, -1)
		}
	}()

	if c.stop.Load() {
		emit(model.Result{DonorURL: task.DonorURL, Status: model.StatusStopped}, task.Index)
		return
	}

	emit(c.process(ctx, task), task.Index)
}

// process fetches and matches one donor page.
func (c *Coordinator) process(ctx context.Context, task model.Task) model.Result {
	donor := strings.TrimSpace(task.DonorURL)
	if donor == "" {
		return model.Result{DonorURL: donor, Status: model.StatusInvalidURL}
	}
	if !strings.HasPrefix(donor, "http://") && !strings.HasPrefix(donor, "https://") {
		donor = "http://" + donor
	}

	content, attempts, err := c.client.FetchWithRetry(ctx, donor, c.picker)
	if err != nil {
		c.logger.Debug("donor fetch failed", "donor", donor, "attempts", attempts, "error", err)
		return model.Result{DonorURL: donor, Status: model.StatusError}
	}

	found, err := match.Page(content, match.Criteria{
		TargetURL:  task.TargetURL,
		AnchorText: task.AnchorText,
		Domains:    c.domains,
	})
	if err != nil {
		c.logger.Debug("donor page unparseable", "donor", donor, "error", err)
		return model.Result{DonorURL: donor, Status: model.StatusError}
	}
	if found == nil {
		return model.Result{DonorURL: donor, Status: model.StatusNotFound}
	}

	return model.Result{
		DonorURL:   donor,
		FoundURL:   found.URL,
		LinkType:   found.LinkType,
		FollowType: found.FollowType,
		AnchorText: found.AnchorText,
		Status:     found.Status,
	}
}
