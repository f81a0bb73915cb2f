package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/backcheck/backcheck/internal/fetch"
	"github.com/backcheck/backcheck/internal/model"
)

// captureRecorder collects Record calls.
type captureRecorder struct {
	mu       sync.Mutex
	results  []model.Result
	lastRows []int
}

func (r *captureRecorder) Record(result model.Result, lastRow int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	r.lastRows = append(r.lastRows, lastRow)
}

func (r *captureRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func newTestClient() *fetch.Client {
	return fetch.NewClient(fetch.WithTimeout(2 * time.Second))
}

func TestCoordinatorRunFindsTargets(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte(`<html><body><a href="https://target.example/page">our link</a></body></html>`)); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	rec := &captureRecorder{}
	var lastPercent atomic.Value
	c := NewCoordinator(newTestClient(),
		WithThreads(3),
		WithRecorder(rec),
		WithProgress(func(percent float64, _ model.Result, _ int) {
			lastPercent.Store(percent)
		}),
	)

	tasks := []model.Task{
		{Index: 0, DonorURL: srv.URL, TargetURL: "target.example/page"},
		{Index: 1, DonorURL: srv.URL, TargetURL: "target.example/page"},
	}
	if err := c.Run(context.Background(), tasks); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rec.len() != 2 {
		t.Fatalf("recorded = %d, want 2", rec.len())
	}
	for _, r := range rec.results {
		if r.Status != model.StatusFoundStage1 {
			t.Errorf("Status = %q, want found_stage1", r.Status)
		}
		if r.FollowType != model.FollowDofollow {
			t.Errorf("FollowType = %q", r.FollowType)
		}
	}
	if got := lastPercent.Load().(float64); got != 100 {
		t.Errorf("final percent = %v, want 100", got)
	}
}

func TestCoordinatorInvalidURLSkipsFetch(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := &captureRecorder{}
	c := NewCoordinator(newTestClient(), WithRecorder(rec))

	if err := c.Run(context.Background(), []model.Task{{Index: 0, DonorURL: "   "}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rec.len() != 1 || rec.results[0].Status != model.StatusInvalidURL {
		t.Fatalf("results = %+v, want invalid_url", rec.results)
	}
	if hits.Load() != 0 {
		t.Errorf("invalid URLs must not be fetched: %d hits", hits.Load())
	}
}

func TestCoordinatorPrependsScheme(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("<html><body>nothing here</body></html>")); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	rec := &captureRecorder{}
	c := NewCoordinator(newTestClient(), WithRecorder(rec))

	bare := strings.TrimPrefix(srv.URL, "http://")
	if err := c.Run(context.Background(), []model.Task{{Index: 0, DonorURL: bare, TargetURL: "missing.example"}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rec.len() != 1 {
		t.Fatal("expected one result")
	}
	if rec.results[0].Status != model.StatusNotFound {
		t.Errorf("Status = %q, want not_found (page fetched, nothing matched)", rec.results[0].Status)
	}
	if !strings.HasPrefix(rec.results[0].DonorURL, "http://") {
		t.Errorf("DonorURL = %q, want http:// prefix", rec.results[0].DonorURL)
	}
}

func TestCoordinatorFetchFailureYieldsError(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}
	c := NewCoordinator(newTestClient(), WithRecorder(rec))

	if err := c.Run(context.Background(), []model.Task{{Index: 0, DonorURL: "http://127.0.0.1:1/dead"}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rec.len() != 1 || rec.results[0].Status != model.StatusError {
		t.Fatalf("results = %+v, want error status", rec.results)
	}
}

func TestCoordinatorStopKeepsResumePosition(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("<html></html>")); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	rec := &captureRecorder{}
	var stoppedSeen atomic.Int64
	var c *Coordinator
	c = NewCoordinator(newTestClient(),
		WithThreads(1),
		WithRecorder(rec),
		WithProgress(func(_ float64, r model.Result, _ int) {
			if r.Status == model.StatusStopped {
				stoppedSeen.Add(1)
				return
			}
			c.Stop()
		}),
	)

	tasks := make([]model.Task, 10)
	for i := range tasks {
		tasks[i] = model.Task{Index: i, DonorURL: srv.URL}
	}
	if err := c.Run(context.Background(), tasks); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Only the task processed before Stop() is recorded; the other nine
	// surface in the progress output as stopped and stay pending.
	if rec.len() != 1 {
		t.Fatalf("recorded = %d, want 1 (stopped tasks must not be recorded)", rec.len())
	}
	if rec.lastRows[0] != 1 {
		t.Errorf("resume position = %d, want 1 (last genuinely processed row)", rec.lastRows[0])
	}
	if got := stoppedSeen.Load(); got != 9 {
		t.Errorf("stopped results in progress output = %d, want 9", got)
	}
	if !c.Stopped() {
		t.Error("Stopped() should report true")
	}
}

// panickyRecorder panics on its first Record call and behaves normally
// afterwards, so the synthetic result produced by the recovery path
// still lands in the capture.
type panickyRecorder struct {
	captureRecorder
	tripped atomic.Bool
}

func (r *panickyRecorder) Record(result model.Result, lastRow int) {
	if r.tripped.CompareAndSwap(false, true) {
		panic("recorder exploded")
	}
	r.captureRecorder.Record(result, lastRow)
}

func TestCoordinatorPanicKeepsResumePosition(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("<html></html>")); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	rec := &panickyRecorder{}
	c := NewCoordinator(newTestClient(), WithThreads(1), WithRecorder(rec))

	if err := c.Run(context.Background(), []model.Task{{Index: 7, DonorURL: srv.URL}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rec.len() != 1 {
		t.Fatalf("recorded = %d, want 1 synthetic result", rec.len())
	}
	if rec.results[0].Status != model.StatusError {
		t.Errorf("Status = %q, want error", rec.results[0].Status)
	}
	// A synthetic result has no input row, so the persisted resume
	// position must stay untouched.
	if rec.lastRows[0] != 0 {
		t.Errorf("lastRow = %d, want 0 (leave resume position unchanged)", rec.lastRows[0])
	}
}

func TestCoordinatorLastRowDefaultFollowsCompletions(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("<html></html>")); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	rec := &captureRecorder{}
	c := NewCoordinator(newTestClient(), WithThreads(1), WithRecorder(rec))

	// Indexes arrive out of order, as they would when a resumed run
	// mixes with concurrent completion order.
	tasks := []model.Task{
		{Index: 5, DonorURL: srv.URL},
		{Index: 2, DonorURL: srv.URL},
	}
	if err := c.Run(context.Background(), tasks); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Default mode records completedIndex+1 verbatim, so the persisted
	// position moves backwards here.
	want := []int{6, 3}
	for i, got := range rec.lastRows {
		if got != want[i] {
			t.Errorf("lastRows[%d] = %d, want %d", i, got, want[i])
		}
	}
}

func TestCoordinatorLastRowMonotonic(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("<html></html>")); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	rec := &captureRecorder{}
	c := NewCoordinator(newTestClient(), WithThreads(1), WithRecorder(rec), WithMonotonicLastRow())

	tasks := []model.Task{
		{Index: 5, DonorURL: srv.URL},
		{Index: 2, DonorURL: srv.URL},
	}
	if err := c.Run(context.Background(), tasks); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []int{6, 6}
	for i, got := range rec.lastRows {
		if got != want[i] {
			t.Errorf("lastRows[%d] = %d, want %d", i, got, want[i])
		}
	}
}

func TestCoordinatorEmptyTaskList(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(newTestClient())
	if err := c.Run(context.Background(), nil); err != nil {
		t.Errorf("Run(nil) = %v, want nil", err)
	}
}

func TestCoordinatorStage3ViaDomains(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte(`<html><body><a href="https://partner.example/deal" rel="nofollow">deal</a></body></html>`)); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	rec := &captureRecorder{}
	c := NewCoordinator(newTestClient(), WithRecorder(rec), WithDomains([]string{"partner.example"}))

	if err := c.Run(context.Background(), []model.Task{{Index: 0, DonorURL: srv.URL}}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rec.len() != 1 {
		t.Fatal("expected one result")
	}
	r := rec.results[0]
	if r.Status != model.StatusFoundStage3 {
		t.Errorf("Status = %q, want found_stage3", r.Status)
	}
	if r.FollowType != model.FollowNofollow {
		t.Errorf("FollowType = %q", r.FollowType)
	}
}
