package checkpoint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backcheck/backcheck/internal/model"
)

func newTestProject(t *testing.T) *Project {
	t.Helper()

	input := filepath.Join(t.TempDir(), "donors.csv")
	if err := os.WriteFile(input, []byte("Donor\nhttp://a.example\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := OpenProject(input, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func foundResult(donor string) model.Result {
	return model.Result{
		DonorURL:   donor,
		FoundURL:   "https://target.example/",
		LinkType:   model.LinkTypeLink,
		FollowType: model.FollowDofollow,
		Status:     model.StatusFoundStage1,
	}
}

func chunkFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "chunks_") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	return names
}

func reportFiles(t *testing.T, dir, prefix string) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, prefix+"_*.csv"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func TestStoreRecordKeepsInvariant(t *testing.T) {
	t.Parallel()

	s, err := NewStore(newTestProject(t), nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()

	results := []model.Result{
		foundResult("http://a.example"),
		{DonorURL: "http://b.example", Status: model.StatusNotFound},
		{DonorURL: "http://c.example", Status: model.StatusError},
		{DonorURL: "http://d.example", LinkType: model.LinkTypeText, FollowType: model.FollowText, Status: model.StatusFoundStage2},
		{DonorURL: "", Status: model.StatusInvalidURL},
	}
	for i, r := range results {
		s.Record(r, i+1)
	}

	state := s.State()
	if !state.Stats.Consistent() {
		t.Errorf("stats inconsistent: %+v", state.Stats)
	}
	if state.Stats.TotalProcessed != len(results) {
		t.Errorf("TotalProcessed = %d, want %d", state.Stats.TotalProcessed, len(results))
	}
	if state.LastRow != len(results) {
		t.Errorf("LastRow = %d, want %d", state.LastRow, len(results))
	}
}

func TestStoreStatsFlushCadence(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)

	s, err := NewStore(project, nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		s.Record(foundResult("http://a.example"), i+1)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// The 10th record crossed the flush cadence, so a fresh store must
	// see the persisted counters without a Finalize.
	reopened, err := NewStore(project, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	state := reopened.State()
	if state.Stats.TotalProcessed != 10 {
		t.Errorf("TotalProcessed = %d, want 10 after cadence flush", state.Stats.TotalProcessed)
	}
	if state.LastRow != 10 {
		t.Errorf("LastRow = %d, want 10", state.LastRow)
	}
}

func TestStoreChunkFlushCadence(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)
	s, err := NewStore(project, nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()

	for i := 0; i < 99; i++ {
		s.Record(foundResult("http://a.example"), i+1)
	}
	if got := chunkFiles(t, project.Dir); len(got) != 0 {
		t.Errorf("no chunk expected before the 100th result: %v", got)
	}

	s.Record(foundResult("http://a.example"), 100)
	if got := chunkFiles(t, project.Dir); len(got) != 1 {
		t.Errorf("chunk files = %v, want exactly one", got)
	}
}

func TestStoreFinalizeWritesReportsAndCleansChunks(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)
	s, err := NewStore(project, nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()

	s.Record(foundResult("http://a.example"), 1)
	s.Record(model.Result{DonorURL: "http://b.example", Status: model.StatusNotFound}, 2)
	s.Record(model.Result{
		DonorURL:   "http://c.example",
		FoundURL:   "https://t.example/",
		LinkType:   model.LinkTypeLink,
		FollowType: model.FollowNofollow,
		Status:     model.StatusFoundStage3,
	}, 3)

	if err := s.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	var fullReport string
	for _, prefix := range []string{"dofollow_links", "nofollow_links", "text_links", "not_found", "full_report"} {
		got := reportFiles(t, project.Dir, prefix)
		if len(got) != 1 {
			t.Errorf("%s reports = %v, want exactly one", prefix, got)
			continue
		}
		if prefix == "full_report" {
			fullReport = got[0]
		}
	}
	if got := chunkFiles(t, project.Dir); len(got) != 0 {
		t.Errorf("chunks should be deleted after finalize: %v", got)
	}

	data, err := os.ReadFile(fullReport)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "http://a.example") || !strings.Contains(string(data), "http://c.example") {
		t.Errorf("full report incomplete:\n%s", data)
	}
}

func TestStoreFinalizeEmptyIsIdempotent(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)
	s, err := NewStore(project, nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()

	if err := s.Finalize(); err != nil {
		t.Fatalf("first Finalize() error = %v", err)
	}
	if err := s.Finalize(); err != nil {
		t.Fatalf("second Finalize() error = %v", err)
	}

	if got := reportFiles(t, project.Dir, "full_report"); len(got) != 0 {
		t.Errorf("empty finalize should not write reports: %v", got)
	}
}

func TestStoreRecordWithoutRowKeepsPosition(t *testing.T) {
	t.Parallel()

	s, err := NewStore(newTestProject(t), nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()

	s.Record(foundResult("http://a.example"), 5)
	s.Record(model.Result{Status: model.StatusError}, 0)

	state := s.State()
	if state.LastRow != 5 {
		t.Errorf("LastRow = %d, want 5 (rowless result must not move it)", state.LastRow)
	}
	if state.Stats.Errors != 1 || state.Stats.TotalProcessed != 2 {
		t.Errorf("stats = %+v, rowless result must still be counted", state.Stats)
	}
}

func TestStoreFinalizeKeepsEarlierReports(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)
	s, err := NewStore(project, nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()

	s.Record(foundResult("http://first.example"), 1)
	if err := s.Finalize(); err != nil {
		t.Fatalf("first Finalize() error = %v", err)
	}

	s.Record(foundResult("http://second.example"), 2)
	if err := s.Finalize(); err != nil {
		t.Fatalf("second Finalize() error = %v", err)
	}

	reports := reportFiles(t, project.Dir, "full_report")
	if len(reports) != 2 {
		t.Fatalf("full reports = %v, want one per finalize", reports)
	}

	var combined strings.Builder
	for _, path := range reports {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		combined.Write(data)
	}
	for _, donor := range []string{"http://first.example", "http://second.example"} {
		if !strings.Contains(combined.String(), donor) {
			t.Errorf("result for %s lost across stop and resume", donor)
		}
	}
}

func TestStoreResumeAccumulates(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)

	s, err := NewStore(project, nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		s.Record(foundResult("http://a.example"), i+1)
	}
	if err := s.Finalize(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	resumed, err := NewStore(project, nil)
	if err != nil {
		t.Fatalf("resume error = %v", err)
	}
	defer resumed.Close()

	resumed.Record(foundResult("http://z.example"), 21)
	state := resumed.State()
	if state.Stats.TotalProcessed != 21 {
		t.Errorf("TotalProcessed = %d, want 21 across resume", state.Stats.TotalProcessed)
	}
	if !state.Stats.Consistent() {
		t.Errorf("stats inconsistent after resume: %+v", state.Stats)
	}
}
