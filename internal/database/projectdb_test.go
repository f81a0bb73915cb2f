package database

import (
	"context"
	"testing"
	"time"

	"github.com/backcheck/backcheck/internal/model"
)

func TestOpenCreatesDatabase(t *testing.T) {
	t.Parallel()

	pdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer pdb.Close()

	if pdb.Path() == "" {
		t.Error("Path() should not be empty")
	}
}

func TestOpenWithoutCreateFails(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.CreateIfNotExists = false
	if _, err := Open(t.TempDir(), opts); err == nil {
		t.Error("Open() on missing database should fail when create is disabled")
	}
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	t.Parallel()

	pdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer pdb.Close()

	ctx := context.Background()
	want := model.ProjectState{
		LastRow: 42,
		Stats: model.Stats{
			Dofollow:       10,
			Nofollow:       5,
			Text:           3,
			Errors:         2,
			NotFound:       22,
			TotalProcessed: 42,
		},
		LastProcessed: time.Date(2026, 8, 23, 12, 30, 0, 0, time.UTC),
	}

	if err := pdb.SaveState(ctx, want); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	got, err := pdb.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if got.LastRow != want.LastRow {
		t.Errorf("LastRow = %d, want %d", got.LastRow, want.LastRow)
	}
	if got.Stats != want.Stats {
		t.Errorf("Stats = %+v, want %+v", got.Stats, want.Stats)
	}
	if !got.LastProcessed.Equal(want.LastProcessed) {
		t.Errorf("LastProcessed = %v, want %v", got.LastProcessed, want.LastProcessed)
	}
	if !got.Stats.Consistent() {
		t.Error("loaded stats should be consistent")
	}
}

func TestSaveStateOverwrites(t *testing.T) {
	t.Parallel()

	pdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer pdb.Close()

	ctx := context.Background()
	for row := 1; row <= 3; row++ {
		state := model.ProjectState{LastRow: row, LastProcessed: time.Now()}
		state.Stats.TotalProcessed = row
		state.Stats.NotFound = row
		if err := pdb.SaveState(ctx, state); err != nil {
			t.Fatalf("SaveState() error = %v", err)
		}
	}

	got, err := pdb.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if got.LastRow != 3 || got.Stats.TotalProcessed != 3 {
		t.Errorf("state = %+v, want last write", got)
	}
}

func TestLoadStateFreshDatabase(t *testing.T) {
	t.Parallel()

	pdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer pdb.Close()

	got, err := pdb.LoadState(context.Background())
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if got != (model.ProjectState{}) {
		t.Errorf("fresh database should yield zero state: %+v", got)
	}
}

func TestReopenKeepsState(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	pdb, err := Open(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	state := model.ProjectState{LastRow: 7, LastProcessed: time.Now()}
	state.Stats.TotalProcessed = 7
	state.Stats.Dofollow = 7
	if err := pdb.SaveState(ctx, state); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}
	if err := pdb.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if got.LastRow != 7 || got.Stats.Dofollow != 7 {
		t.Errorf("state lost across reopen: %+v", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		zero bool
	}{
		{name: "rfc3339nano", in: "2026-08-23T12:30:00.123456789Z"},
		{name: "rfc3339", in: "2026-08-23T12:30:00Z"},
		{name: "sqlite datetime", in: "2026-08-23 12:30:00"},
		{name: "garbage", in: "not a time", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.in)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v", tt.in, got)
			}
		})
	}
}
