package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/backcheck/backcheck/internal/database"
	"github.com/backcheck/backcheck/internal/model"
	"github.com/backcheck/backcheck/internal/report"
)

const (
	// statsFlushEvery is how many processed results trigger a durable
	// stats write.
	statsFlushEvery = 10

	// chunkFlushEvery is how many buffered results trigger a chunk file
	// write.
	chunkFlushEvery = 100

	// chunkPrefix and chunkSuffix frame the buffered chunk file names.
	chunkPrefix = "chunks_"
	chunkSuffix = ".json"
)

// Store accumulates results and persists progress on a fixed cadence.
// It serializes all updates internally, so workers can report results
// concurrently.
//
// Persistence failures are logged and swallowed: losing a checkpoint
// must not kill a run that is otherwise making progress.
type Store struct {
	mu      sync.Mutex
	project *Project
	db      *database.ProjectDB
	state   model.ProjectState
	buffer  []model.Result
	written int
	logger  *slog.Logger
}

// NewStore opens the project database and loads persisted state.
func NewStore(project *Project, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := database.Open(project.Dir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("open project database: %w", err)
	}

	state, err := db.LoadState(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load project state: %w", err)
	}

	return &Store{
		project: project,
		db:      db,
		state:   state,
		logger:  logger,
	}, nil
}

// Close flushes nothing and closes the database. Call Finalize first
// on a normal shutdown.
func (s *Store) Close() error {
	return s.db.Close()
}

// State returns a copy of the current progress record.
func (s *Store) State() model.ProjectState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Record accounts one completed task: counters, the durable stats
// cadence, the result buffer, and the chunk flush cadence. lastRow is
// the resume position the caller wants persisted with this result; a
// value of zero or less leaves the stored position unchanged, for
// results that cannot be tied to an input row.
func (s *Store) Record(result model.Result, lastRow int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Stats.Add(result.Category())
	if lastRow > 0 {
		s.state.LastRow = lastRow
	}

	if s.state.Stats.TotalProcessed%statsFlushEvery == 0 {
		s.flushStatsLocked()
	}

	s.buffer = append(s.buffer, result)
	s.written++
	if s.written%chunkFlushEvery == 0 {
		s.flushChunkLocked()
	}
}

// flushStatsLocked writes the progress record. Callers hold s.mu.
func (s *Store) flushStatsLocked() {
	s.state.LastProcessed = time.Now()
	if err := s.db.SaveState(context.Background(), s.state); err != nil {
		s.logger.Warn("failed to persist project state", "project", s.project.Name, "error", err)
	}
}

// flushChunkLocked writes the buffered results to a chunk file and
// clears the buffer. Callers hold s.mu.
func (s *Store) flushChunkLocked() {
	if len(s.buffer) == 0 {
		return
	}

	name := fmt.Sprintf("%s%s_%d%s", chunkPrefix, time.Now().Format("20060102_150405"), s.written, chunkSuffix)
	path := filepath.Join(s.project.Dir, name)

	data, err := json.MarshalIndent(s.buffer, "", "  ")
	if err != nil {
		s.logger.Warn("failed to marshal result chunk", "project", s.project.Name, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		s.logger.Warn("failed to write result chunk", "project", s.project.Name, "error", err)
		return
	}

	s.buffer = s.buffer[:0]
	s.logger.Debug("flushed result chunk", "file", name)
}

// Finalize flushes the remaining buffer, gathers every chunk file,
// writes a timestamped set of partitioned CSV reports plus the full
// report, deletes the chunks, and persists the final state. With no
// results and no chunks it only writes the state, so finalizing twice
// is harmless.
func (s *Store) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushChunkLocked()

	results, err := s.readChunksLocked()
	if err != nil {
		return err
	}

	if len(results) > 0 {
		// Report names carry the finalize time and the running total, so
		// each stop-finalize-resume cycle keeps its own report set.
		ts := time.Now()
		total := s.state.Stats.TotalProcessed
		parts := report.Partition(results)
		for category := range report.PartitionFilePrefixes {
			name := report.PartitionFileName(category, ts, total)
			if err := report.WriteCSV(filepath.Join(s.project.Dir, name), parts[category]); err != nil {
				return fmt.Errorf("write %s report: %w", category, err)
			}
		}
		if err := report.WriteCSV(filepath.Join(s.project.Dir, report.FullReportFileName(ts, total)), results); err != nil {
			return fmt.Errorf("write full report: %w", err)
		}
		s.deleteChunksLocked()
	}

	s.flushStatsLocked()
	return nil
}

// readChunksLocked loads every chunk file in name order. Name order is
// write order because the names embed a timestamp and the running
// result count.
func (s *Store) readChunksLocked() ([]model.Result, error) {
	names, err := s.chunkNamesLocked()
	if err != nil {
		return nil, err
	}

	var results []model.Result
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.project.Dir, name))
		if err != nil {
			s.logger.Warn("failed to read result chunk", "file", name, "error", err)
			continue
		}
		var chunk []model.Result
		if err := json.Unmarshal(data, &chunk); err != nil {
			s.logger.Warn("failed to parse result chunk", "file", name, "error", err)
			continue
		}
		results = append(results, chunk...)
	}
	return results, nil
}

func (s *Store) chunkNamesLocked() ([]string, error) {
	entries, err := os.ReadDir(s.project.Dir)
	if err != nil {
		return nil, fmt.Errorf("list project directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, chunkPrefix) && strings.HasSuffix(name, chunkSuffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) deleteChunksLocked() {
	names, err := s.chunkNamesLocked()
	if err != nil {
		s.logger.Warn("failed to list chunks for cleanup", "error", err)
		return
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.project.Dir, name)); err != nil {
			s.logger.Warn("failed to delete chunk", "file", name, "error", err)
		}
	}
}
