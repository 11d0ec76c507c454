// Package storage provides the persistence backends behind the
// knowledge store and watch results: a JSON file store and a
// Postgres store with embedding-based similarity search.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/framesight/framesight/internal/knowledge"
	"github.com/framesight/framesight/internal/models"
)

const resultBatchSize = 10

// FileStore keeps the knowledge snapshot and watch results as JSON files
// under a data directory. Watch results are batched before each write.
type FileStore struct {
	mu      sync.Mutex
	dataDir string
	pending []models.VideoComprehensionResult
}

func NewFileStore(dataDir string) *FileStore {
	return &FileStore{dataDir: dataDir}
}

func (s *FileStore) snapshotPath() string {
	return filepath.Join(s.dataDir, "knowledge.json")
}

func (s *FileStore) resultsPath() string {
	return filepath.Join(s.dataDir, "watch_results.json")
}

// Load reads the knowledge snapshot. The second return is false when no
// snapshot has been written yet.
func (s *FileStore) Load() (knowledge.Snapshot, bool, error) {
	data, err := os.ReadFile(s.snapshotPath())
	if os.IsNotExist(err) {
		return knowledge.Snapshot{}, false, nil
	}
	if err != nil {
		return knowledge.Snapshot{}, false, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap knowledge.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return knowledge.Snapshot{}, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

// Save writes the knowledge snapshot, creating the data directory on
// first use.
func (s *FileStore) Save(snap knowledge.Snapshot) error {
	if err := s.ensureDir(); err != nil {
		return err
	}

	file, err := os.Create(s.snapshotPath())
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// AddResult queues a watch result and flushes to disk when the batch is
// full.
func (s *FileStore) AddResult(result models.VideoComprehensionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, result)
	if len(s.pending) >= resultBatchSize {
		return s.flushLocked()
	}
	return nil
}

// SaveResult implements the watcher's result sink over the batch queue.
func (s *FileStore) SaveResult(_ context.Context, result models.VideoComprehensionResult) error {
	return s.AddResult(result)
}

// Flush writes all pending watch results.
func (s *FileStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *FileStore) flushLocked() error {
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.ensureDir(); err != nil {
		return err
	}

	var existing []models.VideoComprehensionResult
	if data, err := os.ReadFile(s.resultsPath()); err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("failed to unmarshal existing results: %w", err)
		}
	}

	all := append(existing, s.pending...)

	file, err := os.Create(s.resultsPath())
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(all); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	s.pending = nil
	return nil
}

func (s *FileStore) ensureDir() error {
	if _, err := os.Stat(s.dataDir); os.IsNotExist(err) {
		if err := os.MkdirAll(s.dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory '%s': %w", s.dataDir, err)
		}
	}
	return nil
}
