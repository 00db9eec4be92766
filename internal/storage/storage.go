// Package storage persists the two flat JSON documents this service keeps:
// the current positions snapshot and the append-only trading history. Each
// store serializes its own read-modify-write with a mutex and replaces the
// file atomically (temp file, fsync, rename), so racing ticks cannot leave a
// torn document behind. Cross-process writers still need external
// serialization.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"tick_trader/internal/models"
)

// PositionsStore holds the latest positions snapshot, overwritten wholesale
// every tick.
type PositionsStore interface {
	Read() ([]models.PositionSnapshot, error)
	Replace(snapshots []models.PositionSnapshot) error
}

// HistoryStore holds the trading history log. Append rewrites the whole
// document; history only ever grows.
type HistoryStore interface {
	Read() ([]models.HistoryEntry, error)
	Append(entries []models.HistoryEntry) error
}

// PositionsFile is the JSON-file PositionsStore.
type PositionsFile struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

func NewPositionsFile(path string, logger *zap.Logger) *PositionsFile {
	return &PositionsFile{path: path, logger: logger}
}

// Read returns the current snapshot. A missing or corrupt file reads as an
// empty snapshot, never an error.
func (s *PositionsFile) Read() ([]models.PositionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readDocument[models.PositionSnapshot](s.path, s.logger)
}

// Replace overwrites the snapshot document.
func (s *PositionsFile) Replace(snapshots []models.PositionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeDocument(s.path, snapshots)
}

// HistoryFile is the JSON-file HistoryStore.
type HistoryFile struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

func NewHistoryFile(path string, logger *zap.Logger) *HistoryFile {
	return &HistoryFile{path: path, logger: logger}
}

// Read returns the full history, empty when the file is missing or corrupt.
func (s *HistoryFile) Read() ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readDocument[models.HistoryEntry](s.path, s.logger)
}

// Append reads the document, extends it in memory and rewrites it. The lock
// spans the whole cycle so interleaved appends cannot drop entries.
func (s *HistoryFile) Append(entries []models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := readDocument[models.HistoryEntry](s.path, s.logger)
	if err != nil {
		return err
	}
	history = append(history, entries...)
	return writeDocument(s.path, history)
}

// readDocument loads one JSON array document. Missing files and corrupt
// content both read as an empty document: the caller starts from empty
// state rather than failing the tick. Real I/O errors still surface.
func readDocument[T any](path string, logger *zap.Logger) ([]T, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc []T
	if err := json.Unmarshal(b, &doc); err != nil {
		logger.Warn("corrupt document treated as empty",
			zap.String("path", path),
			zap.Error(err))
		return []T{}, nil
	}
	if doc == nil {
		doc = []T{}
	}
	return doc, nil
}

// writeDocument replaces the document atomically: write a sibling temp file,
// sync it, then rename over the destination.
func writeDocument(path string, doc any) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
