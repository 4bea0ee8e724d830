package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"geocache/internal/models"
)

// fileRow is the on-disk shape of one fallback entry.
type fileRow struct {
	Attributes   map[string]string `json:"attributes"`
	LastUpdated  time.Time         `json:"last_updated"`
	ExpiresAt    time.Time         `json:"expires_at"`
	AccessCount  int64             `json:"access_count"`
	LastAccessed time.Time         `json:"last_accessed"`
}

// File is the flat-file fallback Store, used when the primary store is
// unreachable. It keeps the whole data set as one JSON document and
// rewrites it atomically. A corrupted file is treated as empty.
type File struct {
	mu   sync.Mutex
	path string
	ttl  time.Duration

	now func() time.Time // injectable for tests
}

// NewFile initializes the fallback store, creating the parent directory
// and an empty file if needed.
func NewFile(path string, ttl time.Duration) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create fallback directory: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			return nil, fmt.Errorf("failed to initialize fallback file: %w", err)
		}
	}
	return &File{path: path, ttl: ttl, now: time.Now}, nil
}

// load reads the whole file. Unreadable or corrupted content is treated as
// an empty data set and will be overwritten on the next write.
func (f *File) load() map[string]fileRow {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read fallback store", "path", f.path, "error", err)
		}
		return map[string]fileRow{}
	}

	rows := map[string]fileRow{}
	if err := json.Unmarshal(data, &rows); err != nil {
		slog.Warn("fallback store corrupted, treating as empty", "path", f.path, "error", err)
		return map[string]fileRow{}
	}
	return rows
}

// save rewrites the file via a temp file and rename so readers never see a
// partial document.
func (f *File) save(rows map[string]fileRow) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode fallback store: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write fallback store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace fallback store: %w", err)
	}
	return nil
}

// Get returns the live row for key, or ErrNotFound.
func (f *File) Get(ctx context.Context, key string) (*models.StoredRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.load()[key]
	if !ok || !row.ExpiresAt.After(f.now()) {
		return nil, ErrNotFound
	}
	return &models.StoredRecord{
		Key:          key,
		Attributes:   row.Attributes,
		LastUpdated:  row.LastUpdated,
		ExpiresAt:    row.ExpiresAt,
		AccessCount:  row.AccessCount,
		LastAccessed: row.LastAccessed,
	}, nil
}

// BulkUpsert merges a batch into the file. Existing keys have their access
// count incremented and expiry refreshed.
func (f *File) BulkUpsert(ctx context.Context, items []BatchItem) error {
	items = dedupe(items)
	if len(items) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	rows := f.load()
	for _, it := range items {
		count := int64(1)
		if prev, ok := rows[it.Key]; ok {
			count = prev.AccessCount + 1
		}
		rows[it.Key] = fileRow{
			Attributes:   it.Attributes,
			LastUpdated:  it.Timestamp,
			ExpiresAt:    it.Timestamp.Add(f.ttl),
			AccessCount:  count,
			LastAccessed: it.Timestamp,
		}
	}
	return f.save(rows)
}

// DeleteExpired removes rows past their expiry.
func (f *File) DeleteExpired(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rows := f.load()
	now := f.now()
	var removed int64
	for key, row := range rows {
		if !row.ExpiresAt.After(now) {
			delete(rows, key)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, f.save(rows)
}

// DeleteAll empties the store.
func (f *File) DeleteAll(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := int64(len(f.load()))
	return n, f.save(map[string]fileRow{})
}

// Available always reports true; the file store is the last resort.
func (f *File) Available(ctx context.Context) bool {
	return true
}

// Close is a no-op; the file is not held open between operations.
func (f *File) Close() {}
