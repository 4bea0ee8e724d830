package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestFile(t *testing.T) *File {
	t.Helper()
	f, err := NewFile(filepath.Join(t.TempDir(), "fallback", "records.json"), time.Hour)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	return f
}

func TestFileInitCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "records.json")
	if _, err := NewFile(path, time.Hour); err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("fallback file not created: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("initial content = %q, want empty object", data)
	}
}

func TestFileUpsertAndGet(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()

	items := []BatchItem{
		{Key: "203.0.113.5", Attributes: map[string]string{"country": "Testland"}, Timestamp: time.Now()},
		{Key: "203.0.113.6", Attributes: map[string]string{"country": "Elsewhere"}, Timestamp: time.Now()},
	}
	if err := f.BulkUpsert(ctx, items); err != nil {
		t.Fatalf("BulkUpsert() error = %v", err)
	}

	row, err := f.Get(ctx, "203.0.113.5")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if row.Attributes["country"] != "Testland" {
		t.Errorf("country = %q, want %q", row.Attributes["country"], "Testland")
	}
	if row.AccessCount != 1 {
		t.Errorf("AccessCount = %d, want 1", row.AccessCount)
	}

	if _, err := f.Get(ctx, "198.51.100.1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(absent) error = %v, want ErrNotFound", err)
	}
}

func TestFileUpsertConflictIncrementsAccessCount(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()

	item := BatchItem{Key: "203.0.113.5", Attributes: map[string]string{"country": "Testland"}, Timestamp: time.Now()}
	if err := f.BulkUpsert(ctx, []BatchItem{item}); err != nil {
		t.Fatalf("BulkUpsert() error = %v", err)
	}
	item.Attributes = map[string]string{"country": "Updated"}
	if err := f.BulkUpsert(ctx, []BatchItem{item}); err != nil {
		t.Fatalf("BulkUpsert() second error = %v", err)
	}

	row, err := f.Get(ctx, "203.0.113.5")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if row.AccessCount != 2 {
		t.Errorf("AccessCount = %d, want 2", row.AccessCount)
	}
	if row.Attributes["country"] != "Updated" {
		t.Errorf("country = %q, want %q", row.Attributes["country"], "Updated")
	}
}

func TestFileExpiredRowTreatedAsAbsent(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()

	now := time.Now()
	f.now = func() time.Time { return now }

	item := BatchItem{Key: "203.0.113.5", Attributes: map[string]string{"country": "Testland"}, Timestamp: now}
	if err := f.BulkUpsert(ctx, []BatchItem{item}); err != nil {
		t.Fatalf("BulkUpsert() error = %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := f.Get(ctx, "203.0.113.5"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(expired) error = %v, want ErrNotFound", err)
	}
}

func TestFileCorruptedTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := NewFile(path, time.Hour)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	ctx := context.Background()

	if _, err := f.Get(ctx, "203.0.113.5"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on corrupted file error = %v, want ErrNotFound", err)
	}

	// Writes overwrite the corrupted content.
	item := BatchItem{Key: "203.0.113.5", Attributes: map[string]string{"country": "Testland"}, Timestamp: time.Now()}
	if err := f.BulkUpsert(ctx, []BatchItem{item}); err != nil {
		t.Fatalf("BulkUpsert() after corruption error = %v", err)
	}
	if _, err := f.Get(ctx, "203.0.113.5"); err != nil {
		t.Errorf("Get() after rewrite error = %v", err)
	}
}

func TestFileDeleteExpired(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()

	now := time.Now()
	f.now = func() time.Time { return now }

	if err := f.BulkUpsert(ctx, []BatchItem{
		{Key: "203.0.113.5", Attributes: map[string]string{}, Timestamp: now.Add(-2 * time.Hour)},
		{Key: "203.0.113.6", Attributes: map[string]string{}, Timestamp: now},
	}); err != nil {
		t.Fatalf("BulkUpsert() error = %v", err)
	}

	removed, err := f.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", removed)
	}
	if _, err := f.Get(ctx, "203.0.113.6"); err != nil {
		t.Errorf("live row removed by DeleteExpired: %v", err)
	}
}

func TestFileDeleteAll(t *testing.T) {
	f := newTestFile(t)
	ctx := context.Background()

	if err := f.BulkUpsert(ctx, []BatchItem{
		{Key: "203.0.113.5", Attributes: map[string]string{}, Timestamp: time.Now()},
		{Key: "203.0.113.6", Attributes: map[string]string{}, Timestamp: time.Now()},
	}); err != nil {
		t.Fatalf("BulkUpsert() error = %v", err)
	}

	removed, err := f.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("DeleteAll() = %d, want 2", removed)
	}
}

func TestDedupe(t *testing.T) {
	base := time.Now()
	items := []BatchItem{
		{Key: "a", Attributes: map[string]string{"v": "old"}, Timestamp: base},
		{Key: "b", Timestamp: base},
		{Key: "a", Attributes: map[string]string{"v": "new"}, Timestamp: base.Add(time.Second)},
	}

	out := dedupe(items)
	if len(out) != 2 {
		t.Fatalf("dedupe() len = %d, want 2", len(out))
	}
	if out[0].Key != "a" || out[0].Attributes["v"] != "new" {
		t.Errorf("dedupe() kept %+v, want newest item for key a", out[0])
	}
}
