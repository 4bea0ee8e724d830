// Package store implements the durable tier: a Postgres-backed store with
// TTL rows, a flat-file fallback used when the database is unreachable,
// and the batched write queue that feeds them.
package store

import (
	"context"
	"time"

	"geocache/internal/models"
)

// Store is a durable key-to-record store with TTL-based expiry. Rows past
// their expiry are treated as absent even if physically present.
type Store interface {
	// Get returns the live row for key, or ErrNotFound.
	Get(ctx context.Context, key string) (*models.StoredRecord, error)

	// BulkUpsert applies a batch of resolutions as one unordered upsert.
	// Key is the uniqueness constraint; an existing row has its access
	// count incremented and its expiry refreshed.
	BulkUpsert(ctx context.Context, items []BatchItem) error

	// DeleteExpired removes rows past their expiry, returning the count.
	DeleteExpired(ctx context.Context) (int64, error)

	// DeleteAll removes every row, returning the count.
	DeleteAll(ctx context.Context) (int64, error)

	// Available reports whether the backend is currently reachable.
	Available(ctx context.Context) bool

	// Close releases backend resources.
	Close()
}

// BatchItem is one pending write for a successfully resolved key. Items
// are transient: created on provider success, consumed by a drain, and
// requeued at the front if the drain fails.
type BatchItem struct {
	Key        string
	Attributes map[string]string
	Timestamp  time.Time
}

// dedupe collapses duplicate keys within one batch, keeping the newest
// item per key. A bulk upsert cannot touch the same row twice.
func dedupe(items []BatchItem) []BatchItem {
	seen := make(map[string]int, len(items))
	out := items[:0:0]
	for _, it := range items {
		if i, ok := seen[it.Key]; ok {
			if it.Timestamp.After(out[i].Timestamp) {
				out[i] = it
			}
			continue
		}
		seen[it.Key] = len(out)
		out = append(out, it)
	}
	return out
}
