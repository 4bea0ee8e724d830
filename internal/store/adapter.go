package store

import (
	"context"
	"errors"
	"log/slog"

	"geocache/internal/models"
)

// Adapter fronts the primary store and degrades to the fallback when the
// primary is unreachable. The choice is an availability check at call
// time, not a sticky flag: the primary is used again as soon as it
// recovers. Store unavailability surfaces as a cache miss, never as an
// error on the read path.
type Adapter struct {
	primary  Store // may be nil when no database is configured
	fallback Store
}

// NewAdapter combines a primary store (nil to run file-only) with the
// flat-file fallback.
func NewAdapter(primary, fallback Store) *Adapter {
	return &Adapter{primary: primary, fallback: fallback}
}

// Get reads from the primary when available, else from the fallback.
func (a *Adapter) Get(ctx context.Context, key string) (*models.StoredRecord, error) {
	if a.primary != nil && a.primary.Available(ctx) {
		row, err := a.primary.Get(ctx, key)
		if err == nil || errors.Is(err, ErrNotFound) {
			return row, err
		}
		slog.Warn("primary store read failed, trying fallback", "key", key, "error", err)
	}
	return a.fallback.Get(ctx, key)
}

// BulkUpsert writes to the primary when available, degrading to the
// fallback file so resolutions are never lost to an outage.
func (a *Adapter) BulkUpsert(ctx context.Context, items []BatchItem) error {
	if a.primary != nil && a.primary.Available(ctx) {
		err := a.primary.BulkUpsert(ctx, items)
		if err == nil {
			return nil
		}
		slog.Warn("primary store write failed, degrading to fallback", "items", len(items), "error", err)
	}
	return a.fallback.BulkUpsert(ctx, items)
}

// DeleteExpired garbage-collects both stores.
func (a *Adapter) DeleteExpired(ctx context.Context) (int64, error) {
	var total int64
	if a.primary != nil && a.primary.Available(ctx) {
		n, err := a.primary.DeleteExpired(ctx)
		if err != nil {
			return total, err
		}
		total += n
	}
	n, err := a.fallback.DeleteExpired(ctx)
	return total + n, err
}

// DeleteAll empties both stores.
func (a *Adapter) DeleteAll(ctx context.Context) (int64, error) {
	var total int64
	if a.primary != nil && a.primary.Available(ctx) {
		n, err := a.primary.DeleteAll(ctx)
		if err != nil {
			return total, err
		}
		total += n
	}
	n, err := a.fallback.DeleteAll(ctx)
	return total + n, err
}

// Available reports whether any tier can serve; the fallback always can.
func (a *Adapter) Available(ctx context.Context) bool {
	return true
}

// Close closes both stores.
func (a *Adapter) Close() {
	if a.primary != nil {
		a.primary.Close()
	}
	a.fallback.Close()
}
