// Package resolver is the engine's only public entry point. It composes
// the validator, the memory cache, the persistent store, the provider
// chain, the concurrency limiter, the retry policy and the batch write
// queue into one lookup path that never surfaces an error to callers.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"geocache/internal/cache"
	"geocache/internal/models"
	"geocache/internal/provider"
	"geocache/internal/stats"
	"geocache/internal/store"
	"geocache/internal/validation"
)

// Config holds the resolver's tunables. Zero values are replaced by
// defaults in New; validation of user-supplied settings happens in the
// config package at startup.
type Config struct {
	// MaxConcurrent caps simultaneous outbound provider-chain attempts.
	MaxConcurrent int64
	// RetryAttempts is the total number of whole-chain traversals.
	RetryAttempts int
	// RetryDelay is the fixed wait between chain traversals.
	RetryDelay time.Duration
	// Coalesce deduplicates concurrent in-flight lookups per key. Off by
	// default because it changes observable provider-call counts under
	// concurrent load.
	Coalesce bool
}

// Resolver owns its own cache, queue and limiter state; independent
// instances do not share anything, which keeps tests isolated.
type Resolver struct {
	cache *cache.Cache
	store store.Store
	queue *store.Queue
	chain *provider.Chain
	allow *validation.AllowList
	stats *stats.Collector

	sem      *semaphore.Weighted
	attempts int
	delay    time.Duration
	coalesce bool
	sf       singleflight.Group
}

// New wires a resolver from its collaborators.
func New(c *cache.Cache, st store.Store, q *store.Queue, ch *provider.Chain, allow *validation.AllowList, sc *stats.Collector, cfg Config) *Resolver {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 50
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Resolver{
		cache:    c,
		store:    st,
		queue:    q,
		chain:    ch,
		allow:    allow,
		stats:    sc,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrent),
		attempts: cfg.RetryAttempts,
		delay:    cfg.RetryDelay,
		coalesce: cfg.Coalesce,
	}
}

// Resolve looks up a key through the tiers: memory cache, persistent
// store, then the provider chain. It always returns a structurally valid
// record; rejection and total failure yield sentinel records, never an
// error.
func (r *Resolver) Resolve(ctx context.Context, key string) *models.Record {
	start := time.Now()

	switch validation.Classify(key) {
	case validation.ClassInvalid:
		r.stats.Record(stats.EventRejected, time.Since(start))
		return models.Sentinel(key, models.StatusInvalid)
	case validation.ClassPrivate:
		r.stats.Record(stats.EventRejected, time.Since(start))
		return models.Sentinel(key, models.StatusPrivate)
	}

	if rec, ok := r.cache.Get(key); ok {
		r.stats.Record(stats.EventMemoryHit, time.Since(start))
		return rec
	}

	row, err := r.store.Get(ctx, key)
	if err == nil {
		// Attribute the record to when it was originally resolved, not
		// to this read.
		rec := models.NewRecordAt(row.Key, row.Attributes, row.LastUpdated)
		r.cache.Put(key, rec)
		r.stats.Record(stats.EventStoreHit, time.Since(start))
		return rec
	}
	if !errors.Is(err, store.ErrNotFound) {
		slog.Warn("persistent tier lookup failed", "key", key, "error", err)
	}

	rec, err := r.resolveViaProviders(ctx, key)
	if err != nil {
		r.stats.Record(stats.EventError, time.Since(start))
		return models.Sentinel(key, models.StatusUnknown)
	}

	r.cache.Put(key, rec)
	r.queue.Enqueue(store.BatchItem{Key: key, Attributes: rec.Attributes, Timestamp: rec.ResolvedAt})
	r.stats.Record(stats.EventProvider, time.Since(start))
	return rec
}

// resolveViaProviders optionally coalesces concurrent lookups for the
// same key before running the limited, retried chain traversal.
func (r *Resolver) resolveViaProviders(ctx context.Context, key string) (*models.Record, error) {
	if !r.coalesce {
		return r.providerLookup(ctx, key)
	}
	v, err, _ := r.sf.Do(key, func() (any, error) {
		return r.providerLookup(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Record), nil
}

// providerLookup holds a limiter permit for the whole retried traversal
// and releases it on every exit path.
func (r *Resolver) providerLookup(ctx context.Context, key string) (*models.Record, error) {
	lookupID := uuid.NewString()

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	var rec *models.Record
	op := func() error {
		var err error
		rec, err = r.chain.Resolve(ctx, key)
		if err != nil {
			slog.Warn("provider chain exhausted", "lookup", lookupID, "key", key, "error", err)
		}
		return err
	}

	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(r.delay), uint64(r.attempts-1))
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		slog.Error("resolution failed after retries", "lookup", lookupID, "key", key, "attempts", r.attempts, "error", err)
		return nil, err
	}
	return rec, nil
}

// IsAllowed checks the key against the static allow-list. No I/O and no
// interaction with resolution.
func (r *Resolver) IsAllowed(key string) bool {
	return r.allow.Contains(key)
}

// Stats returns an operational snapshot.
func (r *Resolver) Stats() stats.Metrics {
	return r.stats.Snapshot()
}

// ClearAll empties the memory cache and the persistent store, returning
// how many entries were removed across both.
func (r *Resolver) ClearAll(ctx context.Context) (int64, error) {
	removed := int64(r.cache.Clear())
	n, err := r.store.DeleteAll(ctx)
	return removed + n, err
}

// ClearExpired removes TTL-expired entries from the memory cache and the
// persistent store, returning how many were removed across both.
func (r *Resolver) ClearExpired(ctx context.Context) (int64, error) {
	removed := int64(r.cache.Sweep())
	n, err := r.store.DeleteExpired(ctx)
	return removed + n, err
}

// Flush synchronously drains the batch write queue. Called at shutdown.
func (r *Resolver) Flush(ctx context.Context) error {
	return r.queue.Flush(ctx)
}
