// Package jobs contains background maintenance loops.
package jobs

import (
	"context"
	"log"
	"time"

	"geocache/internal/cache"
	"geocache/internal/store"
)

// Janitor periodically sweeps TTL-expired entries from the memory cache
// and garbage-collects expired rows from the persistent store. Both are
// correctness-neutral: expired data is already invisible to lookups, this
// just bounds memory and disk.
type Janitor struct {
	cache         *cache.Cache
	store         store.Store
	sweepInterval time.Duration
	gcInterval    time.Duration
}

// NewJanitor creates a new janitor.
func NewJanitor(c *cache.Cache, st store.Store, sweepInterval, gcInterval time.Duration) *Janitor {
	return &Janitor{
		cache:         c,
		store:         st,
		sweepInterval: sweepInterval,
		gcInterval:    gcInterval,
	}
}

// Start begins the background maintenance loop and blocks until ctx is
// cancelled.
func (j *Janitor) Start(ctx context.Context) {
	log.Printf("Janitor started (sweep: %v, gc: %v)", j.sweepInterval, j.gcInterval)

	sweep := time.NewTicker(j.sweepInterval)
	defer sweep.Stop()
	gc := time.NewTicker(j.gcInterval)
	defer gc.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Janitor stopped")
			return
		case <-sweep.C:
			if n := j.cache.Sweep(); n > 0 {
				log.Printf("Janitor: swept %d expired cache entries", n)
			}
		case <-gc.C:
			j.collect(ctx)
		}
	}
}

// collect removes expired rows from the persistent store.
func (j *Janitor) collect(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	n, err := j.store.DeleteExpired(ctx)
	if err != nil {
		log.Printf("Janitor: failed to delete expired rows: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Janitor: deleted %d expired rows", n)
	}
}
