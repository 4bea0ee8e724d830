package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// drainTimeout bounds one bulk write; a stuck drain must not wedge the
// queue forever.
const drainTimeout = 30 * time.Second

// Queue accumulates successful resolutions and flushes them to the store
// in bulk. Writes are never applied individually: a drain fires when the
// queue reaches the size threshold or when the debounce timer elapses
// after the first still-unflushed item. Failed drains requeue their items
// at the front; items are never dropped. At most one drain runs at a time.
type Queue struct {
	store    Store
	size     int
	debounce time.Duration

	mu       sync.Mutex
	items    []BatchItem
	timer    *time.Timer
	draining bool
}

// NewQueue creates a queue draining to store in batches of up to size,
// or after debounce has elapsed since the first pending item.
func NewQueue(store Store, size int, debounce time.Duration) *Queue {
	return &Queue{store: store, size: size, debounce: debounce}
}

// Enqueue adds one item without blocking the caller. Reaching the size
// threshold triggers an immediate drain; otherwise the debounce timer is
// armed if it is not already running.
func (q *Queue) Enqueue(item BatchItem) {
	q.mu.Lock()
	q.items = append(q.items, item)
	hitThreshold := len(q.items) >= q.size
	if !hitThreshold && q.timer == nil {
		q.timer = time.AfterFunc(q.debounce, func() {
			q.mu.Lock()
			q.timer = nil
			q.mu.Unlock()
			q.kick()
		})
	}
	q.mu.Unlock()

	if hitThreshold {
		q.kick()
	}
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// kick starts a background drain unless one is already running.
func (q *Queue) kick() {
	q.mu.Lock()
	if q.draining || len(q.items) == 0 {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()

	go q.drainLoop()
}

// drainLoop writes batches until the queue is empty. A completed drain
// that still finds queued items immediately takes the next batch. On
// failure the batch goes back to the front and a new drain is scheduled
// after the debounce interval.
func (q *Queue) drainLoop() {
	for {
		batch := q.take()
		if batch == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		err := q.store.BulkUpsert(ctx, batch)
		cancel()

		if err != nil {
			slog.Error("batch drain failed, requeueing items", "items", len(batch), "error", err)
			q.requeue(batch)
			time.AfterFunc(q.debounce, q.kick)
			return
		}
	}
}

// take removes up to size items from the front, or ends the drain when
// the queue is empty.
func (q *Queue) take() []BatchItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		q.draining = false
		if q.timer != nil {
			q.timer.Stop()
			q.timer = nil
		}
		return nil
	}

	n := len(q.items)
	if n > q.size {
		n = q.size
	}
	batch := make([]BatchItem, n)
	copy(batch, q.items[:n])
	q.items = append(q.items[:0:0], q.items[n:]...)
	return batch
}

// requeue pushes a failed batch back to the front and releases the drain
// slot.
func (q *Queue) requeue(batch []BatchItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(batch, q.items...)
	q.draining = false
}

// Flush drains synchronously until the queue is empty or ctx expires.
// Used at shutdown so pending resolutions reach durable storage.
func (q *Queue) Flush(ctx context.Context) error {
	for {
		q.mu.Lock()
		empty := len(q.items) == 0
		busy := q.draining
		if empty && !busy {
			q.mu.Unlock()
			return nil
		}
		if busy {
			// A background drain is running; wait for it to settle.
			q.mu.Unlock()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(20 * time.Millisecond):
			}
			continue
		}
		q.draining = true
		q.mu.Unlock()

		batch := q.take()
		if batch == nil {
			continue
		}
		if err := q.store.BulkUpsert(ctx, batch); err != nil {
			q.requeue(batch)
			return err
		}
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}
}
