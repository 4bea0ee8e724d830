package cache

import (
	"fmt"
	"testing"
	"time"

	"geocache/internal/models"
)

func record(key string) *models.Record {
	return models.NewRecord(key, map[string]string{models.AttrCountry: "Testland"})
}

func TestPutGet(t *testing.T) {
	c := New(10, time.Minute)

	c.Put("1.1.1.1", record("1.1.1.1"))

	got, ok := c.Get("1.1.1.1")
	if !ok {
		t.Fatal("Get() miss, want hit")
	}
	if got.Attributes[models.AttrCountry] != "Testland" {
		t.Errorf("Get() country = %q, want %q", got.Attributes[models.AttrCountry], "Testland")
	}

	if _, ok := c.Get("2.2.2.2"); ok {
		t.Error("Get() hit for absent key")
	}
}

func TestPutReplacesExisting(t *testing.T) {
	c := New(10, time.Minute)

	c.Put("1.1.1.1", record("1.1.1.1"))
	updated := models.NewRecord("1.1.1.1", map[string]string{models.AttrCountry: "Elsewhere"})
	c.Put("1.1.1.1", updated)

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	got, _ := c.Get("1.1.1.1")
	if got.Attributes[models.AttrCountry] != "Elsewhere" {
		t.Errorf("Get() country = %q, want %q", got.Attributes[models.AttrCountry], "Elsewhere")
	}
}

func TestCapacityNeverExceeded(t *testing.T) {
	c := New(3, time.Minute)

	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("10.0.0.%d", i)
		c.Put(key, record(key))
		if c.Len() > 3 {
			t.Fatalf("Len() = %d after %d puts, capacity is 3", c.Len(), i+1)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLRUEvictionOrder(t *testing.T) {
	c := New(2, time.Minute)

	c.Put("a", record("a"))
	c.Put("b", record("b"))

	// Touch "a" so "b" becomes least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("Get(a) miss")
	}

	c.Put("c", record("c"))

	if _, ok := c.Get("b"); ok {
		t.Error("entry b survived eviction, want it evicted as LRU")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("entry a evicted, want it kept (recently read)")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("entry c missing")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(10, time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("1.1.1.1", record("1.1.1.1"))

	// Within TTL.
	if _, ok := c.Get("1.1.1.1"); !ok {
		t.Fatal("Get() miss within TTL")
	}

	// Advance past TTL; the stale entry must not satisfy the read.
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("1.1.1.1"); ok {
		t.Error("Get() hit after TTL expiry")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after lazy expiry, want 0", c.Len())
	}
}

func TestSweep(t *testing.T) {
	c := New(10, time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("a", record("a"))
	c.Put("b", record("b"))
	now = now.Add(2 * time.Minute)
	c.Put("c", record("c"))

	removed := c.Sweep()
	if removed != 2 {
		t.Errorf("Sweep() = %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d after sweep, want 1", c.Len())
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("fresh entry removed by sweep")
	}
}

func TestClear(t *testing.T) {
	c := New(10, time.Minute)

	c.Put("a", record("a"))
	c.Put("b", record("b"))

	if n := c.Clear(); n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after clear, want 0", c.Len())
	}

	// Cache remains usable after clearing.
	c.Put("c", record("c"))
	if _, ok := c.Get("c"); !ok {
		t.Error("Get() miss after Clear and Put")
	}
}

func TestRemove(t *testing.T) {
	c := New(10, time.Minute)

	c.Put("a", record("a"))
	if !c.Remove("a") {
		t.Error("Remove(a) = false, want true")
	}
	if c.Remove("a") {
		t.Error("Remove(a) second call = true, want false")
	}
}
