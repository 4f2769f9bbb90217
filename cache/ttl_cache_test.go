package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(clock *fakeClock) *TTLCache[string, int] {
	c := NewTTLCache[string, int]()
	c.now = clock.now
	return c
}

func TestTTLCache_GetSetDelete(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(clock)

	c.Set("a", 1, time.Minute)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected (1, true), got (%d, %v)", v, ok)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after Delete")
	}
}

func TestTTLCache_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(clock)

	c.Set("a", 1, time.Minute)
	c.Set("forever", 2, 0)

	clock.t = clock.t.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("expected expired entry to miss")
	}
	if v, ok := c.Get("forever"); !ok || v != 2 {
		t.Errorf("expected entry without ttl to survive, got (%d, %v)", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected expired entry to be dropped on Get, Len = %d", c.Len())
	}
}

func TestTTLCache_GetKeepsEntryReplacedAfterExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(clock)
	c.Set("a", 1, time.Minute)
	clock.t = clock.t.Add(2 * time.Minute)

	// The first clock read inside Get happens after the entry was read as
	// expired; a Set lands there before Get gets to delete.
	replaced := false
	c.now = func() time.Time {
		if !replaced {
			replaced = true
			c.Set("a", 2, time.Hour)
		}
		return clock.t
	}

	if _, ok := c.Get("a"); ok {
		t.Error("expected the expired read to miss")
	}
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("replacement entry lost: got (%d, %v)", v, ok)
	}
}

func TestTTLCache_TouchExtends(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(clock)

	c.Set("a", 1, time.Minute)
	clock.t = clock.t.Add(50 * time.Second)
	if !c.Touch("a", time.Minute) {
		t.Fatal("expected Touch on live entry to succeed")
	}
	clock.t = clock.t.Add(50 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected touched entry to still be live")
	}

	if c.Touch("missing", time.Minute) {
		t.Error("expected Touch on missing key to fail")
	}
	clock.t = clock.t.Add(2 * time.Minute)
	if c.Touch("a", time.Minute) {
		t.Error("expected Touch on expired key to fail")
	}
}

func TestTTLCache_Purge(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(clock)

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Hour)
	c.Set("c", 3, time.Second)

	clock.t = clock.t.Add(2 * time.Minute)
	if n := c.Purge(); n != 2 {
		t.Errorf("expected 2 purged entries, got %d", n)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 remaining entry, got %d", c.Len())
	}
}

func TestTTLCache_NilSafe(t *testing.T) {
	var c *TTLCache[string, int]
	c.Set("a", 1, time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("expected nil cache to miss")
	}
	c.Delete("a")
	if c.Purge() != 0 || c.Len() != 0 || c.Touch("a", time.Minute) {
		t.Error("expected nil cache to be empty")
	}
}
