package boundedstore

import (
	"testing"
	"time"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := New[string, int](10, time.Hour)
	s.Set("a", 1)
	v, ok := s.Get("a")
	if !ok || v != 1 {
		t.Fatalf("got (%v, %v), want (1, true)", v, ok)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := New[string, int](10, time.Hour)
	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected miss")
	}
}

func TestOverflowEvictsOldest(t *testing.T) {
	s := New[string, int](2, time.Hour)
	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("c", 3)

	if s.Len() != 2 {
		t.Fatalf("expected len 2, got %d", s.Len())
	}
	if _, ok := s.Get("a"); ok {
		t.Fatal("expected 'a' to have been evicted as oldest")
	}
	if _, ok := s.Get("b"); !ok {
		t.Fatal("expected 'b' to survive")
	}
	if _, ok := s.Get("c"); !ok {
		t.Fatal("expected 'c' to survive")
	}
}

func TestGetTouchPreservesFromOverflow(t *testing.T) {
	s := New[string, int](2, time.Hour)
	s.Set("a", 1)
	s.Set("b", 2)
	s.Get("a") // touch a, making b the least-recently-touched
	s.Set("c", 3)

	if _, ok := s.Get("b"); ok {
		t.Fatal("expected 'b' evicted since 'a' was touched more recently")
	}
	if _, ok := s.Get("a"); !ok {
		t.Fatal("expected 'a' to survive due to touch")
	}
}

func TestSetReinsertionMovesToNewest(t *testing.T) {
	s := New[string, int](2, time.Hour)
	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("a", 10) // re-write a, should now be newest
	s.Set("c", 3)  // should evict b, not a

	if _, ok := s.Get("b"); ok {
		t.Fatal("expected 'b' evicted")
	}
	v, ok := s.Get("a")
	if !ok || v != 10 {
		t.Fatalf("expected a=10 to survive, got (%v, %v)", v, ok)
	}
}

func TestTTLExpiry(t *testing.T) {
	s := New[string, int](10, 10*time.Millisecond)
	s.Set("a", 1)
	time.Sleep(30 * time.Millisecond)
	if _, ok := s.Get("a"); ok {
		t.Fatal("expected entry to be expired")
	}
	if s.Len() != 0 {
		t.Fatalf("expected len 0 after expiry, got %d", s.Len())
	}
}

func TestDeleteUnconditional(t *testing.T) {
	s := New[string, int](10, time.Hour)
	s.Set("a", 1)
	s.Delete("a")
	if _, ok := s.Get("a"); ok {
		t.Fatal("expected 'a' deleted")
	}
}

func TestKeysAndValuesInsertionOrder(t *testing.T) {
	s := New[string, int](10, time.Hour)
	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("c", 3)

	keys := s.Keys()
	want := []string{"a", "b", "c"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("keys[%d] = %q, want %q", i, keys[i], k)
		}
	}
}

func TestStatsAndEvict(t *testing.T) {
	s := New[string, int](5, 10*time.Millisecond)
	s.Set("a", 1)
	time.Sleep(30 * time.Millisecond)
	stats := s.StatsAndEvict()
	if stats.Size != 0 {
		t.Fatalf("expected size 0, got %d", stats.Size)
	}
	if stats.Expired != 1 {
		t.Fatalf("expected 1 expired, got %d", stats.Expired)
	}
	if stats.MaxSize != 5 {
		t.Fatalf("expected maxSize 5, got %d", stats.MaxSize)
	}
}

func TestNewPanicsOnInvalidArgs(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for maxSize <= 0")
		}
	}()
	New[string, int](0, time.Hour)
}
