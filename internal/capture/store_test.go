package capture

import (
	"context"
	"errors"
	"testing"
)

func TestStoreInsertAndGet(t *testing.T) {
	s := NewStore(2)

	if _, ok := s.Insert(context.Background(), Capture{ID: "a", Payload: "p1"}); !ok {
		t.Fatal("Insert(a) rejected")
	}

	got, err := s.Get("a")
	if err != nil {
		t.Fatalf("Get(a) error: %v", err)
	}
	if got.Payload != "p1" {
		t.Errorf("Get(a).Payload = %q, want %q", got.Payload, "p1")
	}
}

func TestStoreEvictsOldest(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	s.Insert(ctx, Capture{ID: "a"})
	s.Insert(ctx, Capture{ID: "b"})

	evicted, ok := s.Insert(ctx, Capture{ID: "c"})
	if !ok {
		t.Fatal("Insert(c) rejected")
	}
	if evicted != "a" {
		t.Errorf("evicted = %q, want %q", evicted, "a")
	}

	if _, err := s.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(a) after eviction: error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get("b"); err != nil {
		t.Errorf("Get(b) error: %v", err)
	}
	if _, err := s.Get("c"); err != nil {
		t.Errorf("Get(c) error: %v", err)
	}
	if got := s.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestStoreNeverExceedsCapacity(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		s.Insert(ctx, Capture{ID: string(rune('a' + i))})
		if got := s.Len(); got > 2 {
			t.Fatalf("Len() = %d after insert %d, want <= 2", got, i)
		}
	}
}

// Reads must not disturb eviction order: the store is insert-ordered, not
// recency-ordered.
func TestStoreGetDoesNotAffectEviction(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	s.Insert(ctx, Capture{ID: "a"})
	s.Insert(ctx, Capture{ID: "b"})

	if _, err := s.Get("a"); err != nil {
		t.Fatalf("Get(a) error: %v", err)
	}

	evicted, _ := s.Insert(ctx, Capture{ID: "c"})
	if evicted != "a" {
		t.Errorf("evicted = %q after reading a, want %q", evicted, "a")
	}
}

func TestStoreIDsOldestFirst(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	s.Insert(ctx, Capture{ID: "a"})
	s.Insert(ctx, Capture{ID: "b"})
	s.Insert(ctx, Capture{ID: "c"})

	ids := s.IDs()
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "c" {
		t.Errorf("IDs() = %v, want [b c]", ids)
	}
}

func TestStoreClear(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	s.Insert(ctx, Capture{ID: "a"})
	s.Insert(ctx, Capture{ID: "b"})
	s.Clear()

	if got := s.Len(); got != 0 {
		t.Errorf("Len() after Clear = %d, want 0", got)
	}
	if _, err := s.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(a) after Clear: error = %v, want ErrNotFound", err)
	}

	// The store must keep working after a clear.
	if _, ok := s.Insert(ctx, Capture{ID: "d"}); !ok {
		t.Error("Insert(d) after Clear rejected")
	}
}

func TestStoreRejectsCancelledInsert(t *testing.T) {
	s := NewStore(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := s.Insert(ctx, Capture{ID: "stale"}); ok {
		t.Error("Insert() with cancelled context accepted, want rejected")
	}
	if got := s.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestStoreGetUnknownID(t *testing.T) {
	s := NewStore(2)

	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(nope) error = %v, want ErrNotFound", err)
	}
}

func TestStoreDefaultCapacity(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()

	s.Insert(ctx, Capture{ID: "a"})
	s.Insert(ctx, Capture{ID: "b"})
	s.Insert(ctx, Capture{ID: "c"})

	if got := s.Len(); got != DefaultCapacity {
		t.Errorf("Len() = %d, want %d", got, DefaultCapacity)
	}
}
