package pointerwars

import (
	"errors"
	"testing"

	"github.com/jkshtj/pointerwars/arena"
	"github.com/jkshtj/pointerwars/internal/testutils"
	"github.com/jkshtj/pointerwars/mempool"
)

func TestQueueFIFO(t *testing.T) {
	q, err := NewQueue(testutils.NewMockAllocator())
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	defer q.Close()

	for _, v := range []uint{1, 2, 3} {
		if err := q.Push(v); err != nil {
			t.Fatalf("Push(%d) failed: %v", v, err)
		}
	}
	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}

	for _, want := range []uint{1, 2, 3} {
		if v, ok := q.Peek(); !ok || v != want {
			t.Fatalf("Peek() = (%d, %v), want (%d, true)", v, ok, want)
		}
		if v, ok := q.Pop(); !ok || v != want {
			t.Fatalf("Pop() = (%d, %v), want (%d, true)", v, ok, want)
		}
	}

	if q.HasNext() {
		t.Error("HasNext() on drained queue = true")
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop() on drained queue reported a value")
	}
	if _, ok := q.Peek(); ok {
		t.Error("Peek() on drained queue reported a value")
	}
}

func TestQueueInterleaved(t *testing.T) {
	q, err := NewQueue(testutils.NewMockAllocator())
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	defer q.Close()

	// A drained and refilled queue must keep FIFO order across the episodes.
	next := uint(0)
	expect := uint(0)
	for round := range 50 {
		for range round%4 + 1 {
			if err := q.Push(next); err != nil {
				t.Fatalf("Push(%d) failed: %v", next, err)
			}
			next++
		}
		for q.HasNext() {
			v, ok := q.Pop()
			if !ok {
				t.Fatal("Pop() failed with HasNext() true")
			}
			if v != expect {
				t.Fatalf("Pop() = %d, want %d", v, expect)
			}
			expect++
		}
	}
	if expect != next {
		t.Errorf("popped %d values, pushed %d", expect, next)
	}
}

func TestQueueAllocatorBacked(t *testing.T) {
	t.Run("arena", func(t *testing.T) {
		a, err := arena.New(nil, arena.Config{SlabSize: 128, MaxSlabs: 16})
		if err != nil {
			t.Fatalf("arena.New failed: %v", err)
		}
		defer a.Close()
		exerciseQueue(t, a)
	})

	t.Run("mempool", func(t *testing.T) {
		p, err := mempool.New(nil, mempool.Config{ObjectsPerSlab: 8})
		if err != nil {
			t.Fatalf("mempool.New failed: %v", err)
		}
		defer p.Close()
		exerciseQueue(t, p)
	})
}

func exerciseQueue(t *testing.T, alloc Allocator) {
	t.Helper()
	q, err := NewQueue(alloc)
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	defer q.Close()

	for i := range uint(100) {
		if err := q.Push(i); err != nil {
			t.Fatalf("Push(%d) failed: %v", i, err)
		}
	}
	for want := range uint(100) {
		v, ok := q.Pop()
		if !ok || v != want {
			t.Fatalf("Pop() = (%d, %v), want (%d, true)", v, ok, want)
		}
	}
}

func TestQueueNil(t *testing.T) {
	var q *Queue
	if err := q.Push(1); !errors.Is(err, ErrNilQueue) {
		t.Errorf("nil queue Push error = %v, want ErrNilQueue", err)
	}
	if _, ok := q.Pop(); ok {
		t.Error("nil queue Pop reported a value")
	}
	if q.HasNext() {
		t.Error("nil queue HasNext = true")
	}
	if q.Len() != 0 {
		t.Errorf("nil queue Len = %d, want 0", q.Len())
	}
	if err := q.Close(); !errors.Is(err, ErrNilQueue) {
		t.Errorf("nil queue Close error = %v, want ErrNilQueue", err)
	}
}

func TestQueueCloseReleasesNodes(t *testing.T) {
	mock := testutils.NewMockAllocator()
	q, err := NewQueue(mock)
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}

	for i := range uint(10) {
		if err := q.Push(i); err != nil {
			t.Fatalf("Push(%d) failed: %v", i, err)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := mock.LiveBlocks(); got != 0 {
		t.Errorf("LiveBlocks after Close = %d, want 0", got)
	}
}
