// Package arena implements a slab-growing bump-pointer allocator.
//
// The arena reserves memory in slabs whose capacities double with every
// growth step and serves allocations by advancing a cursor through the
// active slab. Individual allocations are never reclaimed; all memory goes
// back to the operating system when the arena is closed. This trades
// per-object reclaim for allocation speed, which suits workloads that
// allocate many small fixed-size records and free them all at once or never.
package arena

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"golang.org/x/sys/unix"
)

// alignment is the boundary every returned address is aligned to.
const alignment = 8

var (
	ErrClosed       = errors.New("arena: closed")
	ErrSlabLimit    = errors.New("arena: slab limit reached")
	ErrSizeTooLarge = errors.New("arena: allocation exceeds slab capacity")
	ErrInvalidSize  = errors.New("arena: allocation size must be positive")
)

// slab is one contiguous mmap'd region with a bump cursor.
// The cursor only moves forward and 0 <= pos <= len(data) holds at all times.
type slab struct {
	data []byte
	pos  int
}

// newSlab reserves capacity bytes of anonymous private memory.
// The region lives outside the Go heap, so pointers stored in it are never
// scanned or moved by the garbage collector.
func newSlab(capacity int) (*slab, error) {
	data, err := unix.Mmap(-1, 0, capacity,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return nil, fmt.Errorf("arena: cannot reserve %d bytes via mmap: %w", capacity, err)
	}
	return &slab{data: data}, nil
}

// alloc reserves size bytes starting at the next aligned cursor position.
// It returns false when the slab has no room, signalling the arena to grow.
func (s *slab) alloc(size int) (unsafe.Pointer, bool) {
	off := (s.pos + alignment - 1) &^ (alignment - 1)
	if off+size > len(s.data) {
		return nil, false
	}
	p := unsafe.Pointer(&s.data[off])
	s.pos = off + size
	return p, true
}

// release returns the slab's region to the operating system.
// Releasing a nil or already released slab is a no-op.
func (s *slab) release() error {
	if s == nil || s.data == nil {
		return nil
	}
	err := unix.Munmap(s.data)
	s.data = nil
	s.pos = 0
	return err
}

// Arena is a bump-pointer allocator over a bounded, geometrically growing
// sequence of slabs. Once created a slab is never resized or moved, so every
// returned pointer stays valid until Close. Not safe for concurrent use.
type Arena struct {
	logger *slog.Logger
	config Config
	slabs  []*slab
	closed bool
}

// New creates an arena and eagerly reserves its first slab.
// A nil logger falls back to slog.Default().
func New(logger *slog.Logger, config Config) (*Arena, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	first, err := newSlab(config.SlabSize)
	if err != nil {
		return nil, err
	}
	return &Arena{
		logger: logger,
		config: config,
		slabs:  []*slab{first},
	}, nil
}

// slabCapacity returns the capacity of the k-th slab (0-based): the base
// size doubled once per growth step.
func (a *Arena) slabCapacity(k int) int {
	return a.config.SlabSize << k
}

// Alloc returns an 8-byte aligned pointer to a block of size bytes.
//
// The active slab is tried first; when it has no room the arena grows by
// reserving a new slab of twice the previous capacity and retries once.
// Growth fails with ErrSlabLimit when MaxSlabs slabs already exist, and the
// retry fails with ErrSizeTooLarge when size exceeds even the fresh slab.
func (a *Arena) Alloc(size int) (unsafe.Pointer, error) {
	if a.closed {
		return nil, ErrClosed
	}
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	if p, ok := a.slabs[len(a.slabs)-1].alloc(size); ok {
		return p, nil
	}

	if len(a.slabs) >= a.config.MaxSlabs {
		return nil, ErrSlabLimit
	}

	capacity := a.slabCapacity(len(a.slabs))
	next, err := newSlab(capacity)
	if err != nil {
		return nil, err
	}
	a.slabs = append(a.slabs, next)
	a.logger.Debug("arena grew", "slabs", len(a.slabs), "capacity", capacity)

	p, ok := next.alloc(size)
	if !ok {
		// Only possible when size exceeds the capacity of the slab that was
		// just created.
		return nil, ErrSizeTooLarge
	}
	return p, nil
}

// Free is a no-op: the arena never reclaims individual allocations.
// It exists to satisfy the allocator contract of the list and queue.
func (a *Arena) Free(ptr unsafe.Pointer) {}

// Close releases every slab back to the operating system and disables the
// arena. Close is idempotent; Alloc after Close returns ErrClosed.
func (a *Arena) Close() error {
	if a.closed {
		return nil
	}
	var errs []error
	for _, s := range a.slabs {
		if err := s.release(); err != nil {
			a.logger.Error("failed to unmap arena slab", "error", err)
			errs = append(errs, err)
		}
	}
	a.slabs = nil
	a.closed = true
	return errors.Join(errs...)
}
