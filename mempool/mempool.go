// Package mempool implements a general-purpose off-heap allocator with
// per-size-class free slots, the individually-reclaiming counterpart to the
// bump-pointer arena.
//
// Allocation sizes round up to an 8-byte size class. Each class owns mmap'd
// slabs of fixed-size slots tracked by a bitset occupancy map; Free clears
// the slot's bit and a fully empty slab is returned to the operating system.
package mempool

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"unsafe"

	"github.com/willf/bitset"
	"golang.org/x/sys/unix"
)

// sizeClassStep is the granularity of size classes; keeping it at 8 also
// guarantees 8-byte alignment of every slot.
const sizeClassStep = 8

var (
	ErrClosed      = errors.New("mempool: closed")
	ErrInvalidSize = errors.New("mempool: allocation size must be positive")
)

// slab is one mmap'd region divided into fixed-size slots of a single size
// class. The used bitset marks occupied slots.
type slab struct {
	data  []byte
	used  *bitset.BitSet
	class int
}

func newSlab(class, slots int) (*slab, error) {
	data, err := unix.Mmap(-1, 0, class*slots,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return nil, fmt.Errorf("mempool: cannot reserve %d bytes via mmap: %w", class*slots, err)
	}
	return &slab{
		data:  data,
		used:  bitset.New(uint(slots)),
		class: class,
	}, nil
}

func (s *slab) base() uintptr {
	return uintptr(unsafe.Pointer(&s.data[0]))
}

func (s *slab) contains(p uintptr) bool {
	base := s.base()
	return p >= base && p < base+uintptr(len(s.data))
}

// alloc takes the first clear slot. It returns false when the slab is full.
func (s *slab) alloc() (unsafe.Pointer, bool) {
	idx, ok := s.used.NextClear(0)
	if !ok || idx >= s.used.Len() {
		return nil, false
	}
	s.used.Set(idx)
	return unsafe.Pointer(&s.data[int(idx)*s.class]), true
}

// release returns the slab's region to the operating system.
func (s *slab) release() error {
	if s == nil || s.data == nil {
		return nil
	}
	err := unix.Munmap(s.data)
	s.data = nil
	return err
}

// sizedPool manages all slabs of a single size class.
type sizedPool struct {
	class int
	slabs []*slab
}

// alloc returns a free slot from any slab with room, creating a new slab when
// every existing one is full. The second return value is the freshly created
// slab, or nil when an existing slab served the request.
func (p *sizedPool) alloc(slots int) (unsafe.Pointer, *slab, error) {
	for _, s := range p.slabs {
		if ptr, ok := s.alloc(); ok {
			return ptr, nil, nil
		}
	}

	s, err := newSlab(p.class, slots)
	if err != nil {
		return nil, nil, err
	}
	p.slabs = append(p.slabs, s)

	ptr, ok := s.alloc()
	if !ok {
		return nil, nil, errors.New("mempool: fresh slab has no free slot")
	}
	return ptr, s, nil
}

func (p *sizedPool) remove(s *slab) {
	for i := range p.slabs {
		if p.slabs[i] == s {
			p.slabs = append(p.slabs[:i], p.slabs[i+1:]...)
			return
		}
	}
}

// Pool is an off-heap allocator with individual reclaim.
// Not safe for concurrent use.
type Pool struct {
	logger  *slog.Logger
	config  Config
	classes map[int]*sizedPool

	// index holds every live slab sorted by descending base address, so the
	// slab owning a freed pointer is found with a single binary search.
	index []*slab

	closed bool
}

// New creates an empty pool. A nil logger falls back to slog.Default().
func New(logger *slog.Logger, config Config) (*Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Pool{
		logger:  logger,
		config:  config,
		classes: make(map[int]*sizedPool),
	}, nil
}

// Alloc returns an 8-byte aligned pointer to a block of at least size bytes.
func (p *Pool) Alloc(size int) (unsafe.Pointer, error) {
	if p.closed {
		return nil, ErrClosed
	}
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	class := (size + sizeClassStep - 1) &^ (sizeClassStep - 1)
	sp, ok := p.classes[class]
	if !ok {
		sp = &sizedPool{class: class}
		p.classes[class] = sp
	}

	ptr, created, err := sp.alloc(p.config.ObjectsPerSlab)
	if err != nil {
		return nil, err
	}
	if created != nil {
		p.indexInsert(created)
	}
	return ptr, nil
}

// Free releases a block previously returned by Alloc. A slab whose last slot
// is freed is unmapped. Freeing nil or a pointer the pool does not own is
// logged and ignored.
func (p *Pool) Free(ptr unsafe.Pointer) {
	if p.closed || ptr == nil {
		return
	}

	addr := uintptr(ptr)
	s := p.lookup(addr)
	if s == nil {
		p.logger.Warn("free of unknown pointer ignored", "addr", fmt.Sprintf("%#x", addr))
		return
	}

	idx := uint((addr - s.base()) / uintptr(s.class))
	s.used.Clear(idx)

	if s.used.None() {
		p.dropSlab(s)
	}
}

// Close unmaps every slab and disables the pool. Close is idempotent.
func (p *Pool) Close() error {
	if p.closed {
		return nil
	}
	var errs []error
	for _, s := range p.index {
		if err := s.release(); err != nil {
			p.logger.Error("failed to unmap pool slab", "error", err)
			errs = append(errs, err)
		}
	}
	p.index = nil
	p.classes = nil
	p.closed = true
	return errors.Join(errs...)
}

// SlotsInUse returns the total number of occupied slots across all slabs.
func (p *Pool) SlotsInUse() int {
	n := 0
	for _, s := range p.index {
		n += int(s.used.Count())
	}
	return n
}

// NumSlabs returns the number of live slabs across all size classes.
func (p *Pool) NumSlabs() int {
	return len(p.index)
}

// lookup returns the slab owning addr, or nil.
func (p *Pool) lookup(addr uintptr) *slab {
	i := sort.Search(len(p.index), func(i int) bool { return p.index[i].base() <= addr })
	if i < len(p.index) && p.index[i].contains(addr) {
		return p.index[i]
	}
	return nil
}

// indexInsert places s into the index, keeping it sorted by descending base
// address.
func (p *Pool) indexInsert(s *slab) {
	base := s.base()
	insertAt := sort.Search(len(p.index), func(i int) bool { return p.index[i].base() < base })
	p.index = append(p.index, nil)
	copy(p.index[insertAt+1:], p.index[insertAt:])
	p.index[insertAt] = s
}

// dropSlab removes an empty slab from the index and its size class and
// unmaps it.
func (p *Pool) dropSlab(s *slab) {
	base := s.base()
	i := sort.Search(len(p.index), func(i int) bool { return p.index[i].base() <= base })
	if i < len(p.index) && p.index[i] == s {
		p.index = append(p.index[:i], p.index[i+1:]...)
	}
	if sp, ok := p.classes[s.class]; ok {
		sp.remove(s)
	}
	if err := s.release(); err != nil {
		p.logger.Error("failed to unmap pool slab", "error", err)
	}
}
