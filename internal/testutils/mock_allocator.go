// Package testutils provides allocator fakes shared by tests.
package testutils

import (
	"errors"
	"unsafe"
)

// ErrAllocFailed is returned by a MockAllocator with failure injection armed.
var ErrAllocFailed = errors.New("testutils: allocation failed")

// MockAllocator serves allocations from the Go heap and records every call.
// Blocks are retained in a live map until freed, so memory handed out during
// a test stays reachable. Blocks are backed by []uint64 to guarantee the
// 8-byte alignment the allocator contract promises.
type MockAllocator struct {
	allocCalls int
	freeCalls  int
	failAfter  int // -1 disables failure injection.
	live       map[unsafe.Pointer][]uint64
}

func NewMockAllocator() *MockAllocator {
	return &MockAllocator{
		failAfter: -1,
		live:      make(map[unsafe.Pointer][]uint64),
	}
}

// FailAfter arms failure injection: n further Alloc calls succeed, every
// call after that returns ErrAllocFailed.
func (m *MockAllocator) FailAfter(n int) {
	m.failAfter = n
}

func (m *MockAllocator) Alloc(size int) (unsafe.Pointer, error) {
	if m.failAfter == 0 {
		return nil, ErrAllocFailed
	}
	if m.failAfter > 0 {
		m.failAfter--
	}
	m.allocCalls++
	words := make([]uint64, (size+7)/8)
	p := unsafe.Pointer(&words[0])
	m.live[p] = words
	return p, nil
}

func (m *MockAllocator) Free(ptr unsafe.Pointer) {
	m.freeCalls++
	delete(m.live, ptr)
}

func (m *MockAllocator) AllocCalls() int {
	return m.allocCalls
}

func (m *MockAllocator) FreeCalls() int {
	return m.freeCalls
}

// LiveBlocks returns the number of blocks allocated but not yet freed.
func (m *MockAllocator) LiveBlocks() int {
	return len(m.live)
}
