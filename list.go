// Package pointerwars implements a singly-linked list and a FIFO queue whose
// node storage is supplied by a caller-injected allocator.
// It supports insertion, removal and lookup of integer values by index.
package pointerwars

import (
	"errors"
	"unsafe"
)

var (
	ErrNilAllocator    = errors.New("list: allocator is nil")
	ErrNilList         = errors.New("list: list is nil")
	ErrNilQueue        = errors.New("queue: queue is nil")
	ErrIndexOutOfRange = errors.New("list: index out of range")
	ErrIteratorInvalid = errors.New("list: iterator invalidated by list mutation")
)

// Allocator is the capability pair injected into List and Queue construction.
// It decouples the list structure from a concrete memory strategy, so the same
// code can run on top of a bump-pointer arena, a free-list pool, or a test
// fake without modification.
//
// An allocator must stay in place for the lifetime of every list built with
// it; mixing allocators across a list's lifetime corrupts memory.
type Allocator interface {
	// Alloc returns a pointer to a block of at least size bytes. The address
	// is 8-byte aligned and stays valid and stable until the allocator itself
	// is closed.
	Alloc(size int) (unsafe.Pointer, error)

	// Free releases a block previously returned by Alloc. Implementations
	// that only reclaim in bulk, such as a bump-pointer arena, treat this as
	// a no-op.
	Free(ptr unsafe.Pointer)
}

// node is one list element. Nodes live in allocator-owned memory outside the
// Go heap, so links between them are never scanned or moved by the garbage
// collector.
type node struct {
	data uint
	next *node
}

const nodeSize = int(unsafe.Sizeof(node{}))

// List is a singly-linked list of unsigned integer values with O(1) access to
// both ends. Not safe for concurrent use.
type List struct {
	alloc Allocator
	head  *node
	tail  *node
	size  int

	// version is incremented on every structural mutation and is checked by
	// live iterators, see Iterator.
	version uint64
}

// New creates an empty list whose nodes are carved out of alloc.
func New(alloc Allocator) (*List, error) {
	if alloc == nil {
		return nil, ErrNilAllocator
	}
	return &List{alloc: alloc}, nil
}

// Len returns the number of elements in the list. A nil list has length 0.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return l.size
}

func (l *List) newNode(data uint, next *node) (*node, error) {
	p, err := l.alloc.Alloc(nodeSize)
	if err != nil {
		return nil, err
	}
	n := (*node)(p)
	n.data = data
	n.next = next
	return n, nil
}

// nodeAt returns the node at index. The caller guarantees 0 <= index < size.
func (l *List) nodeAt(index int) *node {
	n := l.head
	for ; index > 0; index-- {
		n = n.next
	}
	return n
}

// Insert places value at the given index; index equal to Len() appends.
// Front and end insertion are O(1), interior insertion walks to the
// predecessor in O(index).
func (l *List) Insert(index int, value uint) error {
	if l == nil {
		return ErrNilList
	}
	if index < 0 || index > l.size {
		return ErrIndexOutOfRange
	}

	switch {
	case index == 0:
		n, err := l.newNode(value, l.head)
		if err != nil {
			return err
		}
		l.head = n
		if l.size == 0 {
			l.tail = n
		}
	case index == l.size:
		n, err := l.newNode(value, nil)
		if err != nil {
			return err
		}
		l.tail.next = n
		l.tail = n
	default:
		prev := l.nodeAt(index - 1)
		n, err := l.newNode(value, prev.next)
		if err != nil {
			return err
		}
		prev.next = n
	}

	l.size++
	l.version++
	return nil
}

// InsertFront places value at the front of the list.
func (l *List) InsertFront(value uint) error { return l.Insert(0, value) }

// InsertEnd appends value at the end of the list.
func (l *List) InsertEnd(value uint) error {
	if l == nil {
		return ErrNilList
	}
	return l.Insert(l.size, value)
}

// Remove deletes the element at index and releases its node back to the
// allocator. O(1) for the front, O(index) otherwise.
func (l *List) Remove(index int) error {
	if l == nil {
		return ErrNilList
	}
	if index < 0 || index >= l.size {
		return ErrIndexOutOfRange
	}

	var removed *node
	if index == 0 {
		removed = l.head
		l.head = removed.next
		if l.tail == removed {
			l.tail = nil
		}
	} else {
		prev := l.nodeAt(index - 1)
		removed = prev.next
		prev.next = removed.next
		if l.tail == removed {
			l.tail = prev
		}
	}

	l.alloc.Free(unsafe.Pointer(removed))
	l.size--
	l.version++
	return nil
}

// Find returns the index of the first element equal to value.
// The ok result reports whether such an element exists.
func (l *List) Find(value uint) (index int, ok bool) {
	if l == nil {
		return 0, false
	}
	i := 0
	for n := l.head; n != nil; n = n.next {
		if n.data == value {
			return i, true
		}
		i++
	}
	return 0, false
}

// front returns the first value without removing it.
func (l *List) front() (uint, bool) {
	if l == nil || l.head == nil {
		return 0, false
	}
	return l.head.data, true
}

// Close releases every node back to the allocator. The list is empty and
// reusable afterwards; closing an already empty list is a no-op.
func (l *List) Close() error {
	if l == nil {
		return ErrNilList
	}
	for n := l.head; n != nil; {
		next := n.next
		l.alloc.Free(unsafe.Pointer(n))
		n = next
	}
	l.head = nil
	l.tail = nil
	l.size = 0
	l.version++
	return nil
}
