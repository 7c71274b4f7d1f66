package pointerwars

// Iterator is a non-owning forward cursor over a List.
//
// An iterator snapshots the list's mutation epoch at creation; any structural
// change to the list (insert, remove, close) invalidates live iterators
// instead of letting them read stale or freed nodes. An invalidated iterator
// must be re-created.
type Iterator struct {
	list    *List
	node    *node
	index   int
	data    uint
	version uint64
	err     error
}

// Iterator returns a cursor positioned at index, walking from the head in
// O(index). Valid for 0 <= index < Len().
func (l *List) Iterator(index int) (*Iterator, error) {
	if l == nil {
		return nil, ErrNilList
	}
	if index < 0 || index >= l.size {
		return nil, ErrIndexOutOfRange
	}
	n := l.nodeAt(index)
	return &Iterator{
		list:    l,
		node:    n,
		index:   index,
		data:    n.data,
		version: l.version,
	}, nil
}

// Index returns the 0-based position the iterator currently represents.
func (it *Iterator) Index() int { return it.index }

// Value returns the payload captured at the current position.
func (it *Iterator) Value() uint { return it.data }

// Next advances the cursor to the successor node, updating Index and Value.
// It returns false at the end of the list, or when the list has been mutated
// since the iterator was created; the two cases are told apart by Err.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.version != it.list.version {
		it.err = ErrIteratorInvalid
		return false
	}
	if it.node.next == nil {
		return false
	}
	it.node = it.node.next
	it.index++
	it.data = it.node.data
	return true
}

// Err returns ErrIteratorInvalid if the list was mutated while the iterator
// was live, and nil after a clean end-of-list.
func (it *Iterator) Err() error { return it.err }
