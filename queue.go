package pointerwars

// Queue is a FIFO facade over List: values are pushed at the tail and popped
// from the head, so the earliest pushed value is always the first one out.
// Not safe for concurrent use.
type Queue struct {
	list *List
}

// NewQueue creates an empty queue backed by alloc.
func NewQueue(alloc Allocator) (*Queue, error) {
	l, err := New(alloc)
	if err != nil {
		return nil, err
	}
	return &Queue{list: l}, nil
}

// Push appends value at the back of the queue.
func (q *Queue) Push(value uint) error {
	if q == nil {
		return ErrNilQueue
	}
	return q.list.InsertEnd(value)
}

// Pop removes and returns the front value.
// The ok result is false when the queue is empty.
func (q *Queue) Pop() (value uint, ok bool) {
	if q == nil {
		return 0, false
	}
	v, ok := q.list.front()
	if !ok {
		return 0, false
	}
	if err := q.list.Remove(0); err != nil {
		return 0, false
	}
	return v, true
}

// Peek returns the front value without removing it.
func (q *Queue) Peek() (value uint, ok bool) {
	if q == nil {
		return 0, false
	}
	return q.list.front()
}

// HasNext reports whether a value is available to pop.
func (q *Queue) HasNext() bool {
	return q != nil && q.list.Len() > 0
}

// Len returns the number of queued values.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return q.list.Len()
}

// Close releases all queued nodes back to the allocator.
func (q *Queue) Close() error {
	if q == nil {
		return ErrNilQueue
	}
	return q.list.Close()
}
