package arena

// SizeInUse returns the number of bytes currently consumed in the arena.
// This includes internal fragmentation due to alignment.
func (a *Arena) SizeInUse() int {
	sum := 0
	for _, s := range a.slabs {
		sum += s.pos
	}
	return sum
}

// NumSlabs returns the number of slabs the arena has created.
func (a *Arena) NumSlabs() int {
	return len(a.slabs)
}

// Capacity returns the total number of bytes reserved across all slabs.
func (a *Arena) Capacity() int {
	sum := 0
	for _, s := range a.slabs {
		sum += len(s.data)
	}
	return sum
}

// Utilization returns the ratio of bytes in use to reserved capacity
// (0.0 to 1.0). It returns 0.0 for a closed or empty arena.
func (a *Arena) Utilization() float64 {
	capacity := a.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(a.SizeInUse()) / float64(capacity)
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() Metrics {
	return Metrics{
		SizeInUse:   a.SizeInUse(),
		Capacity:    a.Capacity(),
		NumSlabs:    a.NumSlabs(),
		Utilization: a.Utilization(),
	}
}

// Metrics contains statistical information about an arena.
type Metrics struct {
	SizeInUse   int     // Bytes currently allocated, including padding.
	Capacity    int     // Total reserved bytes across all slabs.
	NumSlabs    int     // Number of slabs created so far.
	Utilization float64 // Ratio of used to reserved bytes (0.0-1.0).
}
