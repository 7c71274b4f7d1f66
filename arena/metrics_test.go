package arena

import "testing"

func TestArenaMetrics(t *testing.T) {
	a, err := New(nil, Config{SlabSize: 64, MaxSlabs: 4})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	m := a.Metrics()
	if m.NumSlabs != 1 || m.Capacity != 64 || m.SizeInUse != 0 || m.Utilization != 0 {
		t.Fatalf("fresh arena metrics = %+v", m)
	}

	if _, err := a.Alloc(10); err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if got := a.SizeInUse(); got != 10 {
		t.Errorf("SizeInUse after Alloc(10) = %d, want 10", got)
	}

	// The next allocation starts at the aligned offset 16.
	if _, err := a.Alloc(1); err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if got := a.SizeInUse(); got != 17 {
		t.Errorf("SizeInUse with alignment padding = %d, want 17", got)
	}

	// Force a growth step and check reservation accounting.
	if _, err := a.Alloc(64); err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	m = a.Metrics()
	if m.NumSlabs != 2 {
		t.Errorf("NumSlabs after growth = %d, want 2", m.NumSlabs)
	}
	if m.Capacity != 64+128 {
		t.Errorf("Capacity after growth = %d, want %d", m.Capacity, 64+128)
	}
	if m.SizeInUse != 17+64 {
		t.Errorf("SizeInUse after growth = %d, want %d", m.SizeInUse, 17+64)
	}
	if want := float64(17+64) / float64(64+128); m.Utilization != want {
		t.Errorf("Utilization = %f, want %f", m.Utilization, want)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	m = a.Metrics()
	if m.NumSlabs != 0 || m.Capacity != 0 || m.SizeInUse != 0 {
		t.Errorf("closed arena metrics = %+v, want zeroes", m)
	}
}
