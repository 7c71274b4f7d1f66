package mempool

import "fmt"

// DefaultObjectsPerSlab is the number of fixed-size slots a slab holds.
const DefaultObjectsPerSlab = 256

type Config struct {
	// ObjectsPerSlab is the number of slots each slab holds. Larger values
	// amortize mmap calls over more allocations at the cost of coarser
	// release granularity.
	ObjectsPerSlab int
}

func (c Config) Validate() error {
	if c.ObjectsPerSlab < 1 {
		return fmt.Errorf("invalid config: objects per slab %d must be at least 1", c.ObjectsPerSlab)
	}
	return nil
}

func DefaultConfig() Config {
	return Config{ObjectsPerSlab: DefaultObjectsPerSlab}
}
