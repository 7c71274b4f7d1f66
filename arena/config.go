package arena

import (
	"errors"
	"fmt"
)

const (
	// DefaultSlabSize is the capacity of an arena's first slab, in bytes.
	DefaultSlabSize = 4096

	// DefaultMaxSlabs bounds how many slabs an arena may create before
	// Alloc starts failing with ErrSlabLimit.
	DefaultMaxSlabs = 512
)

type Config struct {
	// SlabSize is the capacity of the first slab, in bytes. Every subsequent
	// slab doubles the capacity of the previous one, so the k-th slab holds
	// SlabSize * 2^k bytes and k slabs hold SlabSize * (2^k - 1) in total.
	SlabSize int

	// MaxSlabs is the hard cap on the number of slabs the arena may create.
	MaxSlabs int
}

func (c Config) Validate() error {
	var errs []error
	if c.SlabSize < alignment {
		errs = append(errs, fmt.Errorf("invalid config: slab size %d must be at least %d bytes", c.SlabSize, alignment))
	}
	if c.MaxSlabs < 1 {
		errs = append(errs, errors.New("invalid config: max slabs must be at least 1"))
	}
	return errors.Join(errs...)
}

func DefaultConfig() Config {
	return Config{
		SlabSize: DefaultSlabSize,
		MaxSlabs: DefaultMaxSlabs,
	}
}
