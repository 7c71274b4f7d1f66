// Command queuebench measures queue-driven breadth-first searches over a
// sparse graph under different memory allocation strategies.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unsafe"

	"github.com/urfave/cli/v2"

	"github.com/jkshtj/pointerwars"
	"github.com/jkshtj/pointerwars/arena"
	"github.com/jkshtj/pointerwars/internal/graph"
	"github.com/jkshtj/pointerwars/internal/mmarket"
	"github.com/jkshtj/pointerwars/mempool"
)

const (
	exitCodeUsage  = 1
	exitCodeInput  = 2
	exitCodeSearch = 3
)

// nodeBytes is the size of one queue node, the allocation unit the
// microbenchmark exercises.
const nodeBytes = 16

const microIterations = 10000

// allocStrategy is an allocator that can be torn down at process exit.
type allocStrategy interface {
	pointerwars.Allocator
	Close() error
}

// countingAllocator counts Alloc and Free invocations so the report can
// estimate the share of search time spent allocating.
type countingAllocator struct {
	inner  pointerwars.Allocator
	allocs uint64
	frees  uint64
}

func (c *countingAllocator) Alloc(size int) (unsafe.Pointer, error) {
	c.allocs++
	return c.inner.Alloc(size)
}

func (c *countingAllocator) Free(ptr unsafe.Pointer) {
	c.frees++
	c.inner.Free(ptr)
}

func (c *countingAllocator) reset() {
	c.allocs = 0
	c.frees = 0
}

func main() {
	app := &cli.App{
		Name:  "queuebench",
		Usage: "benchmark queue-backed breadth-first searches under different allocators",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "matrix",
				Usage:    "Matrix Market coordinate file describing the graph",
				Required: true,
				EnvVars:  []string{"QUEUEBENCH_MATRIX"},
			},
			&cli.StringFlag{
				Name:     "pairs",
				Usage:    "file of 'from to' node pairs to search",
				Required: true,
				EnvVars:  []string{"QUEUEBENCH_PAIRS"},
			},
			&cli.IntFlag{
				Name:  "searches",
				Value: 100,
				Usage: "maximum number of searches to run",
			},
			&cli.StringFlag{
				Name:  "allocator",
				Value: "arena",
				Usage: "memory strategy: arena or mempool",
			},
			&cli.IntFlag{
				Name:  "slab-size",
				Value: arena.DefaultSlabSize,
				Usage: "arena base slab size in bytes",
			},
			&cli.IntFlag{
				Name:  "max-slabs",
				Value: arena.DefaultMaxSlabs,
				Usage: "arena slab limit",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 120 * time.Second,
				Usage: "per-search timeout",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Action: run,
	}

	// cli.Exit errors returned from the action carry their own exit code and
	// are handled inside Run; anything else is a usage problem.
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeUsage)
	}
}

func run(c *cli.Context) error {
	if c.Bool("verbose") {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	strategy, err := newAllocator(c)
	if err != nil {
		return cli.Exit(err.Error(), exitCodeUsage)
	}
	defer strategy.Close()

	allocNs, freeNs := microbenchmark(strategy)
	fmt.Printf("Average time [ns] per Alloc call: %d\n", allocNs)
	fmt.Printf("Average time [ns] per Free call: %d\n", freeNs)

	g, err := loadGraph(c.String("matrix"))
	if err != nil {
		return cli.Exit(err.Error(), exitCodeInput)
	}

	pairs, err := loadPairs(c.String("pairs"), c.Int("searches"))
	if err != nil {
		return cli.Exit(err.Error(), exitCodeInput)
	}

	counting := &countingAllocator{inner: strategy}
	timeout := c.Duration("timeout")
	var total time.Duration

	for n, pair := range pairs {
		fmt.Printf("(%d / %d) Searching for a connection between node %d -> %d\n",
			n+1, len(pairs), pair[0], pair[1])
		counting.reset()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		start := time.Now()
		res, err := g.Search(ctx, counting, pair[0], pair[1])
		elapsed := time.Since(start)
		cancel()

		if errors.Is(err, context.DeadlineExceeded) {
			return cli.Exit(fmt.Sprintf(
				"search %d -> %d timed out after %s; this points at a performance problem in the queue or list",
				pair[0], pair[1], timeout), exitCodeSearch)
		}
		if err != nil {
			return cli.Exit(err.Error(), exitCodeSearch)
		}

		total += elapsed
		if res.Found {
			fmt.Println("Path found.")
		} else {
			fmt.Println("No path found.")
		}
		fmt.Printf("Nodes visited: %d\n", res.NodesVisited)
		fmt.Printf("Time elapsed [s]: %.3f\n", elapsed.Seconds())
		fmt.Printf("Alloc calls: %d Free calls: %d\n", counting.allocs, counting.frees)
		if ns := elapsed.Nanoseconds(); ns > 0 {
			fmt.Printf("Estimated percentage of time spent in Alloc: %.3f\n",
				100*float64(counting.allocs*uint64(allocNs))/float64(ns))
			fmt.Printf("Estimated percentage of time spent in Free: %.3f\n",
				100*float64(counting.frees*uint64(freeNs))/float64(ns))
		}
		fmt.Printf("Traversal checksum: %#016x\n", res.Checksum)
	}

	fmt.Printf("Performed %d searches in [s]: %.3f\n", len(pairs), total.Seconds())
	return nil
}

func newAllocator(c *cli.Context) (allocStrategy, error) {
	logger := slog.Default()
	switch name := c.String("allocator"); name {
	case "arena":
		return arena.New(logger, arena.Config{
			SlabSize: c.Int("slab-size"),
			MaxSlabs: c.Int("max-slabs"),
		})
	case "mempool":
		return mempool.New(logger, mempool.DefaultConfig())
	default:
		return nil, fmt.Errorf("unknown allocator %q (want arena or mempool)", name)
	}
}

// microbenchmark measures the mean cost of a node-sized Alloc and Free.
// Single calls are too short to time individually, so batches of
// microIterations are timed after a few warm-up rounds.
func microbenchmark(alloc pointerwars.Allocator) (allocNs, freeNs int64) {
	ptrs := make([]unsafe.Pointer, microIterations)

	for range 4 {
		for i := range ptrs {
			ptrs[i], _ = alloc.Alloc(nodeBytes)
		}
		for _, p := range ptrs {
			alloc.Free(p)
		}
	}

	start := time.Now()
	for i := range ptrs {
		ptrs[i], _ = alloc.Alloc(nodeBytes)
	}
	allocElapsed := time.Since(start)

	start = time.Now()
	for _, p := range ptrs {
		alloc.Free(p)
	}
	freeElapsed := time.Since(start)

	return allocElapsed.Nanoseconds() / microIterations,
		freeElapsed.Nanoseconds() / microIterations
}

func loadGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := mmarket.NewDecoder(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	h := dec.Header()
	if !h.Square() {
		return nil, fmt.Errorf("matrix is not square: %d x %d", h.Rows, h.Cols)
	}
	slog.Debug("loading graph", "nodes", h.Rows, "entries", h.NonZeros)

	// Node indices in the file are 1-based.
	g := graph.New(h.Rows + 1)
	if err := dec.Edges(g.AddEdge); err != nil {
		return nil, err
	}
	slog.Debug("graph loaded", "edges", g.NumEdges())
	return g, nil
}

func loadPairs(path string, max int) ([][2]uint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pairs [][2]uint
	sc := bufio.NewScanner(f)
	for sc.Scan() && len(pairs) < max {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var from, to uint
		if _, err := fmt.Sscanf(line, "%d %d", &from, &to); err != nil {
			return nil, fmt.Errorf("bad pair line %q: %w", line, err)
		}
		pairs = append(pairs, [2]uint{from, to})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}
