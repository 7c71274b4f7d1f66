// Package graph implements the adjacency-row graph and queue-driven
// breadth-first search used by the queue benchmark.
package graph

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/willf/bitset"

	"github.com/jkshtj/pointerwars"
)

// rowGrowth is the step adjacency rows grow by.
const rowGrowth = 16

// Graph is a directed graph stored as per-node adjacency rows.
// Not safe for concurrent use.
type Graph struct {
	rows    [][]uint
	visited *bitset.BitSet
}

// New creates a graph with nodes numbered 0 through numNodes-1 and no edges.
func New(numNodes int) *Graph {
	return &Graph{
		rows:    make([][]uint, numNodes),
		visited: bitset.New(uint(numNodes)),
	}
}

// NumNodes returns the number of nodes the graph was created with.
func (g *Graph) NumNodes() int { return len(g.rows) }

// NumEdges returns the number of directed edges added so far.
func (g *Graph) NumEdges() int {
	n := 0
	for _, row := range g.rows {
		n += len(row)
	}
	return n
}

// AddEdge records a directed edge from node i to node j.
func (g *Graph) AddEdge(i, j uint) error {
	if int(i) >= len(g.rows) || int(j) >= len(g.rows) {
		return fmt.Errorf("graph: edge (%d, %d) outside node range 0-%d", i, j, len(g.rows)-1)
	}
	row := g.rows[i]
	if len(row) == cap(row) {
		grown := make([]uint, len(row), len(row)+rowGrowth)
		copy(grown, row)
		row = grown
	}
	g.rows[i] = append(row, j)
	return nil
}

// Result summarizes one breadth-first search.
type Result struct {
	Found        bool
	NodesVisited int    // Number of frontier pops performed.
	Checksum     uint64 // xxhash of the pop order; identical runs hash identically.
}

// Search runs a breadth-first search from node from until an edge reaching
// node to is seen or the frontier runs dry. The frontier queue is built from
// alloc, so the same search can be replayed under different memory
// strategies. Cancellation of ctx is checked on every step.
func (g *Graph) Search(ctx context.Context, alloc pointerwars.Allocator, from, to uint) (Result, error) {
	q, err := pointerwars.NewQueue(alloc)
	if err != nil {
		return Result{}, err
	}
	defer q.Close()

	g.visited.ClearAll()
	digest := xxhash.New()
	var word [8]byte

	pop := func() (uint, bool) {
		v, ok := q.Pop()
		if !ok {
			return 0, false
		}
		binary.LittleEndian.PutUint64(word[:], uint64(v))
		digest.Write(word[:])
		return v, true
	}

	var res Result
	next := from
	for !res.Found {
		if err := ctx.Err(); err != nil {
			res.Checksum = digest.Sum64()
			return res, err
		}

		if int(next) >= len(g.rows) || g.visited.Test(next) {
			v, ok := pop()
			if !ok {
				break
			}
			res.NodesVisited++
			next = v
			continue
		}
		g.visited.Set(next)

		for _, adj := range g.rows[next] {
			if adj == to {
				res.Found = true
			}
			if err := q.Push(adj); err != nil {
				res.Checksum = digest.Sum64()
				return res, err
			}
		}

		v, ok := pop()
		if !ok {
			break
		}
		res.NodesVisited++
		next = v
	}

	res.Checksum = digest.Sum64()
	return res, nil
}
