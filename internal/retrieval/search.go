package retrieval

import (
	"container/heap"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"song-suggest/internal/embeddings"
)

// Hit is one ranked search result.
type Hit struct {
	Record   Record  `json:"record"`
	Position int     `json:"position"`
	Distance float32 `json:"distance"`
}

// minShard is the smallest slice of the index worth handing to its own goroutine.
const minShard = 2048

// Search is SearchParallel with a single worker.
func (ix *Index) Search(query embeddings.Vector, k int) ([]Hit, error) {
	return ix.SearchParallel(query, k, 1)
}

// SearchParallel returns the k nearest records to query under the index metric,
// nearest first, ties broken by lower position. k larger than the index is
// clamped. The distance scan is split across up to workers goroutines; the
// ranking does not depend on the worker count.
func (ix *Index) SearchParallel(query embeddings.Vector, k, workers int) ([]Hit, error) {
	if ix == nil {
		return nil, ErrNotLoaded
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrQuery, k)
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d", ErrQuery, len(query), ix.dim)
	}
	n := ix.Len()
	if n == 0 {
		return []Hit{}, nil
	}
	k = min(k, n)
	q := ix.metric.prepare(query)

	shards := 1
	if workers > 1 {
		shards = min(workers, (n+minShard-1)/minShard)
	}
	if shards <= 1 {
		return ix.hydrate(ix.scan(q, k, 0, n)), nil
	}

	size := (n + shards - 1) / shards
	partial := make([][]candidate, shards)
	var g errgroup.Group
	for s := 0; s < shards; s++ {
		lo, hi := s*size, min((s+1)*size, n)
		g.Go(func() error {
			partial[s] = ix.scan(q, k, lo, hi)
			return nil
		})
	}
	_ = g.Wait()

	merged := slices.Concat(partial...)
	slices.SortFunc(merged, compareCandidates)
	return ix.hydrate(merged[:min(k, len(merged))]), nil
}

// scan keeps the k best candidates among positions [lo, hi), returned in ranked order.
func (ix *Index) scan(q []float32, k, lo, hi int) []candidate {
	h := make(worstFirst, 0, k)
	for i := lo; i < hi; i++ {
		c := candidate{pos: i, dist: ix.metric.distance(q, ix.vector(i))}
		if len(h) < k {
			heap.Push(&h, c)
			continue
		}
		if compareCandidates(c, h[0]) < 0 {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}
	out := []candidate(h)
	slices.SortFunc(out, compareCandidates)
	return out
}

func (ix *Index) hydrate(cands []candidate) []Hit {
	hits := make([]Hit, len(cands))
	for i, c := range cands {
		hits[i] = Hit{Record: ix.records[c.pos], Position: c.pos, Distance: c.dist}
	}
	return hits
}

type candidate struct {
	pos  int
	dist float32
}

func compareCandidates(a, b candidate) int {
	switch {
	case a.dist < b.dist:
		return -1
	case a.dist > b.dist:
		return 1
	default:
		return a.pos - b.pos
	}
}

// worstFirst is a max-heap: the root is the candidate that would be evicted first.
type worstFirst []candidate

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return compareCandidates(h[i], h[j]) > 0 }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *worstFirst) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}
