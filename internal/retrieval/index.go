package retrieval

import (
	"time"
)

// Record is a catalog entry as seen by the index: an opaque stable id and the embedded text.
type Record struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Info describes where an index came from.
type Info struct {
	BuildID string    `json:"build_id"`
	Model   string    `json:"model"`
	BuiltAt time.Time `json:"built_at"`
}

// Index pairs N vectors with N records. Position i in vectors is records[i];
// no ids are stored alongside the vectors. An Index is never mutated after
// construction and is safe for concurrent searches.
type Index struct {
	dim     int
	metric  Metric
	vectors []float32 // row-major, len == dim*len(records)
	records []Record
	info    Info
}

// Empty returns an index with no entries. Searching it yields no hits.
func Empty(dim int, metric Metric) *Index {
	return &Index{dim: dim, metric: metric}
}

func (ix *Index) Len() int { return len(ix.records) }

func (ix *Index) Dimension() int { return ix.dim }

func (ix *Index) Metric() Metric { return ix.metric }

func (ix *Index) Info() Info { return ix.info }

// Record returns the metadata entry at position i.
func (ix *Index) Record(i int) Record { return ix.records[i] }

// Records returns a copy of the metadata table in positional order.
func (ix *Index) Records() []Record {
	out := make([]Record, len(ix.records))
	copy(out, ix.records)
	return out
}

func (ix *Index) vector(i int) []float32 {
	return ix.vectors[i*ix.dim : (i+1)*ix.dim]
}
