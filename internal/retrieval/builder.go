package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"song-suggest/internal/embeddings"
)

// Build embeds every record in one batch and returns an index whose positions
// follow the input order. Nothing is persisted; see Save.
func Build(ctx context.Context, e embeddings.Embedder, records []Record, metric Metric) (*Index, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", ErrBuild)
	}
	if !metric.valid() {
		return nil, fmt.Errorf("%w: invalid metric %s", ErrBuild, metric)
	}
	dim := e.Dimensions()
	if dim <= 0 {
		return nil, fmt.Errorf("%w: embedder reports dimension %d", ErrBuild, dim)
	}

	seen := make(map[string]int, len(records))
	texts := make([]string, len(records))
	for i, r := range records {
		if prev, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q at positions %d and %d", ErrBuild, r.ID, prev, i)
		}
		seen[r.ID] = i
		if strings.TrimSpace(r.Text) == "" {
			return nil, fmt.Errorf("%w: record %q has empty text", ErrBuild, r.ID)
		}
		texts[i] = r.Text
	}

	vecs, err := e.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed catalog: %w", err)
	}
	if len(vecs) != len(records) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d records", ErrBuild, len(vecs), len(records))
	}

	ix := &Index{
		dim:     dim,
		metric:  metric,
		vectors: make([]float32, 0, dim*len(records)),
		records: make([]Record, len(records)),
		info: Info{
			BuildID: uuid.NewString(),
			Model:   e.Model(),
			BuiltAt: time.Now().UTC(),
		},
	}
	for i, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: record %q embedded with dimension %d, want %d", ErrBuild, records[i].ID, len(v), dim)
		}
		ix.vectors = append(ix.vectors, metric.prepare(v)...)
	}
	copy(ix.records, records)
	return ix, nil
}
