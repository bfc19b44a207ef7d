package retrieval

import (
	"fmt"
	"strings"

	"github.com/hupe1980/vecgo/distance"
)

// Metric selects how distance between two vectors is measured. Smaller is closer.
type Metric uint8

const (
	// MetricL2 is squared Euclidean distance.
	MetricL2 Metric = iota + 1
	// MetricCosine is 1 - cosine similarity. Vectors are normalized at build and query time.
	MetricCosine
)

func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "l2":
		return MetricL2, nil
	case "cosine":
		return MetricCosine, nil
	default:
		return 0, fmt.Errorf("unknown metric %q (valid: l2, cosine)", s)
	}
}

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "l2"
	case MetricCosine:
		return "cosine"
	default:
		return fmt.Sprintf("metric(%d)", uint8(m))
	}
}

func (m Metric) valid() bool {
	return m == MetricL2 || m == MetricCosine
}

// prepare returns the vector as stored or queried under m. Cosine works on a
// normalized copy so distances reduce to a dot product.
func (m Metric) prepare(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	if m == MetricCosine {
		distance.NormalizeL2InPlace(out)
	}
	return out
}

func (m Metric) distance(a, b []float32) float32 {
	if m == MetricCosine {
		return 1 - distance.Dot(a, b)
	}
	return distance.SquaredL2(a, b)
}
