package vector

import (
	"fmt"

	"github.com/viant/vec/search"
)

// Embedding is a fixed-size float32 vector with a precomputed magnitude so
// repeated similarity computations against the same embedding skip the
// normalization pass.
type Embedding struct {
	values    []float32
	magnitude float32
}

// NewEmbedding wraps values without copying. The caller must not mutate the
// slice afterwards.
func NewEmbedding(values []float32) Embedding {
	e := Embedding{values: values}
	if len(values) > 0 {
		e.magnitude = search.Float32s(values).Magnitude()
	}
	return e
}

// Values returns the underlying vector.
func (e Embedding) Values() []float32 { return e.values }

// Dimension returns the number of components.
func (e Embedding) Dimension() int { return len(e.values) }

// Magnitude returns the cached Euclidean norm.
func (e Embedding) Magnitude() float32 { return e.magnitude }

// Similarity returns the cosine similarity to other in [-1, 1]. Comparing
// embeddings of different dimensions is a programming error and panics.
// A zero-magnitude operand yields similarity 0.
func (e Embedding) Similarity(other Embedding) float32 {
	if len(e.values) != len(other.values) {
		panic(fmt.Sprintf("vector: similarity dimension mismatch: %d vs %d", len(e.values), len(other.values)))
	}
	if e.magnitude == 0 || other.magnitude == 0 {
		return 0
	}
	// On !arm64 the exported wrapper for cosineDistanceWithMagnitude is named
	// CosineDistanceWithMagnitudesNeon upstream; arm64 exports it as
	// CosineDistanceWithMagnitude instead.
	return 1 - search.Float32s(e.values).CosineDistanceWithMagnitudesNeon(other.values, e.magnitude, other.magnitude)
}
