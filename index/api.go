package index

// Index defines a generic vector index with basic lifecycle methods.
// It enables building from (id, embedding) pairs, top-k queries, and
// binary serialization for persistence.
type Index interface {
	// Build constructs the index from the given ids and vectors.
	// ids and vectors must have the same length; vectors must share one dimension.
	Build(ids []string, vectors [][]float32) error

	// Query runs a top-k search against the index with the provided query
	// vector and returns up to k matches as parallel slices of ids and
	// scores, most similar first (cosine similarity, higher is better).
	// k <= 0 means no cap.
	Query(query []float32, k int) (ids []string, scores []float32, err error)

	// QueryWithMinScore is Query restricted to matches whose similarity is
	// at least minScore.
	QueryWithMinScore(query []float32, k int, minScore float32) (ids []string, scores []float32, err error)

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}
