package topk

import (
	"container/heap"
	"errors"
	"fmt"
	"iter"
	"math"
)

// Embedding is the capability a vector representation must provide to be
// searchable: a pairwise similarity score where higher means more alike.
type Embedding[E any] interface {
	Similarity(other E) float32
}

// NoMinSimilarity disables the similarity floor. It is the smallest
// representable float32, so every finite score passes it.
const NoMinSimilarity = -math.MaxFloat32

// ErrInvalidMaxResults is returned when a caller asks for a non-positive
// number of results. Callers that want no cap pass math.MaxInt instead.
var ErrInvalidMaxResults = errors.New("topk: max results must be positive")

// Scored pairs an item with its similarity to the search target.
type Scored[T any] struct {
	Item       T
	Similarity float32

	// arrival is the zero-based position at which the candidate was consumed
	// from its source sequence. Used only to break exact-similarity ties.
	arrival int64
}

// Select scans candidates once and returns up to maxResults items whose
// similarity to target is at least minSimilarity, ordered most similar
// first. Candidates with equal similarity are ordered by descending arrival
// position, so the later arrival wins the tie.
//
// The sequence is consumed strictly once and never buffered wholesale: the
// working set holds at most maxResults entries, giving O(N log K) time and
// O(K) space for N candidates. If maxResults <= 0, Select fails with
// ErrInvalidMaxResults before consuming any candidate. An empty sequence
// yields an empty result and no error.
func Select[T any, E Embedding[E]](target E, candidates iter.Seq2[T, E], maxResults int, minSimilarity float32) ([]Scored[T], error) {
	if maxResults <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxResults, maxResults)
	}

	var (
		ws      workingSet[T]
		arrival int64
	)
	for item, emb := range candidates {
		sim := target.Similarity(emb)
		switch {
		case len(ws) < maxResults:
			if sim >= minSimilarity {
				heap.Push(&ws, Scored[T]{Item: item, Similarity: sim, arrival: arrival})
			}
		case sim > ws[0].Similarity:
			// The set is full and the root holds its weakest member, which by
			// construction already satisfies minSimilarity; only strictly
			// better scores displace it.
			ws[0] = Scored[T]{Item: item, Similarity: sim, arrival: arrival}
			heap.Fix(&ws, 0)
		}
		arrival++
	}

	// Pop ascending, fill the result back to front for descending order.
	out := make([]Scored[T], len(ws))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&ws).(Scored[T])
	}
	return out, nil
}

// SelectItems is Select with the similarity scores dropped from the output.
func SelectItems[T any, E Embedding[E]](target E, candidates iter.Seq2[T, E], maxResults int, minSimilarity float32) ([]T, error) {
	scored, err := Select(target, candidates, maxResults, minSimilarity)
	if err != nil {
		return nil, err
	}
	items := make([]T, len(scored))
	for i, s := range scored {
		items[i] = s.Item
	}
	return items, nil
}

// Similarity is the standalone pairwise building block: it delegates
// directly to the embedding capability and carries no state of its own.
func Similarity[E Embedding[E]](a, b E) float32 {
	return a.Similarity(b)
}

// workingSet is a min-heap of at most K scored results. The root is the
// member that a better candidate evicts: the lowest similarity, and among
// equal similarities the earliest arrival.
type workingSet[T any] []Scored[T]

func (w workingSet[T]) Len() int { return len(w) }

func (w workingSet[T]) Less(i, j int) bool {
	if w[i].Similarity != w[j].Similarity {
		return w[i].Similarity < w[j].Similarity
	}
	return w[i].arrival < w[j].arrival
}

func (w workingSet[T]) Swap(i, j int) { w[i], w[j] = w[j], w[i] }

func (w *workingSet[T]) Push(x any) { *w = append(*w, x.(Scored[T])) }

func (w *workingSet[T]) Pop() any {
	old := *w
	n := len(old)
	x := old[n-1]
	*w = old[:n-1]
	return x
}
