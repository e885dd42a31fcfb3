package search

import (
	"context"
	"fmt"
	"iter"

	"github.com/poppart-mac/smartcomponents/topk"
	"github.com/poppart-mac/smartcomponents/vector"
)

// EmbedFunc converts free-form text into an embedding.
//
// Implementations can call any embedding provider (OpenAI-compatible APIs,
// local models, etc.) as long as they return a slice of float32 values. The
// core selection packages remain embedding-agnostic and only depend on the
// numeric vectors.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Query bundles a search text with result-shaping options.
type Query struct {
	// Text is the free-form query to embed and match against candidates.
	Text string

	// MaxResults caps the number of results; it must be positive. Use
	// math.MaxInt for no cap.
	MaxResults int

	// MinSimilarity is the optional similarity floor; nil means no floor.
	MinSimilarity *float32
}

func (q Query) floor() float32 {
	if q.MinSimilarity != nil {
		return *q.MinSimilarity
	}
	return topk.NoMinSimilarity
}

// Find embeds q.Text with the provided embedder and returns the best
// candidates with their scores, most similar first. The embedder is invoked
// exactly once, before any candidate is consumed; its failure propagates to
// the caller and leaves the candidate sequence untouched.
func Find[T any](ctx context.Context, embed EmbedFunc, q Query, candidates iter.Seq2[T, vector.Embedding]) ([]topk.Scored[T], error) {
	target, err := embedQuery(ctx, embed, q.Text)
	if err != nil {
		return nil, err
	}
	return topk.Select(target, candidates, q.MaxResults, q.floor())
}

// FindItems is Find with the similarity scores dropped from the output.
func FindItems[T any](ctx context.Context, embed EmbedFunc, q Query, candidates iter.Seq2[T, vector.Embedding]) ([]T, error) {
	target, err := embedQuery(ctx, embed, q.Text)
	if err != nil {
		return nil, err
	}
	return topk.SelectItems(target, candidates, q.MaxResults, q.floor())
}

// FindDocuments runs a text query against a vector store, analogous to
// client-side query flows in hosted vector databases: the caller supplies
// free-form text, the embedder turns it into the target vector, and the
// store answers with its best matches.
func FindDocuments(ctx context.Context, embed EmbedFunc, q Query, store vector.Store) ([]vector.Match, error) {
	target, err := embedQuery(ctx, embed, q.Text)
	if err != nil {
		return nil, err
	}
	return store.SimilaritySearchWithScore(ctx, target.Values(), q.MaxResults, q.floor())
}

func embedQuery(ctx context.Context, embed EmbedFunc, text string) (vector.Embedding, error) {
	if embed == nil {
		return vector.Embedding{}, fmt.Errorf("search: embed function is nil")
	}
	vec, err := embed(ctx, text)
	if err != nil {
		return vector.Embedding{}, fmt.Errorf("search: embed query: %w", err)
	}
	return vector.NewEmbedding(vec), nil
}
