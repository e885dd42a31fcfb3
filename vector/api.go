package vector

import (
	"context"
	"iter"
)

// Document represents a logical document held by a vector store: an opaque
// payload (content plus metadata) paired with its embedding.
type Document struct {
	// ID is the logical identifier of the document.
	ID string

	// Content holds the main text/body of the document.
	Content string

	// Metadata is an opaque payload associated with the document, typically
	// JSON. It is modeled as a raw string to avoid committing to a
	// serialization library.
	Metadata string

	// Embedding is the vector representation of the document content.
	Embedding []float32
}

// Match is a single similarity search hit.
type Match struct {
	Document

	// Score is the cosine similarity between the query and the document
	// embedding; higher is more similar.
	Score float32
}

// Store defines the application-level vector store API. Implementations in
// this module keep documents durable (SQLite or bbolt) and answer top-k
// queries by streaming their rows through the topk selector.
type Store interface {
	// AddDocuments inserts documents into the store and returns their IDs.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// SimilaritySearch returns up to k documents ordered from most to least
	// similar to the query embedding.
	SimilaritySearch(ctx context.Context, queryEmbedding []float32, k int) ([]Document, error)

	// SimilaritySearchWithScore is SimilaritySearch with scores retained and
	// an additional minimum-similarity floor. Pass topk.NoMinSimilarity to
	// disable the floor.
	SimilaritySearchWithScore(ctx context.Context, queryEmbedding []float32, k int, minScore float32) ([]Match, error)

	// Candidates streams the stored documents paired with their embeddings
	// as a single-pass sequence in insertion order, suitable for feeding
	// directly into topk.Select. Documents without an embedding are skipped.
	// If reading the store fails mid-stream the sequence ends early and the
	// error is stored in *errOut; callers must check it after the pass.
	Candidates(ctx context.Context, errOut *error) iter.Seq2[Document, Embedding]

	// Remove deletes the document with the given ID.
	Remove(ctx context.Context, id string) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
}
