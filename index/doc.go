// Package index defines a minimal abstraction for vector indexes that can be
// built from embeddings, queried for the top-k most similar entries, and
// serialized for persistence. The only implementation in this module is the
// exact brute-force index; approximate structures are deliberately out of
// scope.
package index
