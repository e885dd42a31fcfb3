// Package topk implements bounded top-K similarity selection over a lazy
// candidate stream. It consumes each candidate exactly once, keeps at most K
// best-so-far results in a small heap, and returns them ordered from most to
// least similar. Ties on similarity are broken deterministically: the
// later-arriving candidate ranks higher.
//
// The selector is generic over both the item payload and the embedding
// representation; any type exposing Similarity(other) float32 can serve as
// the embedding. Candidates are modeled as iter.Seq2 so arbitrarily large
// (or unbounded) sources can be scanned in O(K) memory.
package topk
