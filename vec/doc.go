// Package vec implements the "vec" SQLite virtual table for similarity
// search over embedded documents.
//
// A vec table exposes (dataset_id, <col>, match_score) and is backed by a
// per-table shadow table holding ids, content, metadata, and encoded
// embeddings. MATCH queries stream the shadow rows through a single bounded
// selection pass and return them ordered most similar first; an optional
// match_score floor is pushed down into the scan.
package vec
