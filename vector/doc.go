// Package vector defines the embedding type and vector-store surface used by
// this module. It includes:
//   - Embedding: float32 vector with cached magnitude and SIMD cosine similarity
//   - Document model and Store interface
//   - SQLiteStore: durable storage whose searches stream rows through topk
//   - Embedding encoding (BLOB) and checked distance functions
package vector
