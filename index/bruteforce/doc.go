// Package bruteforce provides an exact vector index that answers top-k
// queries by streaming all stored embeddings through the bounded selector.
// It supports a compact binary format so an index can be persisted as a
// single BLOB.
package bruteforce
