// Package bolt provides a file-backed vector.Store on top of bbolt. It suits
// embedded deployments that want durable storage without SQLite: documents
// are appended under sequence keys, replayed in insertion order, and searched
// with the same bounded streaming selection as the SQLite store.
package bolt
