package vector

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/poppart-mac/smartcomponents/topk"
)

// SQLiteStore is a Store backed by a SQLite database. Documents live in the
// docs table; similarity search decodes embeddings row by row and streams
// them through the topk selector, so a query touches O(k) memory regardless
// of table size.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed Store. It ensures the base docs
// schema exists in the provided database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("vector: db is nil")
	}
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// AddDocuments inserts documents into the docs table. Document.ID must be
// non-empty; embeddings are encoded into BLOBs. Re-adding an existing ID
// replaces the document and, because the replacement gets a fresh rowid,
// moves it to the end of the scan order.
func (s *SQLiteStore) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO docs(id, content, meta, embedding) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return nil, fmt.Errorf("vector: Document.ID must be set in AddDocuments")
		}
		emb, err := EncodeEmbedding(d.Embedding)
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, d.ID, d.Content, d.Metadata, emb); err != nil {
			return nil, err
		}
		ids = append(ids, d.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Candidates streams stored documents in insertion (rowid) order. Rows with
// an empty embedding are skipped; a scan or decode failure ends the stream
// and is reported via *errOut.
func (s *SQLiteStore) Candidates(ctx context.Context, errOut *error) iter.Seq2[Document, Embedding] {
	if ctx == nil {
		ctx = context.Background()
	}
	return func(yield func(Document, Embedding) bool) {
		rows, err := s.db.QueryContext(ctx, `SELECT id, content, meta, embedding FROM docs ORDER BY rowid`)
		if err != nil {
			*errOut = err
			return
		}
		defer rows.Close()
		for rows.Next() {
			var d Document
			var blob []byte
			if err := rows.Scan(&d.ID, &d.Content, &d.Metadata, &blob); err != nil {
				*errOut = err
				return
			}
			vec, err := DecodeEmbedding(blob)
			if err != nil {
				*errOut = fmt.Errorf("vector: document %s: %w", d.ID, err)
				return
			}
			if len(vec) == 0 {
				continue
			}
			d.Embedding = vec
			if !yield(d, NewEmbedding(vec)) {
				return
			}
		}
		*errOut = rows.Err()
	}
}

// SimilaritySearch returns up to k documents ordered from most to least
// similar to the query embedding.
func (s *SQLiteStore) SimilaritySearch(ctx context.Context, queryEmbedding []float32, k int) ([]Document, error) {
	matches, err := s.SimilaritySearchWithScore(ctx, queryEmbedding, k, topk.NoMinSimilarity)
	if err != nil {
		return nil, err
	}
	out := make([]Document, len(matches))
	for i, m := range matches {
		out[i] = m.Document
	}
	return out, nil
}

// SimilaritySearchWithScore performs a single streaming pass over the docs
// table and keeps the k best matches whose similarity is at least minScore.
// Stored embeddings must share the query's dimension.
func (s *SQLiteStore) SimilaritySearchWithScore(ctx context.Context, queryEmbedding []float32, k int, minScore float32) ([]Match, error) {
	query := NewEmbedding(queryEmbedding)
	var iterErr error
	seq := func(yield func(Document, Embedding) bool) {
		for d, emb := range s.Candidates(ctx, &iterErr) {
			if emb.Dimension() != query.Dimension() {
				iterErr = fmt.Errorf("vector: document %s embedding dim %d != query dim %d", d.ID, emb.Dimension(), query.Dimension())
				return
			}
			if !yield(d, emb) {
				return
			}
		}
	}

	scored, err := topk.Select(query, iter.Seq2[Document, Embedding](seq), k, minScore)
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	out := make([]Match, len(scored))
	for i, m := range scored {
		out[i] = Match{Document: m.Item, Score: m.Similarity}
	}
	return out, nil
}

// Remove deletes a document by ID from the docs table.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("vector: Remove called with empty id")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM docs WHERE id = ?`, id)
	return err
}

// Count returns the number of documents in the docs table.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM docs`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Ensure SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)
