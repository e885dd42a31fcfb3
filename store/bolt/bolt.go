package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"iter"

	"go.etcd.io/bbolt"

	"github.com/poppart-mac/smartcomponents/topk"
	"github.com/poppart-mac/smartcomponents/vector"
)

var (
	bucketDocs = []byte("docs")
	bucketIDs  = []byte("ids")
)

// Store is a vector.Store backed by a bbolt file. Documents are keyed by a
// monotonically increasing sequence number so that Candidates replays them in
// insertion order; a second bucket maps document IDs to their sequence keys.
type Store struct {
	db *bbolt.DB
}

type docRecord struct {
	ID        string    `json:"id"`
	Content   string    `json:"content,omitempty"`
	Metadata  string    `json:"meta,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Open opens (creating if needed) a bbolt-backed store at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("bolt: failed to open db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketIDs} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("bolt: failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying bbolt handle.
func (s *Store) DB() *bbolt.DB { return s.db }

// Close closes the underlying database file.
func (s *Store) Close() error { return s.db.Close() }

// AddDocuments appends documents to the store. Re-adding an existing ID
// replaces the document and moves it to the end of the scan order.
func (s *Store) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	err := s.db.Update(func(tx *bbolt.Tx) error {
		docsBucket := tx.Bucket(bucketDocs)
		idsBucket := tx.Bucket(bucketIDs)
		for _, d := range docs {
			if d.ID == "" {
				return fmt.Errorf("bolt: Document.ID must be set in AddDocuments")
			}
			if old := idsBucket.Get([]byte(d.ID)); old != nil {
				if err := docsBucket.Delete(old); err != nil {
					return err
				}
			}
			seq, err := docsBucket.NextSequence()
			if err != nil {
				return err
			}
			key := seqKey(seq)
			data, err := json.Marshal(docRecord{
				ID:        d.ID,
				Content:   d.Content,
				Metadata:  d.Metadata,
				Embedding: d.Embedding,
			})
			if err != nil {
				return err
			}
			if err := docsBucket.Put(key, data); err != nil {
				return err
			}
			if err := idsBucket.Put([]byte(d.ID), key); err != nil {
				return err
			}
			ids = append(ids, d.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Candidates streams stored documents in insertion order. Documents without
// an embedding are skipped; a read failure ends the stream and is reported
// via *errOut.
func (s *Store) Candidates(ctx context.Context, errOut *error) iter.Seq2[Document, vector.Embedding] {
	return func(yield func(Document, vector.Embedding) bool) {
		*errOut = s.db.View(func(tx *bbolt.Tx) error {
			if err := ctxErr(ctx); err != nil {
				return err
			}
			c := tx.Bucket(bucketDocs).Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				var rec docRecord
				if err := json.Unmarshal(v, &rec); err != nil {
					return fmt.Errorf("bolt: corrupt document record: %w", err)
				}
				if len(rec.Embedding) == 0 {
					continue
				}
				d := Document{
					ID:        rec.ID,
					Content:   rec.Content,
					Metadata:  rec.Metadata,
					Embedding: rec.Embedding,
				}
				if !yield(d, vector.NewEmbedding(rec.Embedding)) {
					return nil
				}
			}
			return nil
		})
	}
}

// SimilaritySearch returns up to k documents ordered from most to least
// similar to the query embedding.
func (s *Store) SimilaritySearch(ctx context.Context, queryEmbedding []float32, k int) ([]Document, error) {
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

// SimilaritySearchWithScore performs one streaming pass over the stored
// documents and keeps the k best matches whose similarity is at least
// minScore. Stored embeddings must share the query's dimension.
func (s *Store) SimilaritySearchWithScore(ctx context.Context, queryEmbedding []float32, k int, minScore float32) ([]vector.Match, error) {
	query := vector.NewEmbedding(queryEmbedding)
	var iterErr error
	seq := func(yield func(Document, vector.Embedding) bool) {
		for d, emb := range s.Candidates(ctx, &iterErr) {
			if emb.Dimension() != query.Dimension() {
				iterErr = fmt.Errorf("bolt: document %s embedding dim %d != query dim %d", d.ID, emb.Dimension(), query.Dimension())
				return
			}
			if !yield(d, emb) {
				return
			}
		}
	}

	scored, err := topk.Select(query, iter.Seq2[Document, vector.Embedding](seq), k, minScore)
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	out := make([]vector.Match, len(scored))
	for i, m := range scored {
		out[i] = vector.Match{Document: m.Item, Score: m.Similarity}
	}
	return out, nil
}

// Remove deletes the document with the given ID.
func (s *Store) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("bolt: Remove called with empty id")
	}
	if err := ctxErr(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		idsBucket := tx.Bucket(bucketIDs)
		key := idsBucket.Get([]byte(id))
		if key == nil {
			return nil
		}
		if err := tx.Bucket(bucketDocs).Delete(key); err != nil {
			return err
		}
		return idsBucket.Delete([]byte(id))
	})
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketIDs).Stats().KeyN
		return nil
	})
	return n, err
}

// Document aliases vector.Document so callers of this package read naturally.
type Document = vector.Document

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

var _ vector.Store = (*Store)(nil)
