package bruteforce

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"iter"
	"math"

	"github.com/poppart-mac/smartcomponents/index"
	"github.com/poppart-mac/smartcomponents/topk"
	"github.com/poppart-mac/smartcomponents/vector"
)

var _ index.Index = (*Index)(nil)

// Index is an exact vector index: queries scan every stored embedding once
// and keep the k best via the topk selector. Magnitudes are precomputed at
// build time so each query costs one cosine evaluation per entry.
type Index struct {
	ids  []string
	embs []vector.Embedding
	dim  int
}

// Build loads ids and vectors, validates dimensions, and precomputes
// magnitudes. A previous build is replaced wholesale.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("bruteforce: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		i.ids, i.embs, i.dim = nil, nil, 0
		return nil
	}
	dim := len(vectors[0])
	embs := make([]vector.Embedding, len(vectors))
	for j := range vectors {
		if len(vectors[j]) != dim {
			return fmt.Errorf("bruteforce: inconsistent vector dims %d vs %d", len(vectors[j]), dim)
		}
		embs[j] = vector.NewEmbedding(vectors[j])
	}
	i.ids = append([]string(nil), ids...)
	i.embs = embs
	i.dim = dim
	return nil
}

// Query returns up to k entries by cosine similarity, most similar first.
// Entries with equal similarity are ordered by descending build position.
// k <= 0 returns all entries in similarity order.
func (i *Index) Query(query []float32, k int) ([]string, []float32, error) {
	return i.QueryWithMinScore(query, k, topk.NoMinSimilarity)
}

// QueryWithMinScore is Query restricted to entries scoring at least minScore.
func (i *Index) QueryWithMinScore(query []float32, k int, minScore float32) ([]string, []float32, error) {
	if i.dim == 0 || len(i.embs) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("bruteforce: query dim %d != index dim %d", len(query), i.dim)
	}
	q := vector.NewEmbedding(query)
	if q.Magnitude() == 0 {
		return nil, nil, nil
	}
	if k <= 0 {
		k = math.MaxInt
	}

	var entries iter.Seq2[int, vector.Embedding] = func(yield func(int, vector.Embedding) bool) {
		for j, emb := range i.embs {
			// Zero vectors carry no direction and never match.
			if emb.Magnitude() == 0 {
				continue
			}
			if !yield(j, emb) {
				return
			}
		}
	}
	scored, err := topk.Select(q, entries, k, minScore)
	if err != nil {
		return nil, nil, err
	}

	outIDs := make([]string, len(scored))
	outScores := make([]float32, len(scored))
	for n, s := range scored {
		outIDs[n] = i.ids[s.Item]
		outScores[n] = s.Similarity
	}
	return outIDs, outScores, nil
}

// MarshalBinary stores: dim(uint32), n(uint32), then for each entry:
// idLen(uint32), id bytes, vec(float32[dim]), all little-endian.
func (i *Index) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeU32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}
	if i.dim == 0 || len(i.embs) == 0 {
		writeU32(0)
		writeU32(0)
		return buf.Bytes(), nil
	}
	size := 8
	for _, id := range i.ids {
		size += 4 + len(id) + 4*i.dim
	}
	buf.Grow(size)
	writeU32(uint32(i.dim))
	writeU32(uint32(len(i.ids)))
	for n, id := range i.ids {
		writeU32(uint32(len(id)))
		buf.WriteString(id)
		for _, v := range i.embs[n].Values() {
			writeU32(math.Float32bits(v))
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores the index from bytes produced by MarshalBinary.
func (i *Index) UnmarshalBinary(data []byte) error {
	off := 0
	readU32 := func() (uint32, error) {
		if off+4 > len(data) {
			return 0, fmt.Errorf("bruteforce: truncated data at offset %d", off)
		}
		v := binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
		return v, nil
	}

	dimU, err := readU32()
	if err != nil {
		return err
	}
	nU, err := readU32()
	if err != nil {
		return err
	}
	dim, n := int(dimU), int(nU)
	ids := make([]string, n)
	vecs := make([][]float32, n)
	for idx := 0; idx < n; idx++ {
		idLen, err := readU32()
		if err != nil {
			return err
		}
		if off+int(idLen) > len(data) {
			return fmt.Errorf("bruteforce: truncated id at offset %d", off)
		}
		ids[idx] = string(data[off : off+int(idLen)])
		off += int(idLen)
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			bits, err := readU32()
			if err != nil {
				return err
			}
			vec[j] = math.Float32frombits(bits)
		}
		vecs[idx] = vec
	}
	return i.Build(ids, vecs)
}
