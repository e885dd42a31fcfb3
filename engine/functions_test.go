package engine

import (
	"math"
	"testing"

	"github.com/poppart-mac/smartcomponents/vector"
)

func TestRegisterVectorFunctionsAndUse(t *testing.T) {
	// Register globally before first connection so functions are available.
	if err := RegisterVectorFunctions(nil); err != nil {
		t.Fatalf("RegisterVectorFunctions failed: %v", err)
	}
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	blob := func(v []float32) []byte {
		b, err := vector.EncodeEmbedding(v)
		if err != nil {
			t.Fatalf("EncodeEmbedding(%v) failed: %v", v, err)
		}
		return b
	}

	// vec_cosine orthogonal -> 0
	var sim float64
	if err := db.QueryRow(`SELECT vec_cosine(?, ?)`, blob([]float32{1, 0}), blob([]float32{0, 1})).Scan(&sim); err != nil {
		t.Fatalf("vec_cosine orthogonal query failed: %v", err)
	}
	if sim != 0 {
		t.Fatalf("vec_cosine orthogonal = %v, want 0", sim)
	}

	// vec_cosine identical -> 1
	if err := db.QueryRow(`SELECT vec_cosine(?, ?)`, blob([]float32{1, 0}), blob([]float32{1, 0})).Scan(&sim); err != nil {
		t.Fatalf("vec_cosine identical query failed: %v", err)
	}
	if math.Abs(sim-1) > 1e-9 {
		t.Fatalf("vec_cosine identical = %v, want 1", sim)
	}

	// vec_l2 between (0,0) and (3,4) -> 5
	var dist float64
	if err := db.QueryRow(`SELECT vec_l2(?, ?)`, blob([]float32{0, 0}), blob([]float32{3, 4})).Scan(&dist); err != nil {
		t.Fatalf("vec_l2 query failed: %v", err)
	}
	if math.Abs(dist-5) > 1e-9 {
		t.Fatalf("vec_l2 = %v, want 5", dist)
	}
}
