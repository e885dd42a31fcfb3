package bruteforce

import (
	"reflect"
	"testing"
)

func buildIndex(t *testing.T, ids []string, vecs [][]float32) *Index {
	t.Helper()
	idx := &Index{}
	if err := idx.Build(ids, vecs); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return idx
}

func TestIndex_Query(t *testing.T) {
	idx := buildIndex(t,
		[]string{"east", "north", "north-east", "west"},
		[][]float32{{1, 0}, {0, 1}, {1, 1}, {-1, 0}},
	)

	ids, scores, err := idx.Query([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if want := []string{"east", "north-east"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("Query ids = %v, want %v", ids, want)
	}
	if len(scores) != 2 || scores[0] < scores[1] {
		t.Fatalf("Query scores not descending: %v", scores)
	}
}

func TestIndex_QueryUncapped(t *testing.T) {
	idx := buildIndex(t,
		[]string{"a", "b", "c"},
		[][]float32{{1, 0}, {0, 1}, {1, 1}},
	)
	ids, _, err := idx.Query([]float32{1, 0}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("uncapped Query returned %d ids, want 3", len(ids))
	}
}

func TestIndex_QueryWithMinScore(t *testing.T) {
	idx := buildIndex(t,
		[]string{"east", "north", "north-east"},
		[][]float32{{1, 0}, {0, 1}, {1, 1}},
	)
	ids, scores, err := idx.QueryWithMinScore([]float32{1, 0}, 10, 0.5)
	if err != nil {
		t.Fatalf("QueryWithMinScore failed: %v", err)
	}
	if want := []string{"east", "north-east"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i, s := range scores {
		if s < 0.5 {
			t.Fatalf("score[%d] = %v below floor 0.5", i, s)
		}
	}
}

func TestIndex_TieBreakLaterEntryWins(t *testing.T) {
	idx := buildIndex(t,
		[]string{"first", "second"},
		[][]float32{{2, 0}, {5, 0}},
	)
	ids, _, err := idx.Query([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if want := []string{"second", "first"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("tie order = %v, want %v", ids, want)
	}
}

func TestIndex_SkipsZeroVectors(t *testing.T) {
	idx := buildIndex(t,
		[]string{"zero", "a"},
		[][]float32{{0, 0}, {1, 0}},
	)
	ids, _, err := idx.Query([]float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if want := []string{"a"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}

func TestIndex_BuildErrors(t *testing.T) {
	idx := &Index{}
	if err := idx.Build([]string{"a"}, nil); err == nil {
		t.Fatalf("expected length mismatch error")
	}
	if err := idx.Build([]string{"a", "b"}, [][]float32{{1, 0}, {1, 0, 0}}); err == nil {
		t.Fatalf("expected inconsistent dims error")
	}
}

func TestIndex_MarshalRoundTrip(t *testing.T) {
	orig := buildIndex(t,
		[]string{"east", "north", "north-east"},
		[][]float32{{1, 0}, {0, 1}, {1, 1}},
	)
	data, err := orig.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	restored := &Index{}
	if err := restored.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	wantIDs, wantScores, err := orig.Query([]float32{1, 1}, 3)
	if err != nil {
		t.Fatalf("Query on original failed: %v", err)
	}
	gotIDs, gotScores, err := restored.Query([]float32{1, 1}, 3)
	if err != nil {
		t.Fatalf("Query on restored failed: %v", err)
	}
	if !reflect.DeepEqual(gotIDs, wantIDs) || !reflect.DeepEqual(gotScores, wantScores) {
		t.Fatalf("restored Query = %v %v, want %v %v", gotIDs, gotScores, wantIDs, wantScores)
	}
}

func TestIndex_MarshalEmpty(t *testing.T) {
	idx := &Index{}
	data, err := idx.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	restored := &Index{}
	if err := restored.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	ids, _, err := restored.Query([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("empty index returned %d ids, want 0", len(ids))
	}
}

func TestIndex_UnmarshalTruncated(t *testing.T) {
	idx := &Index{}
	if err := idx.UnmarshalBinary([]byte{1, 2}); err == nil {
		t.Fatalf("expected truncation error")
	}
}
