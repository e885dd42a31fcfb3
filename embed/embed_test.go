package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientEmbed(t *testing.T) {
	var gotAuth string
	var gotReq embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// Respond out of order to verify index-based reassembly.
		resp := embeddingResponse{Data: []embeddingData{
			{Index: 1, Embedding: []float32{0, 1}},
			{Index: 0, Embedding: []float32{1, 0}},
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.Client())
	vecs, err := c.Embed(context.Background(), []string{"east", "north"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if gotAuth != "Bearer test" {
		t.Fatalf("Authorization = %q, want %q", gotAuth, "Bearer test")
	}
	if gotReq.Model != "test-model" || len(gotReq.Input) != 2 {
		t.Fatalf("unexpected request: %+v", gotReq)
	}
	if len(vecs) != 2 || vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Fatalf("Embed = %v, want order-preserved vectors", vecs)
	}
}

func TestClientEmbedAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{Error: &apiError{Message: "model overloaded"}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.Client())
	_, err := c.Embed(context.Background(), []string{"x"})
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("Embed err = %v, want API error message", err)
	}
}

func TestClientEmbedHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.Client())
	_, err := c.Embed(context.Background(), []string{"x"})
	if err == nil || !strings.Contains(err.Error(), "status 429") {
		t.Fatalf("Embed err = %v, want status error", err)
	}
}

func TestClientEmbedEmptyInput(t *testing.T) {
	c := newTestClient("http://unused.invalid", nil)
	vecs, err := c.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed(nil) err = %v", err)
	}
	if vecs != nil {
		t.Fatalf("Embed(nil) = %v, want nil", vecs)
	}
}

func TestStaticEmbedDeterministic(t *testing.T) {
	e := NewStatic(8)
	a, err := e.Embed(context.Background(), []string{"hello", "hello", "world"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(a) != 3 || len(a[0]) != 8 {
		t.Fatalf("unexpected shape: %d vectors", len(a))
	}
	for i := range a[0] {
		if a[0][i] != a[1][i] {
			t.Fatalf("same text produced different vectors: %v vs %v", a[0], a[1])
		}
	}
	same := true
	for i := range a[0] {
		if a[0][i] != a[2][i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("distinct texts produced identical vectors: %v", a[0])
	}
}

func TestQueryFunc(t *testing.T) {
	fn := QueryFunc(NewStatic(4))
	vec, err := fn(context.Background(), "hello")
	if err != nil {
		t.Fatalf("QueryFunc failed: %v", err)
	}
	if len(vec) != 4 {
		t.Fatalf("len(vec) = %d, want 4", len(vec))
	}
}
