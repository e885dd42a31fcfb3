package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/poppart-mac/smartcomponents/search"
)

// Embedder turns texts into embedding vectors.
type Embedder interface {
	// Embed returns one embedding per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the width of the vectors this embedder produces.
	Dimension() int

	// ModelName identifies the underlying model.
	ModelName() string
}

// Client calls an OpenAI-compatible /embeddings endpoint.
type Client struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	client    *http.Client
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewOpenAI returns a Client against api.openai.com, reading the key from the
// named environment variable.
func NewOpenAI(apiKeyEnv, model string) (*Client, error) {
	return NewOpenAICompatible(apiKeyEnv, model, "https://api.openai.com/v1")
}

// NewOllama returns a Client against a local Ollama server, which speaks the
// OpenAI embeddings protocol without requiring a key.
func NewOllama(model, baseURL string) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	dimension := 768
	switch model {
	case "nomic-embed-text":
		dimension = 768
	case "mxbai-embed-large":
		dimension = 1024
	case "all-minilm":
		dimension = 384
	}
	return &Client{
		apiKey:    "ollama",
		model:     model,
		baseURL:   baseURL,
		dimension: dimension,
		client:    &http.Client{Timeout: 120 * time.Second},
	}, nil
}

// NewOpenAICompatible returns a Client against any OpenAI-compatible
// embeddings endpoint.
func NewOpenAICompatible(apiKeyEnv, model, baseURL string) (*Client, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("embed: API key not found in environment variable %s", apiKeyEnv)
	}
	dimension := 1536
	switch model {
	case "text-embedding-3-small":
		dimension = 1536
	case "text-embedding-3-large":
		dimension = 3072
	case "text-embedding-ada-002":
		dimension = 1536
	}
	return &Client{
		apiKey:    apiKey,
		model:     model,
		baseURL:   baseURL,
		dimension: dimension,
		client:    &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// newTestClient is the seam http-level tests use to point a Client at a
// httptest server.
func newTestClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{apiKey: "test", model: "test-model", baseURL: baseURL, dimension: 4, client: hc}
}

// Embed embeds texts in batches of up to 100, preserving input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	const maxBatch = 100
	var all [][]float32
	for i := 0; i < len(texts); i += maxBatch {
		end := i + maxBatch
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
	return all, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	jsonData, err := json.Marshal(embeddingRequest{Input: texts, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("embed: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("embed: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embed: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed: API returned status %d: %s", resp.StatusCode, string(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return nil, fmt.Errorf("embed: failed to parse response (body: %s): %w", preview, err)
	}
	if embResp.Error != nil {
		return nil, fmt.Errorf("embed: API error: %s", embResp.Error.Message)
	}

	out := make([][]float32, len(texts))
	for _, data := range embResp.Data {
		if data.Index < len(out) {
			out[data.Index] = data.Embedding
		}
	}
	return out, nil
}

// Dimension returns the embedding width for the configured model.
func (c *Client) Dimension() int { return c.dimension }

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string { return c.model }

// QueryFunc adapts an Embedder into the single-text form used by search.
func QueryFunc(e Embedder) search.EmbedFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vecs) != 1 || len(vecs[0]) == 0 {
			return nil, fmt.Errorf("embed: embedder returned %d vectors for one input", len(vecs))
		}
		return vecs[0], nil
	}
}

// Static is a deterministic offline embedder: each text maps character runes
// into the vector, making it useful for tests and smoke runs without a
// network dependency.
type Static struct {
	dimension int
}

// NewStatic returns a Static embedder producing vectors of the given width.
func NewStatic(dimension int) *Static {
	if dimension <= 0 {
		dimension = 64
	}
	return &Static{dimension: dimension}
}

// Embed maps each text deterministically into a vector.
func (e *Static) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.dimension)
		for j, r := range text {
			vec[j%e.dimension] += float32(r) / 1000.0
		}
		out[i] = vec
	}
	return out, nil
}

// Dimension returns the configured vector width.
func (e *Static) Dimension() int { return e.dimension }

// ModelName identifies the static embedder.
func (e *Static) ModelName() string { return "static" }

var (
	_ Embedder = (*Client)(nil)
	_ Embedder = (*Static)(nil)
)
