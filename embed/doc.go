// Package embed provides embedding clients: an OpenAI-compatible HTTP client
// (OpenAI, Ollama, or any endpoint speaking the same protocol) and a
// deterministic offline embedder for tests. QueryFunc adapts either into the
// single-text function the search package consumes.
package embed
