// Package ollama implements the ai interfaces against the native Ollama API.
//
// Generation uses the streaming /api/generate endpoint: every JSON line the
// server emits becomes one fragment of the ai.Generator sequence. Embeddings
// use /api/embed with batched input.
package ollama
