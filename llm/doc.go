// Package llm talks to language model servers for generation and
// embeddings.
//
// Provider wire formats live in dialects (see the ollama and openai
// subpackages) registered by import side effect:
//
//	import _ "github.com/kbukum/ragflow/llm/ollama"
//
//	adapter, err := llm.New(llm.Config{Dialect: "ollama", BaseURL: "http://localhost:11434"})
//	answer, err := adapter.Generate(ctx, prompt, "llama3", 0)
//
// Adapter satisfies dag.Generator and the retrieval embedder.
package llm
