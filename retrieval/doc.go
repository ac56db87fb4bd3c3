// Package retrieval answers retrieval nodes from stored document chunks.
//
// A Store holds documents split into embedded chunks, grouped by collection.
// Retriever embeds the query text with an Embedder and asks the Store for the
// nearest chunks, which makes it a dag.Retriever:
//
//	store, _ := retrieval.NewPGStore(ctx, cfg, log)
//	r := retrieval.NewRetriever(store, llmAdapter)
//	engine.Execute(ctx, g, query, dag.Collaborators{Retriever: r, Generator: llmAdapter})
//
// PGStore keeps vectors in PostgreSQL with the pgvector extension.
// MemoryStore ranks by cosine similarity in process and backs tests and the
// one-shot CLI.
package retrieval
