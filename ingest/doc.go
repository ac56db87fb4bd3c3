// Package ingest turns uploaded PDF files into embedded chunks in a
// retrieval.Store.
//
// Upload extracts the text layer, splits it into overlapping paragraph
// chunks, embeds the chunks concurrently and saves the document in one
// call to the store.
package ingest
