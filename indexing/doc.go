// Package indexing builds and refreshes the stored concept catalogues.
//
// A Builder imports a JSONL catalogue, embeds every concept's
// "label. description" text in batches and stores the L2-normalized vectors
// under a named catalogue. A Reindexer re-embeds a catalogue that is already
// stored, for example after switching embedding models. Embedding calls are
// retried with exponential backoff and progress is written to an io.Writer.
package indexing
