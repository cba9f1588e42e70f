// Package indexer embeds the pattern corpus into the vector index.
//
// Each pattern is rendered as a short prose document (corpus.Document),
// embedded in batches and upserted with a filterable payload
// (corpus.Payload). Batches run concurrently; a failed batch is recorded in
// the run statistics and does not abort the others.
//
// # Basic Usage
//
//	idx := indexer.New(store, emb)
//
//	stats, err := idx.IndexCorpus(ctx, patterns, &indexer.Config{
//	    Collection: "ui_patterns",
//	    BatchSize:  20,
//	})
//
//	fmt.Printf("Indexed %d patterns in %v\n", stats.PatternsIndexed, stats.Duration)
//
// Only one run may be active per Indexer; a concurrent call returns
// ErrIndexingInProgress immediately.
package indexer
