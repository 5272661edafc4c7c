// Package engine is an embedded full-text search engine.
//
// It keeps its working index in memory, persists committed changes through a
// driven.IndexStore, ranks with BM25 and supports relevance feedback,
// query expansion, a query parser with field prefixes and value ranges,
// and single-method extension points (ExpandDecider, FieldProcessor,
// MatchDecider, MatchSpy, RangeProcessor, Stopper) that the matcher calls
// synchronously on the caller's goroutine.
//
// Sequences (match sets, expansion sets, term lists, position lists) are
// exposed as begin/end iterator pairs. Iterators are small values: copying
// one with plain assignment gives an independent cursor.
//
// A Database is safe for concurrent readers. A WritableDatabase serialises
// writers with its own lock but does not coordinate writers across processes.
package engine
