// Package sqlite provides a SQLite-based implementation of driven.IndexStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One store holds one index:
//
//   - documents: docid and data blob
//   - postings: per-document terms with wdf and delta-encoded positions
//   - doc_values: value slots
//   - metadata, spellings, synonyms: index-wide tables
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-engine/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. Apply and Reset run in a single
// transaction; SQLite runs in WAL mode so readers in other processes see
// either the old or the new index.
package sqlite
