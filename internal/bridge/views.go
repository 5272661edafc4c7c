package bridge

import (
	"fmt"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/engine"
)

// Handles are never converted or copied implicitly. These are the only
// ways to narrow or duplicate one.

// WritableAsReadOnly returns a read-only view sharing w's state. The view
// sees w's later changes and fails once w is closed.
func WritableAsReadOnly(w *engine.WritableDatabase) (*engine.Database, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: nil database", domain.ErrInvalidInput)
	}
	if w.IsClosed() {
		return nil, domain.ErrDatabaseClosed
	}
	return w.ReadOnly(), nil
}

// CopyDatabase returns an independent in-memory snapshot of db.
func CopyDatabase(db *engine.Database) (*engine.WritableDatabase, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database", domain.ErrInvalidInput)
	}
	c, err := db.Copy()
	if err != nil {
		return nil, fmt.Errorf("copy database: %w", err)
	}
	log.Debug("copied database %s", db.UUID())
	return c, nil
}

// CopyDocument returns a deep copy of doc detached from any database.
func CopyDocument(doc *engine.Document) *engine.Document {
	if doc == nil {
		return nil
	}
	return doc.Clone()
}

// CopyQuery returns a deep copy of q.
func CopyQuery(q *engine.Query) *engine.Query {
	return q.Clone()
}
