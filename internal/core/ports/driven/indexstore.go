package driven

import (
	"context"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// IndexStore persists the content of one search index.
// The engine keeps the working index in memory and hands committed
// changes to the store.
type IndexStore interface {
	// Exists reports whether the store already holds an index.
	Exists(ctx context.Context) (bool, error)

	// Load reads the whole index. Returns domain.ErrDatabaseNotFound
	// when the store holds no index.
	Load(ctx context.Context) (*domain.Snapshot, error)

	// Apply atomically persists a change set.
	Apply(ctx context.Context, changes domain.ChangeSet) error

	// Reset discards any stored index and starts an empty one with the given UUID.
	Reset(ctx context.Context, uuid string) error

	// Path returns a human-readable location of the store.
	Path() string

	// Close releases resources.
	Close() error
}

// ChangeWatcher notifies when the persisted index changes outside this handle.
type ChangeWatcher interface {
	// Watch calls onChange after every detected change until ctx is cancelled
	// or the watcher is closed.
	Watch(ctx context.Context, onChange func()) error

	// Close stops watching.
	Close() error
}
