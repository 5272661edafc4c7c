package driving

import (
	"context"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// IndexService adds and removes documents.
type IndexService interface {
	// IndexText indexes a single document and commits it.
	IndexText(ctx context.Context, req domain.IndexRequest) (domain.DocID, error)

	// IndexFiles indexes each file as one document, keyed by its path.
	// Returns the number of files indexed.
	IndexFiles(ctx context.Context, paths []string) (int, error)

	// Delete removes a document by id.
	Delete(ctx context.Context, id domain.DocID) error

	// Stats summarises the index.
	Stats(ctx context.Context) (*domain.IndexStats, error)
}
