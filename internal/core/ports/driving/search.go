package driving

import (
	"context"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search parses the query and returns one window of ranked results.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchPage, error)

	// Expand suggests terms related to the query's relevant documents.
	Expand(ctx context.Context, query string, opts domain.ExpandOptions) ([]domain.ExpandTerm, error)
}
