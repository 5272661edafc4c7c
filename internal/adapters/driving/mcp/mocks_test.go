package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	page       *domain.SearchPage
	terms      []domain.ExpandTerm
	err        error
	lastOpts   domain.SearchOptions
	lastExpand domain.ExpandOptions
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) (*domain.SearchPage, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.page == nil {
		return &domain.SearchPage{}, nil
	}
	return m.page, nil
}

func (m *mockSearchService) Expand(_ context.Context, _ string, opts domain.ExpandOptions) ([]domain.ExpandTerm, error) {
	m.lastExpand = opts
	return m.terms, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	stats *domain.IndexStats
	err   error
}

func (m *mockIndexService) IndexText(_ context.Context, _ domain.IndexRequest) (domain.DocID, error) {
	return 0, m.err
}

func (m *mockIndexService) IndexFiles(_ context.Context, _ []string) (int, error) {
	return 0, m.err
}

func (m *mockIndexService) Delete(_ context.Context, _ domain.DocID) error {
	return m.err
}

func (m *mockIndexService) Stats(_ context.Context) (*domain.IndexStats, error) {
	return m.stats, m.err
}
