package cli

import (
	"bytes"
	"context"
	"errors"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

type mockSearchService struct {
	page       *domain.SearchPage
	terms      []domain.ExpandTerm
	err        error
	lastQuery  string
	lastOpts   domain.SearchOptions
	lastExpand domain.ExpandOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) (*domain.SearchPage, error) {
	m.lastQuery, m.lastOpts = query, opts
	if m.err != nil {
		return nil, m.err
	}
	if m.page == nil {
		return &domain.SearchPage{Query: query}, nil
	}
	return m.page, nil
}

func (m *mockSearchService) Expand(_ context.Context, query string, opts domain.ExpandOptions) ([]domain.ExpandTerm, error) {
	m.lastQuery, m.lastExpand = query, opts
	return m.terms, m.err
}

type mockIndexService struct {
	lastReq   domain.IndexRequest
	lastPaths []string
	deleted   domain.DocID
	stats     *domain.IndexStats
	err       error
}

func (m *mockIndexService) IndexText(_ context.Context, req domain.IndexRequest) (domain.DocID, error) {
	m.lastReq = req
	return 42, m.err
}

func (m *mockIndexService) IndexFiles(_ context.Context, paths []string) (int, error) {
	m.lastPaths = paths
	return len(paths), m.err
}

func (m *mockIndexService) Delete(_ context.Context, id domain.DocID) error {
	m.deleted = id
	return m.err
}

func (m *mockIndexService) Stats(_ context.Context) (*domain.IndexStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

type mockSettingsService struct {
	settings domain.Settings
	saved    *domain.Settings
	err      error
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &m.settings, nil
}

func (m *mockSettingsService) Save(s *domain.Settings) error {
	m.saved = s
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

var errServiceFailed = errors.New("service failed")

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	search   *mockSearchService
	index    *mockIndexService
	settings *mockSettingsService
}

// setupTestServices installs fresh mocks and resets command flags.
// The returned function restores the previous services.
func setupTestServices() (*testServices, func()) {
	oldSearch, oldIndex, oldSettings := searchService, indexService, settingsService
	mocks := &testServices{
		search:   &mockSearchService{},
		index:    &mockIndexService{stats: &domain.IndexStats{}},
		settings: &mockSettingsService{settings: domain.DefaultSettings()},
	}
	SetServices(mocks.search, mocks.index, mocks.settings)
	resetFlags()
	return mocks, func() {
		searchService, indexService, settingsService = oldSearch, oldIndex, oldSettings
	}
}

func resetFlags() {
	searchLimit, searchOffset, searchCheckAtLeast = 0, 0, 0
	searchExclude, searchRelevant, searchFacets = nil, nil, nil
	searchSnippets, searchJSON = false, false
	expandMax, expandFromTop, expandMinWeight = 10, 5, 0
	expandRelevant, expandExcludePrefixes = nil, nil
	expandIncludeQueryTerms, expandJSON = false, false
	indexUniqueID, indexData = "", ""
	// Parsed map flags merge into the existing map, so it must not be nil.
	indexFields, indexFilters, indexValues = map[string]string{}, map[string]string{}, map[string]string{}
	infoJSON = false
}

// run executes the root command with args and returns its output.
func run(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}
