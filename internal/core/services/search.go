package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-engine/internal/bridge"
	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-engine/internal/engine"
	"github.com/custodia-labs/sercha-engine/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Snippet rendering.
const (
	snippetLength = 200
	highlightOpen = "**"
	highlightEnd  = "**"
	omitMarker    = "..."
)

// defaultFromTop is how many top matches Expand treats as relevant when
// no relevant ids are given.
const defaultFromTop = 5

// SearchService runs queries against a database through the bridge.
// Every call works in its own callback scope and copies results out
// before the scope and pages are released.
type SearchService struct {
	mu       sync.RWMutex
	db       *engine.Database
	analyzer *analyzer
	settings domain.SearchSettings
}

// NewSearchService creates a search service over db.
func NewSearchService(db *engine.Database, settings domain.SearchSettings) (*SearchService, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database", domain.ErrInvalidInput)
	}
	a, err := newAnalyzer(settings)
	if err != nil {
		return nil, err
	}
	return &SearchService{db: db, analyzer: a, settings: settings}, nil
}

// Watch reopens the database whenever watcher reports a change, until ctx
// is cancelled. Reopen failures are logged and the old state is kept.
func (s *SearchService) Watch(ctx context.Context, watcher driven.ChangeWatcher) error {
	return watcher.Watch(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		reloaded, err := s.db.Reopen(ctx)
		if err != nil {
			logger.Warn("Reopen after change failed: %v", err)
			return
		}
		if reloaded {
			logger.Debug("Reopened index after external change")
		}
	})
}

// Search parses query and returns one window of ranked results.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchPage, error) {
	logger.Section("Search Execution")
	if opts.Offset < 0 || opts.Limit < 0 || opts.CheckAtLeast < 0 {
		return nil, fmt.Errorf("%w: negative paging option", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scope := bridge.NewScope()
	defer scope.Close()

	q, err := s.parse(scope, query)
	if err != nil {
		return nil, err
	}
	searcher, err := bridge.NewSearcher(s.db)
	if err != nil {
		return nil, err
	}

	var filter *bridge.MatchDeciderTrampoline
	if len(opts.ExcludeIDs) > 0 {
		filter, err = scope.MatchDecider(excludeIDs(opts.ExcludeIDs))
		if err != nil {
			return nil, err
		}
	}

	facets := make([]*valueCounter, 0, len(opts.FacetSlots))
	for _, slot := range opts.FacetSlots {
		counter := newValueCounter(slot, s.analyzer)
		if _, err := scope.AddMatchSpy(searcher, counter); err != nil {
			return nil, err
		}
		facets = append(facets, counter)
	}

	limit := opts.Limit
	if limit == 0 {
		limit = s.settings.PageSize
	}
	checkAtLeast := opts.CheckAtLeast
	if checkAtLeast == 0 {
		checkAtLeast = s.settings.CheckAtLeast
	}

	page, err := searcher.Execute(ctx, q, opts.Offset, limit, checkAtLeast, feedbackSet(opts.RelevantIDs), filter)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	hits, err := s.collectHits(page, opts.Snippets)
	if err != nil {
		return nil, err
	}
	logger.Debug("Query %q: %d hits, ~%d matches", query, len(hits), page.MatchesEstimated())

	result := &domain.SearchPage{
		Query:            query,
		Description:      q.String(),
		Offset:           page.Offset(),
		Limit:            page.Window(),
		Hits:             hits,
		MatchesLower:     page.MatchesLowerBound(),
		MatchesEstimated: page.MatchesEstimated(),
		MatchesUpper:     page.MatchesUpperBound(),
		Exact:            page.Exact(),
	}
	for _, f := range facets {
		result.Facets = append(result.Facets, f.facet())
	}
	return result, nil
}

// Expand suggests terms from the query's relevant documents.
func (s *SearchService) Expand(ctx context.Context, query string, opts domain.ExpandOptions) ([]domain.ExpandTerm, error) {
	if opts.MaxTerms <= 0 {
		return nil, fmt.Errorf("%w: max terms must be positive", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scope := bridge.NewScope()
	defer scope.Close()

	q, err := s.parse(scope, query)
	if err != nil {
		return nil, err
	}
	searcher, err := bridge.NewSearcher(s.db)
	if err != nil {
		return nil, err
	}

	feedback := feedbackSet(opts.RelevantIDs)
	if feedback == nil {
		fromTop := opts.FromTop
		if fromTop <= 0 {
			fromTop = defaultFromTop
		}
		page, err := searcher.Execute(ctx, q, 0, fromTop, 0, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", query, err)
		}
		ids, err := page.DocIDs()
		if err != nil {
			return nil, err
		}
		feedback = engine.NewRSet(ids...)
	} else {
		searcher.SetQuery(q)
	}

	var filter *bridge.ExpandDeciderTrampoline
	if len(opts.ExcludePrefixes) > 0 {
		filter, err = scope.ExpandDecider(excludePrefixes(opts.ExcludePrefixes))
		if err != nil {
			return nil, err
		}
	}

	var flags engine.ExpandFlags
	if opts.IncludeQueryTerms {
		flags |= engine.ExpandIncludeQueryTerms
	}

	page, err := searcher.Expand(ctx, feedback, opts.MaxTerms, flags, filter, opts.MinWeight)
	if err != nil {
		return nil, fmt.Errorf("expand %q: %w", query, err)
	}
	return page.Terms()
}

func (s *SearchService) parse(scope *bridge.Scope, query string) (*engine.Query, error) {
	qp, err := s.analyzer.parser(scope, s.db)
	if err != nil {
		return nil, err
	}
	q, err := qp.ParseQuery(query, parseFlags, "")
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", query, err)
	}
	return q, nil
}

// collectHits copies the page out of its cursors.
func (s *SearchService) collectHits(page *bridge.ResultPage, snippets bool) ([]domain.SearchHit, error) {
	hits := make([]domain.SearchHit, 0, page.Size())
	for it, end := page.Begin(), page.End(); !it.Equal(end); {
		id, err := it.Value()
		if err != nil {
			return nil, err
		}
		hit := domain.SearchHit{DocID: id}
		if hit.Weight, err = it.Weight(); err != nil {
			return nil, err
		}
		if hit.Rank, err = it.Rank(); err != nil {
			return nil, err
		}
		if hit.Percent, err = it.Percent(); err != nil {
			return nil, err
		}
		doc, err := it.Document()
		if err != nil {
			return nil, err
		}
		hit.Data = string(doc.Data())
		if snippets {
			hit.Snippet, err = page.Snippet(hit.Data, snippetLength, s.analyzer.stem, highlightOpen, highlightEnd, omitMarker)
			if err != nil {
				return nil, err
			}
		}
		hits = append(hits, hit)
		if err := it.Next(); err != nil {
			return nil, err
		}
	}
	return hits, nil
}

func feedbackSet(ids []domain.DocID) *engine.RSet {
	if len(ids) == 0 {
		return nil
	}
	return engine.NewRSet(ids...)
}

func excludeIDs(ids []domain.DocID) bridge.MatchDecider {
	return bridge.MatchDeciderFunc(func(doc bridge.DocumentView) (bool, error) {
		return !slices.Contains(ids, doc.ID()), nil
	})
}

func excludePrefixes(prefixes []string) bridge.ExpandDecider {
	return bridge.ExpandDeciderFunc(func(term string) (bool, error) {
		for _, p := range prefixes {
			if strings.HasPrefix(term, p) {
				return false, nil
			}
		}
		return true, nil
	})
}

// valueCounter is a match spy tallying the values of one slot.
type valueCounter struct {
	slot     domain.Slot
	analyzer *analyzer
	counts   map[string]int
	total    int
}

func newValueCounter(slot domain.Slot, a *analyzer) *valueCounter {
	return &valueCounter{slot: slot, analyzer: a, counts: make(map[string]int)}
}

// Name identifies the spy in logs.
func (c *valueCounter) Name() string {
	return fmt.Sprintf("values:%d", c.slot)
}

// Observe counts the slot value of doc. Documents without one are skipped.
func (c *valueCounter) Observe(doc bridge.DocumentView, _ float64) error {
	v := doc.Value(c.slot)
	if len(v) == 0 {
		return nil
	}
	c.counts[c.analyzer.decodeValue(c.slot, v)]++
	c.total++
	return nil
}

func (c *valueCounter) facet() domain.Facet {
	return domain.Facet{Slot: c.slot, Counts: c.counts, Total: c.total}
}
