package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/engine"
	"github.com/custodia-labs/sercha-engine/internal/metrics"
)

// Searcher is the query execution façade over one database.
type Searcher struct {
	mu  sync.Mutex
	db  *engine.Database
	enq *engine.Enquire
}

// NewSearcher returns a searcher over db.
func NewSearcher(db *engine.Database) (*Searcher, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database", domain.ErrInvalidInput)
	}
	if db.IsClosed() {
		return nil, domain.ErrDatabaseClosed
	}
	return &Searcher{db: db, enq: engine.NewEnquire(db)}, nil
}

// Database returns the database being searched.
func (s *Searcher) Database() *engine.Database {
	return s.db
}

// SetWeighting replaces the BM25 constants for later executions.
func (s *Searcher) SetWeighting(p engine.BM25) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enq.SetWeighting(p)
}

// SetQuery sets the query Expand excludes terms of. Execute sets it too.
func (s *Searcher) SetQuery(q *engine.Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enq.SetQuery(q)
}

// ClearMatchSpies detaches every spy added with Scope.AddMatchSpy.
func (s *Searcher) ClearMatchSpies() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enq.ClearMatchSpies()
}

// Execute runs q and returns the window of window matches starting at rank
// first. At least atLeast candidates are confirmed before the match count
// may become an estimate. feedback and filter are optional.
func (s *Searcher) Execute(ctx context.Context, q *engine.Query, first, window, atLeast int,
	feedback *engine.RSet, filter *MatchDeciderTrampoline) (page *ResultPage, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("%w: nil query", domain.ErrInvalidInput)
	}
	start := time.Now()
	defer func() {
		metrics.QueriesTotal.WithLabelValues(metrics.Status(err)).Inc()
		metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()

	var decider engine.MatchDecider
	if filter != nil {
		decider = filter.Upcast()
	}

	s.mu.Lock()
	s.enq.SetQuery(q)
	mset, err := s.enq.GetMSet(first, window, atLeast, feedback, decider)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	log.Debug("execute %s: first=%d window=%d atleast=%d -> %d of ~%d",
		q, first, window, atLeast, mset.Size(), mset.MatchesEstimated())
	return &ResultPage{
		mset:    mset,
		window:  window,
		atLeast: atLeast,
		lease:   newLease("mset", s.db, mset.Revision()),
	}, nil
}

// Expand suggests up to maxItems terms from the documents in feedback,
// excluding terms of the last executed query unless flags say otherwise.
// Terms weighted at or below minWeight are dropped. filter is optional.
func (s *Searcher) Expand(ctx context.Context, feedback *engine.RSet, maxItems int,
	flags engine.ExpandFlags, filter *ExpandDeciderTrampoline, minWeight float64) (page *ExpansionPage, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		metrics.ExpansionsTotal.WithLabelValues(metrics.Status(err)).Inc()
	}()

	var decider engine.ExpandDecider
	if filter != nil {
		decider = filter.Upcast()
	}

	s.mu.Lock()
	eset, err := s.enq.GetESet(maxItems, feedback, flags, decider, minWeight)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}
	log.Debug("expand: %d of %d candidate terms", eset.Size(), eset.Bound())
	return &ExpansionPage{
		eset:  eset,
		lease: newLease("eset", s.db, eset.Revision()),
	}, nil
}

// ResultPage is one window of ranked matches. It is tied to the database
// revision it was computed at and goes stale when the database changes.
type ResultPage struct {
	mset    *engine.MSet
	window  int
	atLeast int
	lease   *lease
}

// Offset returns the rank of the first match in the page.
func (p *ResultPage) Offset() int { return p.mset.FirstItem() }

// Window returns the requested page size.
func (p *ResultPage) Window() int { return p.window }

// AtLeast returns the requested check-at-least count.
func (p *ResultPage) AtLeast() int { return p.atLeast }

// Size returns the number of matches in the page.
func (p *ResultPage) Size() int { return p.mset.Size() }

// MatchesLowerBound is the least number of documents that can match.
func (p *ResultPage) MatchesLowerBound() int { return p.mset.MatchesLowerBound() }

// MatchesEstimated is the best estimate of the number of matches.
func (p *ResultPage) MatchesEstimated() int { return p.mset.MatchesEstimated() }

// MatchesUpperBound is the greatest number of documents that can match.
func (p *ResultPage) MatchesUpperBound() int { return p.mset.MatchesUpperBound() }

// Exact reports whether every candidate was confirmed, making the three
// bounds equal.
func (p *ResultPage) Exact() bool { return p.mset.Exact() }

// Stale reports whether the page can no longer be dereferenced.
func (p *ResultPage) Stale() error { return p.lease.check() }

// Begin returns a cursor at the first match.
func (p *ResultPage) Begin() MatchCursor {
	return p.cursor(p.mset.Begin())
}

// End returns the end sentinel.
func (p *ResultPage) End() MatchCursor {
	return p.cursor(p.mset.End())
}

func (p *ResultPage) cursor(it engine.MSetIterator) MatchCursor {
	return MatchCursor{c: cursor[engine.MSetIterator, domain.DocID]{it: it, ops: matchOps, lease: p.lease}}
}

// DocIDs returns the ids of the page in rank order.
func (p *ResultPage) DocIDs() ([]domain.DocID, error) {
	b, e := p.Begin(), p.End()
	return collect(b.c, e.c)
}

// TermFreq returns the number of documents indexing a query term at match time.
func (p *ResultPage) TermFreq(term string) int { return p.mset.TermFreq(term) }

// Snippet highlights the query terms in the best part of text.
func (p *ResultPage) Snippet(text string, length int, stem *engine.Stem, hiStart, hiEnd, omit string) (string, error) {
	if err := p.lease.check(); err != nil {
		return "", err
	}
	return p.mset.Snippet(text, length, stem, hiStart, hiEnd, omit), nil
}

// ExpansionPage is a set of suggested expansion terms, best first.
type ExpansionPage struct {
	eset  *engine.ESet
	lease *lease
}

// Size returns the number of suggested terms.
func (p *ExpansionPage) Size() int { return p.eset.Size() }

// Bound returns the number of candidate terms considered.
func (p *ExpansionPage) Bound() int { return p.eset.Bound() }

// Stale reports whether the page can no longer be dereferenced.
func (p *ExpansionPage) Stale() error { return p.lease.check() }

// Begin returns a cursor at the best term.
func (p *ExpansionPage) Begin() ExpansionCursor {
	return p.cursor(p.eset.Begin())
}

// End returns the end sentinel.
func (p *ExpansionPage) End() ExpansionCursor {
	return p.cursor(p.eset.End())
}

func (p *ExpansionPage) cursor(it engine.ESetIterator) ExpansionCursor {
	return ExpansionCursor{c: cursor[engine.ESetIterator, string]{it: it, ops: expansionOps, lease: p.lease}}
}

// Terms copies the suggested terms and weights out of the page.
func (p *ExpansionPage) Terms() ([]domain.ExpandTerm, error) {
	var out []domain.ExpandTerm
	for it, end := p.Begin(), p.End(); !it.Equal(end); {
		term, err := it.Value()
		if err != nil {
			return nil, err
		}
		w, err := it.Weight()
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ExpandTerm{Term: term, Weight: w})
		if err := it.Next(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
