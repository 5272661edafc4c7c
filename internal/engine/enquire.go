package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// ExpandFlags tune GetESet.
type ExpandFlags uint32

// Expansion flags.
const (
	// ExpandIncludeQueryTerms keeps terms that already occur in the query.
	ExpandIncludeQueryTerms ExpandFlags = 1
	// ExpandUseExactTermFreq is accepted for compatibility; term
	// frequencies are always exact.
	ExpandUseExactTermFreq ExpandFlags = 2
)

// Enquire runs queries against one database.
type Enquire struct {
	db     *Database
	query  *Query
	spies  []MatchSpy
	params BM25
}

// NewEnquire returns an Enquire over db.
func NewEnquire(db *Database) *Enquire {
	return &Enquire{db: db, params: DefaultBM25()}
}

// Database returns the database being searched.
func (e *Enquire) Database() *Database {
	return e.db
}

// SetQuery sets the query to run.
func (e *Enquire) SetQuery(q *Query) {
	e.query = q
}

// Query returns the current query, or nil.
func (e *Enquire) Query() *Query {
	return e.query
}

// SetWeighting replaces the BM25 constants.
func (e *Enquire) SetWeighting(p BM25) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.params = p
	return nil
}

// AddMatchSpy registers a spy for subsequent GetMSet calls.
func (e *Enquire) AddMatchSpy(spy MatchSpy) {
	e.spies = append(e.spies, spy)
}

// ClearMatchSpies removes every registered spy.
func (e *Enquire) ClearMatchSpies() {
	e.spies = nil
}

type candidate struct {
	id     domain.DocID
	weight float64
}

// rankOrder sorts by descending weight, ties by descending document id.
func rankOrder(c []candidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].weight != c[j].weight {
			return c[i].weight > c[j].weight
		}
		return c[i].id > c[j].id
	})
}

// GetMSet runs the query and returns ranked matches first..first+maxItems.
//
// The matcher checks candidates in rank order until at least
// max(first+maxItems, checkAtLeast) have been accepted. Without a decider
// every candidate is known and the match count is exact. With a decider,
// candidates left unchecked make the count an estimate bounded by
// MatchesLowerBound and MatchesUpperBound.
//
// The database lock is not held while the decider and spies run.
func (e *Enquire) GetMSet(first, maxItems, checkAtLeast int, rset *RSet, decider MatchDecider) (*MSet, error) {
	if first < 0 || maxItems < 0 || checkAtLeast < 0 {
		return nil, fmt.Errorf("%w: first=%d maxitems=%d checkatleast=%d",
			domain.ErrInvalidInput, first, maxItems, checkAtLeast)
	}
	if e.query == nil {
		return nil, fmt.Errorf("%w: no query set", domain.ErrInvalidQuery)
	}
	defer log.Timed("get_mset")()

	rs, unlock, err := e.db.reader()
	if err != nil {
		return nil, err
	}
	m := newMatcher(rs.ix, e.params, rset)
	matched, err := m.eval(e.query)
	if err != nil {
		unlock()
		return nil, err
	}
	cands := make([]candidate, 0, len(matched))
	for id, w := range matched {
		if !validWeight(w) {
			unlock()
			return nil, fmt.Errorf("%w: document %d weighted %v", domain.ErrInvalidWeight, id, w)
		}
		cands = append(cands, candidate{id, w})
	}
	terms := e.query.UniqueTerms()
	termFreqs := make(map[string]int, len(terms))
	for _, t := range terms {
		termFreqs[t] = rs.ix.termFreq(t)
	}
	rev := rs.rev
	unlock()

	rankOrder(cands)

	need := max(first+maxItems, checkAtLeast)
	ms := &MSet{
		db:        e.db,
		rev:       rev,
		first:     first,
		termFreqs: termFreqs,
		terms:     terms,
	}

	var accepted []candidate
	if decider == nil {
		accepted = cands
		checked := min(need, len(cands))
		for _, c := range cands[:checked] {
			if err := e.observe(c); err != nil {
				return nil, err
			}
		}
		ms.lower, ms.estimated, ms.upper = len(cands), len(cands), len(cands)
	} else {
		checked := 0
		for _, c := range cands {
			if len(accepted) >= need {
				break
			}
			checked++
			doc, err := e.db.Document(c.id)
			if errors.Is(err, domain.ErrDocNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			ok, err := decider.AcceptDocument(doc)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			accepted = append(accepted, c)
			if err := e.observeDoc(doc, c.weight); err != nil {
				return nil, err
			}
		}
		remaining := len(cands) - checked
		ms.lower = len(accepted)
		ms.upper = len(accepted) + remaining
		switch {
		case remaining == 0:
			ms.estimated = len(accepted)
		case checked == 0:
			ms.estimated = ms.upper
		default:
			ratio := float64(len(accepted)) / float64(checked)
			ms.estimated = len(accepted) + int(math.Round(float64(remaining)*ratio))
		}
	}

	for _, c := range accepted {
		ms.maxAttained = max(ms.maxAttained, c.weight)
	}
	if first < len(accepted) {
		end := min(first+maxItems, len(accepted))
		ms.items = make([]MSetItem, 0, end-first)
		for _, c := range accepted[first:end] {
			ms.items = append(ms.items, MSetItem{ID: c.id, Weight: c.weight})
		}
	}
	ids := make([]any, len(ms.items))
	for i, it := range ms.items {
		ids[i] = it.ID
	}
	ms.key = sequenceKey("mset", rs.id, rev, first, digest(ids...))
	log.Debug("mset %s: %d candidates, window %d..%d holds %d",
		e.query, len(cands), first, first+maxItems, len(ms.items))
	return ms, nil
}

func (e *Enquire) observe(c candidate) error {
	if len(e.spies) == 0 {
		return nil
	}
	doc, err := e.db.Document(c.id)
	if errors.Is(err, domain.ErrDocNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return e.observeDoc(doc, c.weight)
}

func (e *Enquire) observeDoc(doc *Document, weight float64) error {
	for _, spy := range e.spies {
		if err := spy.Observe(doc, weight); err != nil {
			return err
		}
	}
	return nil
}

type expandCandidate struct {
	term   string
	weight float64
}

// GetESet suggests up to maxItems terms from the documents in rset, best
// first. Terms weighted at or below minWeight are dropped before the
// decider sees them. An empty rset yields an empty set.
func (e *Enquire) GetESet(maxItems int, rset *RSet, flags ExpandFlags, decider ExpandDecider, minWeight float64) (*ESet, error) {
	if maxItems < 0 {
		return nil, fmt.Errorf("%w: maxitems=%d", domain.ErrInvalidInput, maxItems)
	}
	defer log.Timed("get_eset")()

	rs, unlock, err := e.db.reader()
	if err != nil {
		return nil, err
	}
	ix, rev := rs.ix, rs.rev
	relCount := make(map[string]int)
	R := 0
	if rset != nil {
		for _, id := range rset.IDs() {
			doc, ok := ix.docs[id]
			if !ok {
				continue
			}
			R++
			for t := range doc.terms {
				relCount[t]++
			}
		}
	}
	skip := make(map[string]struct{})
	if e.query != nil && flags&ExpandIncludeQueryTerms == 0 {
		for _, t := range e.query.UniqueTerms() {
			skip[t] = struct{}{}
		}
	}
	N := len(ix.docs)
	cands := make([]expandCandidate, 0, len(relCount))
	for t, r := range relCount {
		if _, ok := skip[t]; ok {
			continue
		}
		w := expandWeight(N, ix.termFreq(t), R, r)
		if !validWeight(w) {
			unlock()
			return nil, fmt.Errorf("%w: term %q weighted %v", domain.ErrInvalidWeight, t, w)
		}
		cands = append(cands, expandCandidate{t, w})
	}
	unlock()

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].weight != cands[j].weight {
			return cands[i].weight > cands[j].weight
		}
		return strings.Compare(cands[i].term, cands[j].term) < 0
	})

	es := &ESet{bound: len(cands)}
	for _, c := range cands {
		if len(es.items) >= maxItems || c.weight <= minWeight {
			break
		}
		if decider != nil {
			keep, err := decider.KeepTerm(c.term)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}
		es.items = append(es.items, ESetItem{Term: c.term, Weight: c.weight})
	}
	terms := make([]any, len(es.items))
	for i, it := range es.items {
		terms[i] = it.Term
	}
	es.db = e.db
	es.rev = rev
	es.key = sequenceKey("eset", rs.id, rev, digest(terms...))
	return es, nil
}
