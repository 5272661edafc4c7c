package engine

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// scores maps matching documents to their weights.
type scores map[domain.DocID]float64

// matcher evaluates a query tree against an index. The caller holds the
// index's read lock for the matcher's whole life.
type matcher struct {
	ix       *index
	params   BM25
	avgLen   float64
	relevant []domain.DocID
	relCount map[string]int
}

func newMatcher(ix *index, params BM25, rset *RSet) *matcher {
	m := &matcher{ix: ix, params: params, avgLen: ix.avgLength(), relCount: make(map[string]int)}
	if rset != nil {
		for _, id := range rset.IDs() {
			if _, ok := ix.docs[id]; ok {
				m.relevant = append(m.relevant, id)
			}
		}
	}
	return m
}

// relevantWith counts relevant documents indexing term.
func (m *matcher) relevantWith(term string) int {
	if len(m.relevant) == 0 {
		return 0
	}
	if r, ok := m.relCount[term]; ok {
		return r
	}
	r := 0
	pl := m.ix.postings[term]
	for _, id := range m.relevant {
		if _, ok := pl[id]; ok {
			r++
		}
	}
	m.relCount[term] = r
	return r
}

func (m *matcher) idf(term string) float64 {
	return termWeight(len(m.ix.docs), m.ix.termFreq(term), len(m.relevant), m.relevantWith(term))
}

func (m *matcher) eval(q *Query) (scores, error) {
	switch q.op {
	case OpLeafTerm:
		return m.evalTerm(q), nil
	case OpLeafMatchAll:
		out := make(scores, len(m.ix.docs))
		for id := range m.ix.docs {
			out[id] = 0
		}
		return out, nil
	case OpLeafMatchNothing:
		return scores{}, nil
	case OpInvalid:
		return nil, fmt.Errorf("%w: query contains an invalid subquery", domain.ErrInvalidQuery)
	case OpValueRange, OpValueGe, OpValueLe:
		return m.evalValue(q), nil
	case OpWildcard:
		expanded, err := m.expandWildcard(q)
		if err != nil {
			return nil, err
		}
		return m.eval(expanded)
	case OpScaleWeight:
		inner, err := m.eval(q.subs[0])
		if err != nil {
			return nil, err
		}
		for id, w := range inner {
			inner[id] = w * q.factor
		}
		return inner, nil
	case OpNear, OpPhrase:
		return m.evalPositional(q)
	case OpSynonym:
		return m.evalSynonym(q)
	case OpEliteSet:
		return m.evalElite(q)
	}

	children := make([]scores, len(q.subs))
	for i, s := range q.subs {
		c, err := m.eval(s)
		if err != nil {
			return nil, err
		}
		children[i] = c
	}

	switch q.op {
	case OpAnd:
		return intersect(children), nil
	case OpFilter:
		return filter(children), nil
	case OpOr:
		return union(children, sumWeight), nil
	case OpMax:
		return union(children, maxWeight), nil
	case OpXor:
		return xor(children), nil
	case OpAndNot:
		out := children[0]
		for _, c := range children[1:] {
			for id := range c {
				delete(out, id)
			}
		}
		return out, nil
	case OpAndMaybe:
		out := children[0]
		for _, c := range children[1:] {
			for id, w := range c {
				if _, ok := out[id]; ok {
					out[id] += w
				}
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unsupported operator %s", domain.ErrInvalidQuery, q.op)
}

func (m *matcher) evalTerm(q *Query) scores {
	pl := m.ix.postings[q.term]
	out := make(scores, len(pl))
	if len(pl) == 0 {
		return out
	}
	idf := m.idf(q.term)
	for id, wdf := range pl {
		out[id] = float64(q.wqf) * idf * m.params.tfWeight(wdf, m.ix.docLength(id), m.avgLen)
	}
	return out
}

func (m *matcher) evalValue(q *Query) scores {
	out := make(scores)
	for id, doc := range m.ix.docs {
		v, ok := doc.values[q.slot]
		if !ok {
			continue
		}
		if q.op != OpValueLe && bytes.Compare(v, q.lo) < 0 {
			continue
		}
		if q.op != OpValueGe && bytes.Compare(v, q.hi) > 0 {
			continue
		}
		out[id] = 0
	}
	return out
}

func (m *matcher) evalPositional(q *Query) (scores, error) {
	parts := make([]scores, len(q.subs))
	for i, s := range q.subs {
		parts[i] = m.evalTerm(s)
	}
	cand := intersect(parts)
	for id := range cand {
		doc := m.ix.docs[id]
		lists := make([][]domain.TermPos, len(q.subs))
		for i, s := range q.subs {
			lists[i] = doc.terms[s.term].positions
		}
		var ok bool
		if q.op == OpPhrase {
			ok = phraseMatch(lists, q.param)
		} else {
			ok = nearMatch(lists, q.param)
		}
		if !ok {
			delete(cand, id)
		}
	}
	return cand, nil
}

// phraseMatch reports whether one position per list can be chosen in list
// order, strictly increasing, spanning fewer than window positions.
func phraseMatch(lists [][]domain.TermPos, window int) bool {
	for _, start := range lists[0] {
		prev := start
		ok := true
		for _, l := range lists[1:] {
			i := sort.Search(len(l), func(i int) bool { return l[i] > prev })
			if i == len(l) {
				ok = false
				break
			}
			prev = l[i]
		}
		if ok && int(prev-start) < window {
			return true
		}
	}
	return false
}

// nearMatch reports whether one position per list, in any order, fits in
// fewer than window positions.
func nearMatch(lists [][]domain.TermPos, window int) bool {
	type occ struct {
		pos  domain.TermPos
		list int
	}
	var all []occ
	for i, l := range lists {
		for _, p := range l {
			all = append(all, occ{p, i})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].pos < all[j].pos })
	counts := make([]int, len(lists))
	covered, lo := 0, 0
	for hi := range all {
		if counts[all[hi].list] == 0 {
			covered++
		}
		counts[all[hi].list]++
		for covered == len(lists) {
			if int(all[hi].pos-all[lo].pos) < window {
				return true
			}
			counts[all[lo].list]--
			if counts[all[lo].list] == 0 {
				covered--
			}
			lo++
		}
	}
	return false
}

// evalSynonym weights the union of its terms as if it were one term.
func (m *matcher) evalSynonym(q *Query) (scores, error) {
	allTerms := true
	for _, s := range q.subs {
		if s.op != OpLeafTerm {
			allTerms = false
			break
		}
	}
	if !allTerms {
		children := make([]scores, len(q.subs))
		for i, s := range q.subs {
			c, err := m.eval(s)
			if err != nil {
				return nil, err
			}
			children[i] = c
		}
		return union(children, maxWeight), nil
	}

	wdf := make(map[domain.DocID]uint32)
	for _, s := range q.subs {
		for id, w := range m.ix.postings[s.term] {
			wdf[id] += w * s.wqf
		}
	}
	out := make(scores, len(wdf))
	if len(wdf) == 0 {
		return out, nil
	}
	r := 0
	for _, id := range m.relevant {
		if _, ok := wdf[id]; ok {
			r++
		}
	}
	idf := termWeight(len(m.ix.docs), len(wdf), len(m.relevant), r)
	for id, f := range wdf {
		out[id] = idf * m.params.tfWeight(f, m.ix.docLength(id), m.avgLen)
	}
	return out, nil
}

// evalElite ORs the subqueries with the highest best-case weight.
func (m *matcher) evalElite(q *Query) (scores, error) {
	type ranked struct {
		s    scores
		best float64
		seq  int
	}
	all := make([]ranked, len(q.subs))
	for i, sub := range q.subs {
		s, err := m.eval(sub)
		if err != nil {
			return nil, err
		}
		best := 0.0
		for _, w := range s {
			best = max(best, w)
		}
		all[i] = ranked{s, best, i}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].best > all[j].best })
	if len(all) > q.param {
		all = all[:q.param]
	}
	children := make([]scores, len(all))
	for i, r := range all {
		children[i] = r.s
	}
	return union(children, sumWeight), nil
}

// wildcardPrefix returns the literal prefix of a glob pattern.
func wildcardPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?[{\`); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

func (m *matcher) expandWildcard(q *Query) (*Query, error) {
	g, err := glob.Compile(q.term)
	if err != nil {
		return nil, fmt.Errorf("%w: wildcard %q: %v", domain.ErrInvalidQuery, q.term, err)
	}
	var terms []string
	for _, t := range m.ix.termsWithPrefix(wildcardPrefix(q.term)) {
		if g.Match(t) {
			terms = append(terms, t)
		}
	}
	if q.maxExpansion > 0 && len(terms) > q.maxExpansion {
		switch q.limit {
		case WildcardLimitError:
			return nil, fmt.Errorf("%w: %q matches %d terms, limit %d",
				domain.ErrWildcardLimit, q.term, len(terms), q.maxExpansion)
		case WildcardLimitMostFrequent:
			sort.SliceStable(terms, func(i, j int) bool {
				return m.ix.termFreq(terms[i]) > m.ix.termFreq(terms[j])
			})
			terms = terms[:q.maxExpansion]
			sort.Strings(terms)
		default:
			terms = terms[:q.maxExpansion]
		}
	}
	subs := make([]*Query, len(terms))
	for i, t := range terms {
		subs[i] = NewTerm(t)
	}
	return NewQuery(q.combiner, subs...)
}

func intersect(children []scores) scores {
	if len(children) == 0 {
		return scores{}
	}
	smallest := 0
	for i, c := range children {
		if len(c) < len(children[smallest]) {
			smallest = i
		}
	}
	out := make(scores)
next:
	for id := range children[smallest] {
		total := 0.0
		for _, c := range children {
			w, ok := c[id]
			if !ok {
				continue next
			}
			total += w
		}
		out[id] = total
	}
	return out
}

// filter keeps the documents of the first child that every other child matches.
func filter(children []scores) scores {
	out := children[0]
	for _, c := range children[1:] {
		for id := range out {
			if _, ok := c[id]; !ok {
				delete(out, id)
			}
		}
	}
	return out
}

func sumWeight(a, b float64) float64 { return a + b }

func maxWeight(a, b float64) float64 { return max(a, b) }

func union(children []scores, merge func(a, b float64) float64) scores {
	out := make(scores)
	for _, c := range children {
		for id, w := range c {
			if prev, ok := out[id]; ok {
				out[id] = merge(prev, w)
			} else {
				out[id] = w
			}
		}
	}
	return out
}

func xor(children []scores) scores {
	count := make(map[domain.DocID]int)
	out := make(scores)
	for _, c := range children {
		for id, w := range c {
			count[id]++
			out[id] += w
		}
	}
	for id, n := range count {
		if n%2 == 0 {
			delete(out, id)
		}
	}
	return out
}
