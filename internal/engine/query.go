package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// Op is a query operator or leaf kind.
type Op int

// Query operators.
const (
	OpAnd Op = iota
	OpOr
	OpAndNot
	OpXor
	OpAndMaybe
	OpFilter
	OpNear
	OpPhrase
	OpValueRange
	OpScaleWeight
	OpEliteSet
	OpValueGe
	OpValueLe
	OpSynonym
	OpMax
	OpWildcard
	OpInvalid

	OpLeafTerm
	OpLeafMatchAll
	OpLeafMatchNothing
)

var opNames = map[Op]string{
	OpAnd:              "AND",
	OpOr:               "OR",
	OpAndNot:           "AND_NOT",
	OpXor:              "XOR",
	OpAndMaybe:         "AND_MAYBE",
	OpFilter:           "FILTER",
	OpNear:             "NEAR",
	OpPhrase:           "PHRASE",
	OpValueRange:       "VALUE_RANGE",
	OpScaleWeight:      "SCALE_WEIGHT",
	OpEliteSet:         "ELITE_SET",
	OpValueGe:          "VALUE_GE",
	OpValueLe:          "VALUE_LE",
	OpSynonym:          "SYNONYM",
	OpMax:              "MAX",
	OpWildcard:         "WILDCARD",
	OpInvalid:          "INVALID",
	OpLeafTerm:         "TERM",
	OpLeafMatchAll:     "MATCH_ALL",
	OpLeafMatchNothing: "MATCH_NOTHING",
}

// String returns the operator name.
func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return fmt.Sprintf("OP(%d)", int(o))
}

func (o Op) compound() bool {
	switch o {
	case OpAnd, OpOr, OpAndNot, OpXor, OpAndMaybe, OpFilter, OpNear, OpPhrase,
		OpEliteSet, OpSynonym, OpMax:
		return true
	default:
		return false
	}
}

// WildcardLimit selects what happens when a wildcard matches too many terms.
type WildcardLimit int

// Wildcard limit behaviours.
const (
	// WildcardLimitError fails the match with ErrWildcardLimit.
	WildcardLimitError WildcardLimit = iota
	// WildcardLimitFirst keeps the first terms in sort order.
	WildcardLimitFirst
	// WildcardLimitMostFrequent keeps the terms indexed by most documents.
	WildcardLimitMostFrequent
)

// Query is an immutable query tree.
type Query struct {
	op     Op
	term   string
	wqf    uint32
	pos    domain.TermPos
	subs   []*Query
	param  int
	factor float64
	slot   domain.Slot
	lo, hi []byte

	maxExpansion int
	limit        WildcardLimit
	combiner     Op
}

// NewTerm returns a query matching documents indexing term.
func NewTerm(term string) *Query {
	return &Query{op: OpLeafTerm, term: term, wqf: 1}
}

// NewTermAt returns a term query with a query frequency and query position.
func NewTermAt(term string, wqf uint32, pos domain.TermPos) *Query {
	return &Query{op: OpLeafTerm, term: term, wqf: wqf, pos: pos}
}

// MatchAll returns a query matching every document with zero weight.
func MatchAll() *Query {
	return &Query{op: OpLeafMatchAll}
}

// MatchNothing returns a query matching no document.
func MatchNothing() *Query {
	return &Query{op: OpLeafMatchNothing}
}

// NewInvalid returns a query that fails evaluation with ErrInvalidQuery.
func NewInvalid() *Query {
	return &Query{op: OpInvalid}
}

// NewQuery combines subqueries with a compound operator. Nil subqueries are
// skipped. With no subqueries the result matches nothing; with one it is
// that subquery.
func NewQuery(op Op, subs ...*Query) (*Query, error) {
	if !op.compound() {
		return nil, fmt.Errorf("%w: %s is not a compound operator", domain.ErrInvalidQuery, op)
	}
	if op == OpNear || op == OpPhrase {
		return newWindowed(op, 0, subs)
	}
	if op == OpEliteSet {
		return NewEliteSet(0, subs...)
	}
	kept := compact(subs)
	switch len(kept) {
	case 0:
		return MatchNothing(), nil
	case 1:
		return kept[0], nil
	}
	return &Query{op: op, subs: kept}, nil
}

func compact(subs []*Query) []*Query {
	kept := make([]*Query, 0, len(subs))
	for _, s := range subs {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return kept
}

// Combine is NewQuery for two operands.
func Combine(op Op, a, b *Query) (*Query, error) {
	return NewQuery(op, a, b)
}

// NewNear matches documents where every term occurs within window positions.
// A zero window means the number of terms.
func NewNear(window int, subs ...*Query) (*Query, error) {
	return newWindowed(OpNear, window, subs)
}

// NewPhrase matches documents where the terms occur in order within window
// positions. A zero window means the number of terms.
func NewPhrase(window int, subs ...*Query) (*Query, error) {
	return newWindowed(OpPhrase, window, subs)
}

func newWindowed(op Op, window int, subs []*Query) (*Query, error) {
	kept := compact(subs)
	for _, s := range kept {
		if s.op != OpLeafTerm {
			return nil, fmt.Errorf("%w: %s takes only terms", domain.ErrInvalidQuery, op)
		}
	}
	switch len(kept) {
	case 0:
		return MatchNothing(), nil
	case 1:
		return kept[0], nil
	}
	if window < len(kept) {
		window = len(kept)
	}
	return &Query{op: op, subs: kept, param: window}, nil
}

// NewEliteSet ORs together the size subqueries with the highest weights.
// A zero size means 10.
func NewEliteSet(size int, subs ...*Query) (*Query, error) {
	if size <= 0 {
		size = 10
	}
	kept := compact(subs)
	switch len(kept) {
	case 0:
		return MatchNothing(), nil
	case 1:
		return kept[0], nil
	}
	return &Query{op: OpEliteSet, subs: kept, param: size}, nil
}

// NewScaleWeight multiplies the weights of sub by factor.
func NewScaleWeight(factor float64, sub *Query) (*Query, error) {
	if factor < 0 {
		return nil, fmt.Errorf("%w: negative scale factor %v", domain.ErrInvalidQuery, factor)
	}
	if sub == nil {
		return MatchNothing(), nil
	}
	return &Query{op: OpScaleWeight, factor: factor, subs: []*Query{sub}}, nil
}

// NewValueRange matches documents whose value in slot lies in [lo, hi].
func NewValueRange(slot domain.Slot, lo, hi []byte) *Query {
	return &Query{op: OpValueRange, slot: slot, lo: append([]byte(nil), lo...), hi: append([]byte(nil), hi...)}
}

// NewValueGe matches documents whose value in slot is at least lo.
func NewValueGe(slot domain.Slot, lo []byte) *Query {
	return &Query{op: OpValueGe, slot: slot, lo: append([]byte(nil), lo...)}
}

// NewValueLe matches documents whose value in slot is at most hi.
func NewValueLe(slot domain.Slot, hi []byte) *Query {
	return &Query{op: OpValueLe, slot: slot, hi: append([]byte(nil), hi...)}
}

// NewRangeQuery builds the value query for an optionally open range. A nil
// bound is open. With both bounds nil the result is an invalid query.
func NewRangeQuery(slot domain.Slot, lo, hi []byte) *Query {
	switch {
	case lo != nil && hi != nil:
		return NewValueRange(slot, lo, hi)
	case lo != nil:
		return NewValueGe(slot, lo)
	case hi != nil:
		return NewValueLe(slot, hi)
	default:
		return NewInvalid()
	}
}

// NewWildcard matches terms against a glob pattern at match time and
// combines them with combiner (OpSynonym, OpOr or OpMax). A zero
// maxExpansion means unlimited.
func NewWildcard(pattern string, maxExpansion int, limit WildcardLimit, combiner Op) (*Query, error) {
	switch combiner {
	case OpSynonym, OpOr, OpMax:
	default:
		return nil, fmt.Errorf("%w: wildcard combiner %s", domain.ErrInvalidQuery, combiner)
	}
	if maxExpansion < 0 {
		return nil, fmt.Errorf("%w: negative wildcard expansion limit", domain.ErrInvalidQuery)
	}
	return &Query{op: OpWildcard, term: pattern, maxExpansion: maxExpansion, limit: limit, combiner: combiner}, nil
}

// Op returns the operator or leaf kind.
func (q *Query) Op() Op {
	return q.op
}

// IsEmpty reports whether the query matches nothing by construction.
func (q *Query) IsEmpty() bool {
	return q == nil || q.op == OpLeafMatchNothing
}

// Term returns the term of a leaf, or the pattern of a wildcard.
func (q *Query) Term() string {
	return q.term
}

// Slot returns the value slot of a value query.
func (q *Query) Slot() domain.Slot {
	return q.slot
}

// Bounds returns the bounds of a value query.
func (q *Query) Bounds() (lo, hi []byte) {
	return q.lo, q.hi
}

// Window returns the window of NEAR/PHRASE or the size of ELITE_SET.
func (q *Query) Window() int {
	return q.param
}

// Subqueries returns the direct children.
func (q *Query) Subqueries() []*Query {
	return append([]*Query(nil), q.subs...)
}

// Terms returns the leaf terms in query-position order, with duplicates.
func (q *Query) Terms() []string {
	type posTerm struct {
		term string
		pos  domain.TermPos
		seq  int
	}
	var acc []posTerm
	var walk func(*Query)
	walk = func(n *Query) {
		if n == nil {
			return
		}
		if n.op == OpLeafTerm {
			acc = append(acc, posTerm{n.term, n.pos, len(acc)})
			return
		}
		for _, s := range n.subs {
			walk(s)
		}
	}
	walk(q)
	sort.SliceStable(acc, func(i, j int) bool {
		if acc[i].pos != acc[j].pos {
			return acc[i].pos < acc[j].pos
		}
		return acc[i].seq < acc[j].seq
	})
	terms := make([]string, len(acc))
	for i, a := range acc {
		terms[i] = a.term
	}
	return terms
}

// UniqueTerms returns the distinct leaf terms in ascending order.
func (q *Query) UniqueTerms() []string {
	seen := make(map[string]struct{})
	for _, t := range q.Terms() {
		seen[t] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	c := *q
	c.lo = append([]byte(nil), q.lo...)
	c.hi = append([]byte(nil), q.hi...)
	if q.lo == nil {
		c.lo = nil
	}
	if q.hi == nil {
		c.hi = nil
	}
	if len(q.subs) > 0 {
		c.subs = make([]*Query, len(q.subs))
		for i, s := range q.subs {
			c.subs[i] = s.Clone()
		}
	}
	return &c
}

// String describes the query.
func (q *Query) String() string {
	return "Query(" + q.describe() + ")"
}

func (q *Query) describe() string {
	if q == nil {
		return ""
	}
	switch q.op {
	case OpLeafTerm:
		s := q.term
		if q.wqf != 1 {
			s += fmt.Sprintf("#%d", q.wqf)
		}
		if q.pos > 0 {
			s += fmt.Sprintf("@%d", q.pos)
		}
		return s
	case OpLeafMatchAll:
		return "<alldocuments>"
	case OpLeafMatchNothing:
		return ""
	case OpInvalid:
		return "INVALID"
	case OpValueRange:
		return fmt.Sprintf("VALUE_RANGE %d %s %s", q.slot, q.lo, q.hi)
	case OpValueGe:
		return fmt.Sprintf("VALUE_GE %d %s", q.slot, q.lo)
	case OpValueLe:
		return fmt.Sprintf("VALUE_LE %d %s", q.slot, q.hi)
	case OpWildcard:
		return fmt.Sprintf("WILDCARD %s %s", q.combiner, q.term)
	case OpScaleWeight:
		return fmt.Sprintf("%s * %s", formatFactor(q.factor), q.subs[0].describe())
	}
	sep := " " + q.op.String() + " "
	if q.op == OpNear || q.op == OpPhrase || q.op == OpEliteSet {
		sep = fmt.Sprintf(" %s %d ", q.op, q.param)
	}
	parts := make([]string, len(q.subs))
	for i, s := range q.subs {
		parts[i] = s.describe()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func formatFactor(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
