package engine

import (
	"math"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// MSetItem is one ranked match.
type MSetItem struct {
	ID     domain.DocID
	Weight float64
}

// MSet is a window of ranked matches plus the total match bounds.
type MSet struct {
	db          *Database
	rev         uint64
	key         string
	first       int
	items       []MSetItem
	lower       int
	estimated   int
	upper       int
	maxAttained float64
	terms       []string
	termFreqs   map[string]int
}

// Database returns the database the matches came from.
func (m *MSet) Database() *Database {
	return m.db
}

// Revision is the database revision the matches were computed at.
func (m *MSet) Revision() uint64 {
	return m.rev
}

// FirstItem is the rank of the first match in the window.
func (m *MSet) FirstItem() int {
	return m.first
}

// Size returns the number of matches in the window.
func (m *MSet) Size() int {
	return len(m.items)
}

// Empty reports whether the window holds no matches.
func (m *MSet) Empty() bool {
	return len(m.items) == 0
}

// MatchesLowerBound is the least number of documents that can match.
func (m *MSet) MatchesLowerBound() int {
	return m.lower
}

// MatchesEstimated is the best estimate of the number of matches.
func (m *MSet) MatchesEstimated() int {
	return m.estimated
}

// MatchesUpperBound is the greatest number of documents that can match.
func (m *MSet) MatchesUpperBound() int {
	return m.upper
}

// Exact reports whether the bounds coincide.
func (m *MSet) Exact() bool {
	return m.lower == m.upper
}

// MaxAttained is the highest weight of any accepted match.
func (m *MSet) MaxAttained() float64 {
	return m.maxAttained
}

// Items returns a copy of the window.
func (m *MSet) Items() []MSetItem {
	return append([]MSetItem(nil), m.items...)
}

// TermFreq returns the number of documents indexing a query term at match time.
func (m *MSet) TermFreq(term string) int {
	return m.termFreqs[term]
}

// ConvertToPercent scales a weight against the best match.
func (m *MSet) ConvertToPercent(weight float64) int {
	if m.maxAttained <= 0 {
		return 100
	}
	pct := int(math.Round(weight / m.maxAttained * 100))
	return max(0, min(100, pct))
}

// Begin returns an iterator at the first match in the window.
func (m *MSet) Begin() MSetIterator {
	return MSetIterator{mset: m}
}

// End returns the end sentinel.
func (m *MSet) End() MSetIterator {
	return MSetIterator{mset: m, pos: len(m.items)}
}

// MSetIterator walks an MSet in rank order, in either direction.
type MSetIterator struct {
	mset *MSet
	pos  int
}

// Next advances to the next-ranked match.
func (it *MSetIterator) Next() error {
	if it.mset == nil || it.pos >= len(it.mset.items) {
		return domain.ErrEndOfSequence
	}
	it.pos++
	return nil
}

// Prev moves back to the previous-ranked match.
func (it *MSetIterator) Prev() error {
	if it.mset == nil || it.pos <= 0 {
		return domain.ErrBeforeBegin
	}
	it.pos--
	return nil
}

// Equal reports whether both iterators denote the same offset of the same sequence.
func (it *MSetIterator) Equal(o *MSetIterator) bool {
	if it.pos != o.pos {
		return false
	}
	if it.mset == o.mset {
		return true
	}
	return it.mset != nil && o.mset != nil && it.mset.key == o.mset.key
}

func (it *MSetIterator) item() (*MSetItem, error) {
	if it.mset == nil || it.pos >= len(it.mset.items) {
		return nil, domain.ErrEndOfSequence
	}
	return &it.mset.items[it.pos], nil
}

// DocID returns the id of the current match.
func (it *MSetIterator) DocID() (domain.DocID, error) {
	item, err := it.item()
	if err != nil {
		return 0, err
	}
	return item.ID, nil
}

// Weight returns the weight of the current match.
func (it *MSetIterator) Weight() (float64, error) {
	item, err := it.item()
	if err != nil {
		return 0, err
	}
	return item.Weight, nil
}

// Rank returns the zero-based rank of the current match.
func (it *MSetIterator) Rank() (int, error) {
	if _, err := it.item(); err != nil {
		return 0, err
	}
	return it.mset.first + it.pos, nil
}

// Percent returns the weight of the current match as a percentage.
func (it *MSetIterator) Percent() (int, error) {
	item, err := it.item()
	if err != nil {
		return 0, err
	}
	return it.mset.ConvertToPercent(item.Weight), nil
}

// Document fetches the current match from the database.
func (it *MSetIterator) Document() (*Document, error) {
	item, err := it.item()
	if err != nil {
		return nil, err
	}
	return it.mset.db.Document(item.ID)
}
