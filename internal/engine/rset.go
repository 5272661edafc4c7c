package engine

import (
	"sort"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// RSet is a set of documents marked relevant, used for relevance feedback
// and query expansion.
type RSet struct {
	ids map[domain.DocID]struct{}
}

// NewRSet returns a set holding ids.
func NewRSet(ids ...domain.DocID) *RSet {
	r := &RSet{ids: make(map[domain.DocID]struct{}, len(ids))}
	for _, id := range ids {
		r.AddDocument(id)
	}
	return r
}

// AddDocument marks id relevant. Zero is ignored.
func (r *RSet) AddDocument(id domain.DocID) {
	if id != 0 {
		r.ids[id] = struct{}{}
	}
}

// AddMatch marks the document at a match-set iterator relevant.
func (r *RSet) AddMatch(it *MSetIterator) error {
	id, err := it.DocID()
	if err != nil {
		return err
	}
	r.AddDocument(id)
	return nil
}

// RemoveDocument unmarks id.
func (r *RSet) RemoveDocument(id domain.DocID) {
	delete(r.ids, id)
}

// Contains reports whether id is marked.
func (r *RSet) Contains(id domain.DocID) bool {
	_, ok := r.ids[id]
	return ok
}

// Size returns the number of marked documents.
func (r *RSet) Size() int {
	return len(r.ids)
}

// Empty reports whether no document is marked.
func (r *RSet) Empty() bool {
	return len(r.ids) == 0
}

// IDs returns the marked ids in ascending order.
func (r *RSet) IDs() []domain.DocID {
	ids := make([]domain.DocID, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
