package engine

import "github.com/custodia-labs/sercha-engine/internal/core/domain"

// ESetItem is one suggested expansion term.
type ESetItem struct {
	Term   string
	Weight float64
}

// ESet is a ranked list of expansion terms.
type ESet struct {
	db    *Database
	rev   uint64
	key   string
	items []ESetItem
	bound int
}

// Database returns the database the terms came from.
func (e *ESet) Database() *Database {
	return e.db
}

// Revision is the database revision the terms were computed at.
func (e *ESet) Revision() uint64 {
	return e.rev
}

// Size returns the number of terms.
func (e *ESet) Size() int {
	return len(e.items)
}

// Empty reports whether no term was suggested.
func (e *ESet) Empty() bool {
	return len(e.items) == 0
}

// Bound is the number of candidate terms considered.
func (e *ESet) Bound() int {
	return e.bound
}

// Items returns a copy of the terms.
func (e *ESet) Items() []ESetItem {
	return append([]ESetItem(nil), e.items...)
}

// Begin returns an iterator at the best term.
func (e *ESet) Begin() ESetIterator {
	return ESetIterator{eset: e}
}

// End returns the end sentinel.
func (e *ESet) End() ESetIterator {
	return ESetIterator{eset: e, pos: len(e.items)}
}

// ESetIterator walks an ESet in rank order, in either direction.
type ESetIterator struct {
	eset *ESet
	pos  int
}

// Next advances to the next term.
func (it *ESetIterator) Next() error {
	if it.eset == nil || it.pos >= len(it.eset.items) {
		return domain.ErrEndOfSequence
	}
	it.pos++
	return nil
}

// Prev moves back to the previous term.
func (it *ESetIterator) Prev() error {
	if it.eset == nil || it.pos <= 0 {
		return domain.ErrBeforeBegin
	}
	it.pos--
	return nil
}

// Equal reports whether both iterators denote the same offset of the same sequence.
func (it *ESetIterator) Equal(o *ESetIterator) bool {
	if it.pos != o.pos {
		return false
	}
	if it.eset == o.eset {
		return true
	}
	return it.eset != nil && o.eset != nil && it.eset.key == o.eset.key
}

// Term returns the current term.
func (it *ESetIterator) Term() (string, error) {
	if it.eset == nil || it.pos >= len(it.eset.items) {
		return "", domain.ErrEndOfSequence
	}
	return it.eset.items[it.pos].Term, nil
}

// Weight returns the weight of the current term.
func (it *ESetIterator) Weight() (float64, error) {
	if it.eset == nil || it.pos >= len(it.eset.items) {
		return 0, domain.ErrEndOfSequence
	}
	return it.eset.items[it.pos].Weight, nil
}
