package engine

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// sequenceKey identifies a logical sequence. Two sequences produced
// independently from the same source state get the same key, so iterators
// over them compare equal at equal offsets.
func sequenceKey(kind string, parts ...any) string {
	var b strings.Builder
	b.WriteString(kind)
	for _, p := range parts {
		fmt.Fprintf(&b, "/%v", p)
	}
	return b.String()
}

func digest(parts ...any) uint64 {
	h := xxhash.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%v\x00", p)
	}
	return h.Sum64()
}

// TermEntry is one element of a term list.
type TermEntry struct {
	Term string

	// Wdf is the within-document frequency. It is zero in database-wide lists.
	Wdf uint32

	// TermFreq is the number of documents indexing Term, or zero when the
	// list was not read from a database.
	TermFreq int

	// CollectionFreq is the total wdf of Term across the database. It is
	// only set in database-wide lists.
	CollectionFreq int

	Positions []domain.TermPos
}

// TermList is an ordered list of terms, from a document or a database.
type TermList struct {
	key     string
	entries []TermEntry
}

func newTermList(key string, entries []TermEntry) *TermList {
	return &TermList{key: key, entries: entries}
}

// Len returns the number of terms.
func (l *TermList) Len() int {
	return len(l.entries)
}

// Begin returns an iterator at the first term.
func (l *TermList) Begin() TermIterator {
	return TermIterator{list: l}
}

// End returns the end sentinel.
func (l *TermList) End() TermIterator {
	return TermIterator{list: l, pos: len(l.entries)}
}

// TermIterator walks a TermList forwards.
type TermIterator struct {
	list *TermList
	pos  int
}

// Next advances to the following term.
func (it *TermIterator) Next() error {
	if it.list == nil || it.pos >= len(it.list.entries) {
		return domain.ErrEndOfSequence
	}
	it.pos++
	return nil
}

// SkipTo advances to the first term at or after term.
func (it *TermIterator) SkipTo(term string) {
	if it.list == nil {
		return
	}
	for it.pos < len(it.list.entries) && it.list.entries[it.pos].Term < term {
		it.pos++
	}
}

// Equal reports whether both iterators denote the same offset of the same sequence.
func (it *TermIterator) Equal(o *TermIterator) bool {
	return it.pos == o.pos && sameList(it.list, o.list)
}

func sameList(a, b *TermList) bool {
	if a == b {
		return true
	}
	return a != nil && b != nil && a.key == b.key
}

func (it *TermIterator) entry() (*TermEntry, error) {
	if it.list == nil || it.pos >= len(it.list.entries) {
		return nil, domain.ErrEndOfSequence
	}
	return &it.list.entries[it.pos], nil
}

// Term returns the current term.
func (it *TermIterator) Term() (string, error) {
	e, err := it.entry()
	if err != nil {
		return "", err
	}
	return e.Term, nil
}

// Wdf returns the within-document frequency of the current term.
func (it *TermIterator) Wdf() (uint32, error) {
	e, err := it.entry()
	if err != nil {
		return 0, err
	}
	return e.Wdf, nil
}

// TermFreq returns the number of documents indexing the current term.
func (it *TermIterator) TermFreq() (int, error) {
	e, err := it.entry()
	if err != nil {
		return 0, err
	}
	return e.TermFreq, nil
}

// CollectionFreq returns the total wdf of the current term across the database.
func (it *TermIterator) CollectionFreq() (int, error) {
	e, err := it.entry()
	if err != nil {
		return 0, err
	}
	return e.CollectionFreq, nil
}

// Positions returns the positions of the current term.
func (it *TermIterator) Positions() (*PositionList, error) {
	e, err := it.entry()
	if err != nil {
		return nil, err
	}
	return newPositionList(sequenceKey(it.list.key, "pos", e.Term), e.Positions), nil
}

// PositionList is an ascending list of term positions.
type PositionList struct {
	key       string
	positions []domain.TermPos
}

func newPositionList(key string, positions []domain.TermPos) *PositionList {
	return &PositionList{key: key, positions: append([]domain.TermPos(nil), positions...)}
}

// Len returns the number of positions.
func (l *PositionList) Len() int {
	return len(l.positions)
}

// Begin returns an iterator at the first position.
func (l *PositionList) Begin() PositionIterator {
	return PositionIterator{list: l}
}

// End returns the end sentinel.
func (l *PositionList) End() PositionIterator {
	return PositionIterator{list: l, pos: len(l.positions)}
}

// PositionIterator walks a PositionList forwards.
type PositionIterator struct {
	list *PositionList
	pos  int
}

// Next advances to the following position.
func (it *PositionIterator) Next() error {
	if it.list == nil || it.pos >= len(it.list.positions) {
		return domain.ErrEndOfSequence
	}
	it.pos++
	return nil
}

// SkipTo advances to the first position at or after p.
func (it *PositionIterator) SkipTo(p domain.TermPos) {
	if it.list == nil {
		return
	}
	for it.pos < len(it.list.positions) && it.list.positions[it.pos] < p {
		it.pos++
	}
}

// Equal reports whether both iterators denote the same offset of the same sequence.
func (it *PositionIterator) Equal(o *PositionIterator) bool {
	if it.pos != o.pos {
		return false
	}
	if it.list == o.list {
		return true
	}
	return it.list != nil && o.list != nil && it.list.key == o.list.key
}

// Position returns the current position.
func (it *PositionIterator) Position() (domain.TermPos, error) {
	if it.list == nil || it.pos >= len(it.list.positions) {
		return 0, domain.ErrEndOfSequence
	}
	return it.list.positions[it.pos], nil
}
