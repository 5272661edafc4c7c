package bridge

import (
	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/engine"
)

// cursorOps adapts one engine iterator type to the cursor contract.
// prev is nil for forward-only sequences.
type cursorOps[I, T any] struct {
	next  func(*I) error
	prev  func(*I) error
	equal func(*I, *I) bool
	value func(*I) (T, error)
}

// cursor pairs an engine iterator, held by value, with the lease of the
// sequence it walks. Copying a cursor copies the iterator position.
type cursor[I, T any] struct {
	it    I
	ops   *cursorOps[I, T]
	lease *lease
}

func (c *cursor[I, T]) next() error {
	if err := c.lease.check(); err != nil {
		return err
	}
	return c.ops.next(&c.it)
}

func (c *cursor[I, T]) prev() error {
	if err := c.lease.check(); err != nil {
		return err
	}
	return c.ops.prev(&c.it)
}

func (c *cursor[I, T]) equal(o *cursor[I, T]) bool {
	return c.ops.equal(&c.it, &o.it)
}

func (c *cursor[I, T]) value() (T, error) {
	if err := c.lease.check(); err != nil {
		var zero T
		return zero, err
	}
	return c.ops.value(&c.it)
}

// collect dereferences every element from begin up to end.
func collect[I, T any](begin, end cursor[I, T]) ([]T, error) {
	var out []T
	for it := begin; !it.equal(&end); {
		v, err := it.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if err := it.next(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

var matchOps = &cursorOps[engine.MSetIterator, domain.DocID]{
	next:  (*engine.MSetIterator).Next,
	prev:  (*engine.MSetIterator).Prev,
	equal: (*engine.MSetIterator).Equal,
	value: (*engine.MSetIterator).DocID,
}

var expansionOps = &cursorOps[engine.ESetIterator, string]{
	next:  (*engine.ESetIterator).Next,
	prev:  (*engine.ESetIterator).Prev,
	equal: (*engine.ESetIterator).Equal,
	value: (*engine.ESetIterator).Term,
}

var termOps = &cursorOps[engine.TermIterator, string]{
	next:  (*engine.TermIterator).Next,
	equal: (*engine.TermIterator).Equal,
	value: (*engine.TermIterator).Term,
}

var positionOps = &cursorOps[engine.PositionIterator, domain.TermPos]{
	next:  (*engine.PositionIterator).Next,
	equal: (*engine.PositionIterator).Equal,
	value: (*engine.PositionIterator).Position,
}

// MatchCursor walks a ResultPage in rank order, in either direction.
// Value is the document id.
type MatchCursor struct {
	c cursor[engine.MSetIterator, domain.DocID]
}

// Copy returns an independent cursor at the same position.
func (m MatchCursor) Copy() MatchCursor {
	return m
}

// Next moves to the next-ranked match. It fails at the end sentinel.
func (m *MatchCursor) Next() error {
	return m.c.next()
}

// Prev moves to the previous-ranked match. It fails at the first match.
func (m *MatchCursor) Prev() error {
	return m.c.prev()
}

// Equal reports whether both cursors denote the same position of the same result.
func (m MatchCursor) Equal(o MatchCursor) bool {
	return m.c.equal(&o.c)
}

// Value returns the id of the current match.
func (m MatchCursor) Value() (domain.DocID, error) {
	return m.c.value()
}

// Weight returns the weight of the current match.
func (m MatchCursor) Weight() (float64, error) {
	if err := m.c.lease.check(); err != nil {
		return 0, err
	}
	return m.c.it.Weight()
}

// Rank returns the zero-based rank of the current match.
func (m MatchCursor) Rank() (int, error) {
	if err := m.c.lease.check(); err != nil {
		return 0, err
	}
	return m.c.it.Rank()
}

// Percent returns the weight of the current match scaled to the best match.
func (m MatchCursor) Percent() (int, error) {
	if err := m.c.lease.check(); err != nil {
		return 0, err
	}
	return m.c.it.Percent()
}

// Document fetches the current match as a read-only view.
func (m MatchCursor) Document() (DocumentView, error) {
	if err := m.c.lease.check(); err != nil {
		return DocumentView{}, err
	}
	doc, err := m.c.it.Document()
	if err != nil {
		return DocumentView{}, err
	}
	return DocumentView{doc: doc}, nil
}

// ExpansionCursor walks an ExpansionPage best term first, in either
// direction. Value is the term.
type ExpansionCursor struct {
	c cursor[engine.ESetIterator, string]
}

// Copy returns an independent cursor at the same position.
func (e ExpansionCursor) Copy() ExpansionCursor {
	return e
}

// Next moves to the next term.
func (e *ExpansionCursor) Next() error {
	return e.c.next()
}

// Prev moves to the previous term.
func (e *ExpansionCursor) Prev() error {
	return e.c.prev()
}

// Equal reports whether both cursors denote the same position of the same set.
func (e ExpansionCursor) Equal(o ExpansionCursor) bool {
	return e.c.equal(&o.c)
}

// Value returns the current term.
func (e ExpansionCursor) Value() (string, error) {
	return e.c.value()
}

// Weight returns the expansion weight of the current term.
func (e ExpansionCursor) Weight() (float64, error) {
	if err := e.c.lease.check(); err != nil {
		return 0, err
	}
	return e.c.it.Weight()
}

// TermCursor walks a term list forwards. Value is the term.
type TermCursor struct {
	c cursor[engine.TermIterator, string]
}

// TermList returns cursors over the terms of doc. The cursors go stale
// when doc is modified and, for a document read from a database, when the
// database is modified or closed.
func TermList(doc *engine.Document) (begin, end TermCursor) {
	l := docLease("termlist", doc)
	list := doc.TermList()
	return newTermCursor(list.Begin(), l), newTermCursor(list.End(), l)
}

// AllTerms returns cursors over the database's terms starting with prefix.
func AllTerms(db *engine.Database, prefix string) (begin, end TermCursor, err error) {
	rev := db.Revision()
	list, err := db.AllTerms(prefix)
	if err != nil {
		return TermCursor{}, TermCursor{}, err
	}
	l := newLease("allterms", db, rev)
	return newTermCursor(list.Begin(), l), newTermCursor(list.End(), l), nil
}

func newTermCursor(it engine.TermIterator, l *lease) TermCursor {
	return TermCursor{c: cursor[engine.TermIterator, string]{it: it, ops: termOps, lease: l}}
}

// Copy returns an independent cursor at the same position.
func (t TermCursor) Copy() TermCursor {
	return t
}

// Next moves to the next term.
func (t *TermCursor) Next() error {
	return t.c.next()
}

// Equal reports whether both cursors denote the same position of the same list.
func (t TermCursor) Equal(o TermCursor) bool {
	return t.c.equal(&o.c)
}

// Value returns the current term.
func (t TermCursor) Value() (string, error) {
	return t.c.value()
}

// Wdf returns the within-document frequency of the current term.
func (t TermCursor) Wdf() (uint32, error) {
	if err := t.c.lease.check(); err != nil {
		return 0, err
	}
	return t.c.it.Wdf()
}

// TermFreq returns the number of documents indexing the current term.
func (t TermCursor) TermFreq() (int, error) {
	if err := t.c.lease.check(); err != nil {
		return 0, err
	}
	return t.c.it.TermFreq()
}

// CollectionFreq returns the total wdf of the current term across the
// database. It is only set on cursors from AllTerms.
func (t TermCursor) CollectionFreq() (int, error) {
	if err := t.c.lease.check(); err != nil {
		return 0, err
	}
	return t.c.it.CollectionFreq()
}

// Positions returns cursors over the positions of the current term.
func (t TermCursor) Positions() (begin, end PositionCursor, err error) {
	if err := t.c.lease.check(); err != nil {
		return PositionCursor{}, PositionCursor{}, err
	}
	list, err := t.c.it.Positions()
	if err != nil {
		return PositionCursor{}, PositionCursor{}, err
	}
	l := t.c.lease
	return newPositionCursor(list.Begin(), l), newPositionCursor(list.End(), l), nil
}

// PositionCursor walks a position list forwards. Value is the position.
type PositionCursor struct {
	c cursor[engine.PositionIterator, domain.TermPos]
}

func newPositionCursor(it engine.PositionIterator, l *lease) PositionCursor {
	return PositionCursor{c: cursor[engine.PositionIterator, domain.TermPos]{it: it, ops: positionOps, lease: l}}
}

// Positions returns cursors over the positions of term in doc. They go
// stale like the cursors of TermList.
func Positions(doc *engine.Document, term string) (begin, end PositionCursor, err error) {
	list, err := doc.Positions(term)
	if err != nil {
		return PositionCursor{}, PositionCursor{}, err
	}
	l := docLease("positions", doc)
	return newPositionCursor(list.Begin(), l), newPositionCursor(list.End(), l), nil
}

// Copy returns an independent cursor at the same position.
func (p PositionCursor) Copy() PositionCursor {
	return p
}

// Next moves to the next position.
func (p *PositionCursor) Next() error {
	return p.c.next()
}

// Equal reports whether both cursors denote the same position of the same list.
func (p PositionCursor) Equal(o PositionCursor) bool {
	return p.c.equal(&o.c)
}

// Value returns the current position.
func (p PositionCursor) Value() (domain.TermPos, error) {
	return p.c.value()
}

// CollectTerms dereferences every term from begin up to end.
func CollectTerms(begin, end TermCursor) ([]string, error) {
	return collect(begin.c, end.c)
}

// CollectPositions dereferences every position from begin up to end.
func CollectPositions(begin, end PositionCursor) ([]domain.TermPos, error) {
	return collect(begin.c, end.c)
}
