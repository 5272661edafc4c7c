package engine

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

type posting struct {
	wdf       uint32
	positions []domain.TermPos
}

func (p *posting) clone() *posting {
	c := &posting{wdf: p.wdf}
	if len(p.positions) > 0 {
		c.positions = append([]domain.TermPos(nil), p.positions...)
	}
	return c
}

// Document is a unit of indexing: opaque data, terms with wdf and positions,
// and value slots.
type Document struct {
	id     domain.DocID
	data   []byte
	terms  map[string]*posting
	values map[domain.Slot][]byte

	// source is set on documents read from a database. termFreqs holds the
	// term frequencies of the document's terms at sourceRev.
	source    *Database
	sourceRev uint64
	sourceKey string
	termFreqs map[string]int
	rev       atomic.Uint64
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		terms:  make(map[string]*posting),
		values: make(map[domain.Slot][]byte),
	}
}

// ID returns the document id, or zero for a document not read from a database.
func (d *Document) ID() domain.DocID {
	return d.id
}

// Revision increases on every mutation of the document.
func (d *Document) Revision() uint64 {
	return d.rev.Load()
}

// Source returns the database the document was read from and the
// database revision at the time, or nil for a document built locally.
func (d *Document) Source() (*Database, uint64) {
	return d.source, d.sourceRev
}

// IsClosed is always false; documents have no close operation.
func (d *Document) IsClosed() bool {
	return false
}

func (d *Document) touch() {
	d.rev.Add(1)
}

// Data returns a copy of the document data.
func (d *Document) Data() []byte {
	return append([]byte(nil), d.data...)
}

// SetData replaces the document data.
func (d *Document) SetData(data []byte) {
	d.data = append([]byte(nil), data...)
	d.touch()
}

// AddTerm adds a term without positional information.
func (d *Document) AddTerm(term string, wdfInc uint32) {
	if term == "" {
		return
	}
	p := d.terms[term]
	if p == nil {
		p = &posting{}
		d.terms[term] = p
	}
	p.wdf += wdfInc
	d.touch()
}

// AddBooleanTerm adds a term with zero wdf. Boolean terms filter but never weight.
func (d *Document) AddBooleanTerm(term string) {
	d.AddTerm(term, 0)
}

// AddPosting adds one occurrence of term at pos.
func (d *Document) AddPosting(term string, pos domain.TermPos, wdfInc uint32) {
	if term == "" {
		return
	}
	p := d.terms[term]
	if p == nil {
		p = &posting{}
		d.terms[term] = p
	}
	p.wdf += wdfInc
	i := sort.Search(len(p.positions), func(i int) bool { return p.positions[i] >= pos })
	if i == len(p.positions) || p.positions[i] != pos {
		p.positions = append(p.positions, 0)
		copy(p.positions[i+1:], p.positions[i:])
		p.positions[i] = pos
	}
	d.touch()
}

// RemoveTerm removes a term and all of its positions.
func (d *Document) RemoveTerm(term string) error {
	if _, ok := d.terms[term]; !ok {
		return fmt.Errorf("term %q %w", term, domain.ErrNotFound)
	}
	delete(d.terms, term)
	d.touch()
	return nil
}

// RemovePosting removes one occurrence of term at pos.
func (d *Document) RemovePosting(term string, pos domain.TermPos, wdfDec uint32) error {
	p, ok := d.terms[term]
	if !ok {
		return fmt.Errorf("term %q %w", term, domain.ErrNotFound)
	}
	i := sort.Search(len(p.positions), func(i int) bool { return p.positions[i] >= pos })
	if i == len(p.positions) || p.positions[i] != pos {
		return fmt.Errorf("position %d of term %q %w", pos, term, domain.ErrNotFound)
	}
	p.positions = append(p.positions[:i], p.positions[i+1:]...)
	if wdfDec > p.wdf {
		wdfDec = p.wdf
	}
	p.wdf -= wdfDec
	d.touch()
	return nil
}

// ClearTerms removes every term.
func (d *Document) ClearTerms() {
	d.terms = make(map[string]*posting)
	d.touch()
}

// TermCount returns the number of distinct terms.
func (d *Document) TermCount() int {
	return len(d.terms)
}

// HasTerm reports whether the document indexes term.
func (d *Document) HasTerm(term string) bool {
	_, ok := d.terms[term]
	return ok
}

// Length is the sum of wdf over all terms.
func (d *Document) Length() uint32 {
	var n uint32
	for _, p := range d.terms {
		n += p.wdf
	}
	return n
}

// Value returns the value in slot, or nil.
func (d *Document) Value(slot domain.Slot) []byte {
	v, ok := d.values[slot]
	if !ok {
		return nil
	}
	return append([]byte(nil), v...)
}

// AddValue sets the value in slot. An empty value removes it.
func (d *Document) AddValue(slot domain.Slot, value []byte) {
	if len(value) == 0 {
		delete(d.values, slot)
	} else {
		d.values[slot] = append([]byte(nil), value...)
	}
	d.touch()
}

// RemoveValue clears slot.
func (d *Document) RemoveValue(slot domain.Slot) {
	delete(d.values, slot)
	d.touch()
}

// ClearValues clears every slot.
func (d *Document) ClearValues() {
	d.values = make(map[domain.Slot][]byte)
	d.touch()
}

// ValueCount returns the number of set slots.
func (d *Document) ValueCount() int {
	return len(d.values)
}

// Slots returns the set slots in ascending order.
func (d *Document) Slots() []domain.Slot {
	slots := make([]domain.Slot, 0, len(d.values))
	for s := range d.values {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// Clone returns a deep copy detached from any database.
func (d *Document) Clone() *Document {
	c := &Document{
		id:     d.id,
		data:   append([]byte(nil), d.data...),
		terms:  make(map[string]*posting, len(d.terms)),
		values: make(map[domain.Slot][]byte, len(d.values)),
	}
	for t, p := range d.terms {
		c.terms[t] = p.clone()
	}
	for s, v := range d.values {
		c.values[s] = append([]byte(nil), v...)
	}
	c.rev.Store(d.rev.Load())
	return c
}

// withID returns a shallow copy under id that shares terms and values.
func (d *Document) withID(id domain.DocID) *Document {
	c := &Document{id: id, data: d.data, terms: d.terms, values: d.values}
	c.rev.Store(d.rev.Load())
	return c
}

func (d *Document) sortedTerms() []string {
	terms := make([]string, 0, len(d.terms))
	for t := range d.terms {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// TermList returns the document's terms in ascending order.
func (d *Document) TermList() *TermList {
	terms := d.sortedTerms()
	entries := make([]TermEntry, len(terms))
	key := sequenceKey("doc", fmt.Sprintf("%p", d), d.Revision())
	if d.source != nil {
		key = sequenceKey(d.sourceKey, d.Revision())
	}
	for i, t := range terms {
		p := d.terms[t]
		entries[i] = TermEntry{
			Term:      t,
			Wdf:       p.wdf,
			TermFreq:  d.termFreqs[t],
			Positions: append([]domain.TermPos(nil), p.positions...),
		}
	}
	return newTermList(key, entries)
}

// Positions returns the positions of term in this document.
func (d *Document) Positions(term string) (*PositionList, error) {
	p, ok := d.terms[term]
	if !ok {
		return nil, fmt.Errorf("term %q %w", term, domain.ErrNotFound)
	}
	key := sequenceKey("docpos", fmt.Sprintf("%p", d), d.Revision(), term)
	return newPositionList(key, p.positions), nil
}

func (d *Document) toStored() domain.StoredDocument {
	sd := domain.StoredDocument{
		ID:     d.id,
		Data:   append([]byte(nil), d.data...),
		Terms:  make([]domain.StoredTerm, 0, len(d.terms)),
		Values: make(map[domain.Slot][]byte, len(d.values)),
	}
	for _, t := range d.sortedTerms() {
		p := d.terms[t]
		sd.Terms = append(sd.Terms, domain.StoredTerm{
			Term:      t,
			Wdf:       p.wdf,
			Positions: append([]domain.TermPos(nil), p.positions...),
		})
	}
	for s, v := range d.values {
		sd.Values[s] = append([]byte(nil), v...)
	}
	return sd
}

func documentFromStored(sd domain.StoredDocument) *Document {
	d := NewDocument()
	d.id = sd.ID
	d.data = append([]byte(nil), sd.Data...)
	for _, t := range sd.Terms {
		p := &posting{wdf: t.Wdf}
		if len(t.Positions) > 0 {
			p.positions = append([]domain.TermPos(nil), t.Positions...)
			sort.Slice(p.positions, func(i, j int) bool { return p.positions[i] < p.positions[j] })
		}
		d.terms[t.Term] = p
	}
	for s, v := range sd.Values {
		d.values[s] = append([]byte(nil), v...)
	}
	return d
}
