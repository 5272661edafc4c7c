package bridge

import (
	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/engine"
)

// Host-side extension points. Each has a single decision method; a
// returned error fails the engine operation that invoked it.

// ExpandDecider decides whether a candidate expansion term is kept.
type ExpandDecider interface {
	KeepTerm(term string) (bool, error)
}

// FieldProcessor turns the text after a field prefix into a query. A nil
// query means nothing can match.
type FieldProcessor interface {
	ProcessField(text string) (*engine.Query, error)
}

// MatchDecider decides whether a candidate document counts as a match.
type MatchDecider interface {
	AcceptDocument(doc DocumentView) (bool, error)
}

// MatchSpy observes each document the matcher visits.
type MatchSpy interface {
	Observe(doc DocumentView, weight float64) error
}

// RangeProcessor turns the bounds of a range expression, with the marker
// already removed, into a query. A nil query declines the range.
type RangeProcessor interface {
	ProcessRange(begin, end string) (*engine.Query, error)
}

// Stopper decides whether a word is a stopword.
type Stopper interface {
	IsStopword(term string) (bool, error)
}

// ExpandDeciderFunc adapts a function to ExpandDecider.
type ExpandDeciderFunc func(term string) (bool, error)

// KeepTerm calls f.
func (f ExpandDeciderFunc) KeepTerm(term string) (bool, error) { return f(term) }

// FieldProcessorFunc adapts a function to FieldProcessor.
type FieldProcessorFunc func(text string) (*engine.Query, error)

// ProcessField calls f.
func (f FieldProcessorFunc) ProcessField(text string) (*engine.Query, error) { return f(text) }

// MatchDeciderFunc adapts a function to MatchDecider.
type MatchDeciderFunc func(doc DocumentView) (bool, error)

// AcceptDocument calls f.
func (f MatchDeciderFunc) AcceptDocument(doc DocumentView) (bool, error) { return f(doc) }

// MatchSpyFunc adapts a function to MatchSpy.
type MatchSpyFunc func(doc DocumentView, weight float64) error

// Observe calls f.
func (f MatchSpyFunc) Observe(doc DocumentView, weight float64) error { return f(doc, weight) }

// RangeProcessorFunc adapts a function to RangeProcessor.
type RangeProcessorFunc func(begin, end string) (*engine.Query, error)

// ProcessRange calls f.
func (f RangeProcessorFunc) ProcessRange(begin, end string) (*engine.Query, error) {
	return f(begin, end)
}

// StopperFunc adapts a function to Stopper.
type StopperFunc func(term string) (bool, error)

// IsStopword calls f.
func (f StopperFunc) IsStopword(term string) (bool, error) { return f(term) }

// DocumentView is the read-only face of a document handed to host callbacks.
type DocumentView struct {
	doc *engine.Document
}

// ID returns the document id.
func (v DocumentView) ID() domain.DocID {
	return v.doc.ID()
}

// Data returns a copy of the document data.
func (v DocumentView) Data() []byte {
	return v.doc.Data()
}

// Value returns the value in slot, or nil.
func (v DocumentView) Value(slot domain.Slot) []byte {
	return v.doc.Value(slot)
}

// HasTerm reports whether the document indexes term.
func (v DocumentView) HasTerm(term string) bool {
	return v.doc.HasTerm(term)
}

// Terms returns cursors over the document's terms.
func (v DocumentView) Terms() (begin, end TermCursor) {
	return TermList(v.doc)
}

// Copy returns an independent deep copy of the viewed document.
func (v DocumentView) Copy() *engine.Document {
	return CopyDocument(v.doc)
}
