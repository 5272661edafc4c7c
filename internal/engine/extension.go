package engine

import "github.com/custodia-labs/sercha-engine/internal/core/domain"

// The matcher, parser and term generator call these interfaces
// synchronously, on the goroutine that started the operation. A returned
// error aborts the whole operation.

// ExpandDecider filters candidate expansion terms.
type ExpandDecider interface {
	KeepTerm(term string) (bool, error)
}

// FieldProcessor turns the text following a field prefix into a query.
// A nil query matches nothing.
type FieldProcessor interface {
	ProcessField(text string) (*Query, error)
}

// MatchDecider accepts or rejects each candidate document.
type MatchDecider interface {
	AcceptDocument(doc *Document) (bool, error)
}

// MatchSpy observes every document the matcher confirms.
type MatchSpy interface {
	Name() string
	Observe(doc *Document, weight float64) error
}

// RangeProcessor turns a "begin..end" expression into a value query. It
// returns nil, or an OpInvalid query, when the expression is not for it;
// the parser then tries the next processor.
type RangeProcessor interface {
	Slot() domain.Slot
	Marker() string
	Flags() RangeFlags
	ProcessRange(begin, end string) (*Query, error)
}

// Stopper identifies stopwords.
type Stopper interface {
	IsStopword(term string) (bool, error)
}

// SimpleStopper is a fixed stoplist.
type SimpleStopper struct {
	words map[string]struct{}
}

var _ Stopper = (*SimpleStopper)(nil)

// NewSimpleStopper returns a stopper for words.
func NewSimpleStopper(words ...string) *SimpleStopper {
	s := &SimpleStopper{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		s.Add(w)
	}
	return s
}

// Add adds a stopword.
func (s *SimpleStopper) Add(word string) {
	s.words[word] = struct{}{}
}

// IsStopword reports whether term is in the stoplist.
func (s *SimpleStopper) IsStopword(term string) (bool, error) {
	_, ok := s.words[term]
	return ok, nil
}

// Len returns the number of stopwords.
func (s *SimpleStopper) Len() int {
	return len(s.words)
}
