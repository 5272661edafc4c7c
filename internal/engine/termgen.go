package engine

import (
	"fmt"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// TermGenFlags tune a TermGenerator.
type TermGenFlags uint32

// TermGenSpelling records unprefixed words in the database's spelling dictionary.
const TermGenSpelling TermGenFlags = 1

// TermGenerator turns free text into terms on a Document.
type TermGenerator struct {
	doc          *Document
	db           *WritableDatabase
	stem         *Stem
	stemStrategy domain.StemStrategy
	stopper      Stopper
	stopStrategy domain.StopStrategy
	flags        TermGenFlags
	termpos      domain.TermPos
}

// NewTermGenerator returns a generator with no stemming and no stopper.
func NewTermGenerator() *TermGenerator {
	return &TermGenerator{stemStrategy: domain.StemSome, stopStrategy: domain.StopAll}
}

// SetDocument sets the document to add terms to and resets the position.
func (g *TermGenerator) SetDocument(doc *Document) {
	g.doc = doc
	g.termpos = 0
}

// Document returns the current document.
func (g *TermGenerator) Document() *Document {
	return g.doc
}

// SetDatabase sets the database used for spelling data.
func (g *TermGenerator) SetDatabase(db *WritableDatabase) {
	g.db = db
}

// SetStemmer sets the stemmer.
func (g *TermGenerator) SetStemmer(s *Stem) {
	g.stem = s
}

// SetStemmingStrategy selects which terms are stemmed.
func (g *TermGenerator) SetStemmingStrategy(s domain.StemStrategy) {
	g.stemStrategy = s
}

// SetStopper sets the stopword predicate.
func (g *TermGenerator) SetStopper(s Stopper) {
	g.stopper = s
}

// SetStopperStrategy selects what happens to stopwords.
func (g *TermGenerator) SetStopperStrategy(s domain.StopStrategy) {
	g.stopStrategy = s
}

// SetFlags replaces the flags.
func (g *TermGenerator) SetFlags(f TermGenFlags) {
	g.flags = f
}

// Termpos returns the position of the last indexed word.
func (g *TermGenerator) Termpos() domain.TermPos {
	return g.termpos
}

// SetTermpos sets the position counter.
func (g *TermGenerator) SetTermpos(p domain.TermPos) {
	g.termpos = p
}

// IncreaseTermpos leaves a gap so phrases cannot span two pieces of text.
func (g *TermGenerator) IncreaseTermpos(delta domain.TermPos) {
	g.termpos += delta
}

// IndexText indexes text with positional information.
func (g *TermGenerator) IndexText(text string, wdfInc uint32, prefix string) error {
	return g.index(text, wdfInc, prefix, true)
}

// IndexTextWithoutPositions indexes text recording only wdf.
func (g *TermGenerator) IndexTextWithoutPositions(text string, wdfInc uint32, prefix string) error {
	return g.index(text, wdfInc, prefix, false)
}

func (g *TermGenerator) index(text string, wdfInc uint32, prefix string, withPositions bool) error {
	if g.doc == nil {
		return fmt.Errorf("%w: term generator has no document", domain.ErrInvalidState)
	}
	stemming := g.stemStrategy != domain.StemNone && !g.stem.IsNone()
	for _, w := range splitWords(text) {
		if len(w.lower) > maxWordLength {
			continue
		}
		g.termpos++
		stopped := false
		if g.stopper != nil && g.stopStrategy != domain.StopNone {
			var err error
			stopped, err = g.stopper.IsStopword(w.lower)
			if err != nil {
				return err
			}
			if stopped && g.stopStrategy == domain.StopAll {
				continue
			}
		}

		stemThis := stemming && !stopped && !startsDigit(w.lower)
		if !stemThis || (g.stemStrategy != domain.StemAll && g.stemStrategy != domain.StemAllZ) {
			g.add(prefix+w.lower, wdfInc, withPositions)
		}
		if g.flags&TermGenSpelling != 0 && g.db != nil && prefix == "" {
			if err := g.db.AddSpelling(w.lower, 1); err != nil {
				return err
			}
		}

		if !stemThis {
			continue
		}
		stem := g.stem.Stem(w.lower)
		switch g.stemStrategy {
		case domain.StemSome:
			g.doc.AddTerm("Z"+prefix+stem, wdfInc)
		case domain.StemSomeFullPos:
			g.add("Z"+prefix+stem, wdfInc, withPositions)
		case domain.StemAll:
			g.add(prefix+stem, wdfInc, withPositions)
		case domain.StemAllZ:
			g.add("Z"+prefix+stem, wdfInc, withPositions)
		}
	}
	return nil
}

func (g *TermGenerator) add(term string, wdfInc uint32, withPositions bool) {
	if withPositions {
		g.doc.AddPosting(term, g.termpos, wdfInc)
	} else {
		g.doc.AddTerm(term, wdfInc)
	}
}
