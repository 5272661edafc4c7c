package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/english"
	"github.com/blevesearch/snowballstem/french"
	"github.com/blevesearch/snowballstem/german"
	"github.com/blevesearch/snowballstem/spanish"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

const stemCacheSize = 4096

var stemmers = map[string]func(*snowballstem.Env) bool{
	"english": english.Stem,
	"en":      english.Stem,
	"french":  french.Stem,
	"fr":      french.Stem,
	"german":  german.Stem,
	"de":      german.Stem,
	"spanish": spanish.Stem,
	"es":      spanish.Stem,
}

// StemLanguages lists the accepted language names.
func StemLanguages() []string {
	langs := make([]string, 0, len(stemmers)+1)
	for l := range stemmers {
		langs = append(langs, l)
	}
	langs = append(langs, "none")
	sort.Strings(langs)
	return langs
}

// Stem reduces words to their stems with a snowball algorithm.
// It is safe for concurrent use.
type Stem struct {
	language string
	algo     func(*snowballstem.Env) bool
	cache    *lru.Cache[string, string]
}

// NewStem returns a stemmer for language. "none" or "" give a stemmer that
// returns words unchanged.
func NewStem(language string) (*Stem, error) {
	language = strings.ToLower(language)
	if language == "" || language == "none" {
		return &Stem{language: "none"}, nil
	}
	algo, ok := stemmers[language]
	if !ok {
		return nil, fmt.Errorf("%w: unknown stemming language %q", domain.ErrInvalidInput, language)
	}
	cache, err := lru.New[string, string](stemCacheSize)
	if err != nil {
		return nil, err
	}
	return &Stem{language: language, algo: algo, cache: cache}, nil
}

// Language returns the stemmer's language, or "none".
func (s *Stem) Language() string {
	return s.language
}

// IsNone reports whether the stemmer leaves words unchanged.
func (s *Stem) IsNone() bool {
	return s == nil || s.algo == nil
}

// Stem returns the stem of word.
func (s *Stem) Stem(word string) string {
	if s.IsNone() || word == "" {
		return word
	}
	if stem, ok := s.cache.Get(word); ok {
		return stem
	}
	env := snowballstem.NewEnv(word)
	s.algo(env)
	stem := env.Current()
	s.cache.Add(word, stem)
	return stem
}

// String describes the stemmer.
func (s *Stem) String() string {
	return "Stem(" + s.Language() + ")"
}
