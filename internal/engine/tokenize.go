package engine

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// maxWordLength is the longest word, in bytes, that is indexed.
const maxWordLength = 64

var wordTokenizer analysis.Tokenizer = bleveunicode.NewUnicodeTokenizer()

// word is a token with its byte span in the source text.
type word struct {
	text  string
	lower string
	start int
	end   int
}

// splitWords segments text into words using Unicode word boundaries.
func splitWords(text string) []word {
	stream := wordTokenizer.Tokenize([]byte(text))
	words := make([]word, 0, len(stream))
	for _, tok := range stream {
		w := string(tok.Term)
		if !hasWordRune(w) {
			continue
		}
		words = append(words, word{
			text:  w,
			lower: strings.ToLower(w),
			start: tok.Start,
			end:   tok.End,
		})
	}
	return words
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// startsUpper reports whether s begins with an upper-case letter.
func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// startsDigit reports whether s begins with a digit.
func startsDigit(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsDigit(r)
}
