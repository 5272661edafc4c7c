package engine

import (
	"strings"
	"unicode"
)

// Snippet returns the part of text, at most length bytes of words, that
// contains the most query terms. Matching words are wrapped in hiStart and
// hiEnd; omit marks text cut from either end. A non-positive length keeps
// the whole text. stem may be nil.
func (m *MSet) Snippet(text string, length int, stem *Stem, hiStart, hiEnd, omit string) string {
	words := splitWords(text)
	if len(words) == 0 {
		return ""
	}
	plain, stemmed := snippetTerms(m.terms)
	hit := make([]bool, len(words))
	for i, w := range words {
		_, ok := plain[w.lower]
		if !ok && !stem.IsNone() {
			s := stem.Stem(w.lower)
			_, ok = stemmed[s]
			if !ok {
				_, ok = plain[s]
			}
		}
		hit[i] = ok
	}

	first, last := 0, len(words)-1
	if length > 0 {
		first, last = bestWindow(words, hit, length)
	}

	var b strings.Builder
	if first > 0 {
		b.WriteString(omit)
	}
	pos := words[first].start
	for i := first; i <= last; i++ {
		w := words[i]
		b.WriteString(text[pos:w.start])
		if hit[i] {
			b.WriteString(hiStart)
			b.WriteString(text[w.start:w.end])
			b.WriteString(hiEnd)
		} else {
			b.WriteString(text[w.start:w.end])
		}
		pos = w.end
	}
	if last < len(words)-1 {
		b.WriteString(omit)
	}
	return b.String()
}

// bestWindow picks the word range fitting in length bytes with the most
// hits, preferring the earliest. It always includes at least one word.
func bestWindow(words []word, hit []bool, length int) (int, int) {
	bestFirst, bestLast, bestHits := 0, 0, -1
	for i := range words {
		hits, j := 0, i
		for ; j < len(words); j++ {
			if j > i && words[j].end-words[i].start > length {
				break
			}
			if hit[j] {
				hits++
			}
		}
		if hits > bestHits {
			bestFirst, bestLast, bestHits = i, j-1, hits
		}
	}
	return bestFirst, bestLast
}

// snippetTerms strips prefixes from query terms. Terms starting with Z are
// stemmed forms.
func snippetTerms(terms []string) (plain, stemmed map[string]struct{}) {
	plain = make(map[string]struct{})
	stemmed = make(map[string]struct{})
	for _, t := range terms {
		if strings.HasPrefix(t, "Z") {
			stemmed[stripPrefix(t[1:])] = struct{}{}
			continue
		}
		plain[stripPrefix(t)] = struct{}{}
	}
	return plain, stemmed
}

// stripPrefix drops a leading run of upper-case ASCII letters and a colon.
func stripPrefix(term string) string {
	i := strings.IndexFunc(term, func(r rune) bool {
		return r > unicode.MaxASCII || !unicode.IsUpper(r)
	})
	if i < 0 {
		return ""
	}
	return strings.TrimPrefix(term[i:], ":")
}
