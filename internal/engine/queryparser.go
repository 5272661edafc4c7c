package engine

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// ParseFlags enable query syntax features.
type ParseFlags uint32

// Parse flags.
const (
	// FlagBoolean recognises AND, OR, NOT, XOR and parentheses.
	FlagBoolean ParseFlags = 1 << iota
	// FlagPhrase turns quoted and hyphenated words into phrase queries.
	FlagPhrase
	// FlagLoveHate recognises +required and -excluded terms.
	FlagLoveHate
	// FlagBooleanAnyCase accepts boolean operators in any case.
	FlagBooleanAnyCase
	// FlagWildcard expands a trailing * against the index.
	FlagWildcard
	// FlagPureNot allows queries consisting only of excluded terms.
	FlagPureNot
	// FlagSynonym expands ~word with the database's synonyms.
	FlagSynonym
)

// FlagDefault is the flag set used by most callers.
const FlagDefault = FlagBoolean | FlagPhrase | FlagLoveHate

type fieldRule struct {
	prefix   string
	proc     FieldProcessor
	boolean  bool
	grouping string
}

type rangeRule struct {
	proc     RangeProcessor
	grouping string
}

// QueryParser turns user query strings into Query trees.
// A QueryParser is not safe for concurrent use.
type QueryParser struct {
	stem          *Stem
	strategy      domain.StemStrategy
	stopper       Stopper
	db            *Database
	defaultOp     Op
	fields        map[string][]fieldRule
	ranges        []rangeRule
	maxWildcard   int
	wildcardLimit WildcardLimit

	stoplist []string
	unstem   map[string][]string
}

// NewQueryParser returns a parser with OR as the default operator and no stemming.
func NewQueryParser() *QueryParser {
	return &QueryParser{
		strategy:  domain.StemSome,
		defaultOp: OpOr,
		fields:    make(map[string][]fieldRule),
		unstem:    make(map[string][]string),
	}
}

// SetStemmer sets the stemmer.
func (qp *QueryParser) SetStemmer(s *Stem) {
	qp.stem = s
}

// SetStemmingStrategy selects which words are stemmed.
func (qp *QueryParser) SetStemmingStrategy(s domain.StemStrategy) {
	qp.strategy = s
}

// SetStopper sets the stopword predicate applied to unquoted optional words.
func (qp *QueryParser) SetStopper(s Stopper) {
	qp.stopper = s
}

// SetDatabase sets the database used for wildcard expansion and synonyms.
func (qp *QueryParser) SetDatabase(db *Database) {
	qp.db = db
}

// SetDefaultOp sets the operator joining words with no explicit operator.
func (qp *QueryParser) SetDefaultOp(op Op) error {
	switch op {
	case OpAnd, OpOr, OpMax, OpSynonym, OpEliteSet:
		qp.defaultOp = op
		return nil
	default:
		return fmt.Errorf("%w: default operator %s", domain.ErrInvalidInput, op)
	}
}

// DefaultOp returns the default operator.
func (qp *QueryParser) DefaultOp() Op {
	return qp.defaultOp
}

// SetMaxWildcardExpansion bounds wildcard expansion. Zero means unlimited.
func (qp *QueryParser) SetMaxWildcardExpansion(n int, limit WildcardLimit) {
	qp.maxWildcard = n
	qp.wildcardLimit = limit
}

func (qp *QueryParser) addRule(field string, rule fieldRule) error {
	if field == "" {
		return fmt.Errorf("%w: empty field name", domain.ErrInvalidInput)
	}
	if existing := qp.fields[field]; len(existing) > 0 && existing[0].boolean != rule.boolean {
		return fmt.Errorf("%w: field %q mixes boolean and free-text prefixes", domain.ErrInvalidInput, field)
	}
	qp.fields[field] = append(qp.fields[field], rule)
	return nil
}

// AddPrefix maps a free-text field name to a term prefix. A field may map
// to several prefixes; its words then match any of them.
func (qp *QueryParser) AddPrefix(field, prefix string) error {
	return qp.addRule(field, fieldRule{prefix: prefix})
}

// AddFieldProcessor routes the text after field: to fp.
func (qp *QueryParser) AddFieldProcessor(field string, fp FieldProcessor) error {
	return qp.addRule(field, fieldRule{proc: fp})
}

// AddBooleanPrefix maps a field to a boolean filter prefix. Filters with the
// same grouping are ORed together and groups are ANDed. An empty grouping
// uses the field name.
func (qp *QueryParser) AddBooleanPrefix(field, prefix, grouping string) error {
	if grouping == "" {
		grouping = field
	}
	return qp.addRule(field, fieldRule{prefix: prefix, boolean: true, grouping: grouping})
}

// AddBooleanFieldProcessor routes the text after field: to fp and uses the
// result as a filter.
func (qp *QueryParser) AddBooleanFieldProcessor(field string, fp FieldProcessor, grouping string) error {
	if grouping == "" {
		grouping = field
	}
	return qp.addRule(field, fieldRule{proc: fp, boolean: true, grouping: grouping})
}

// AddRangeProcessor appends a range processor. Processors are tried in the
// order they were added. An empty grouping gives each slot its own group.
func (qp *QueryParser) AddRangeProcessor(rp RangeProcessor, grouping string) {
	if grouping == "" {
		grouping = fmt.Sprintf("range:%d", rp.Slot())
	}
	qp.ranges = append(qp.ranges, rangeRule{proc: rp, grouping: grouping})
}

// Stoplist returns the stopwords dropped by the last parse.
func (qp *QueryParser) Stoplist() []string {
	return append([]string(nil), qp.stoplist...)
}

// Unstem returns the words that produced a stemmed term in the last parse.
func (qp *QueryParser) Unstem(term string) []string {
	return append([]string(nil), qp.unstem[term]...)
}

// ParseQuery parses text. Words without a field use defaultPrefix.
// An empty query matches nothing. Malformed input fails with ErrQuerySyntax;
// errors returned by extension points are passed through.
func (qp *QueryParser) ParseQuery(text string, flags ParseFlags, defaultPrefix string) (*Query, error) {
	qp.stoplist = nil
	qp.unstem = make(map[string][]string)

	p := &parser{qp: qp, toks: qp.lex(text, flags), flags: flags, defaultPrefix: defaultPrefix}
	q, _, err := p.parseOr("")
	if err != nil {
		return nil, err
	}
	if p.i < len(p.toks) {
		return nil, fmt.Errorf("%w: unexpected %s", domain.ErrQuerySyntax, p.toks[p.i].kind)
	}
	if q == nil {
		q = MatchNothing()
	}
	log.Debug("parsed %q as %s", text, q)
	return q, nil
}

// BooleanTerm builds the term for a boolean filter value. A colon separates
// a multi-character prefix from a value starting with an upper-case letter.
func BooleanTerm(prefix, value string) string {
	if len(prefix) > 1 && startsUpper(value) {
		return prefix + ":" + value
	}
	return prefix + value
}

type tokKind int

const (
	tkWord tokKind = iota
	tkPhrase
	tkWildcard
	tkRange
	tkBoolean
	tkFieldProc
	tkLParen
	tkRParen
	tkAnd
	tkOr
	tkNot
	tkXor
	tkLove
	tkHate
	tkSynonym
)

var tokNames = [...]string{"word", "phrase", "wildcard", "range", "filter", "field",
	"'('", "')'", "AND", "OR", "NOT", "XOR", "'+'", "'-'", "'~'"}

func (k tokKind) String() string {
	return tokNames[k]
}

type qtoken struct {
	kind       tokKind
	words      []word
	raw        string
	field      string
	begin, end string
}

func isSpaceByte(s string, i int) bool {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsSpace(r)
}

func (qp *QueryParser) lex(s string, flags ParseFlags) []qtoken {
	var toks []qtoken
	pendingField := ""
	i := 0
	for i < len(s) {
		if isSpaceByte(s, i) {
			_, size := utf8.DecodeRuneInString(s[i:])
			i += size
			pendingField = ""
			continue
		}
		c := s[i]
		switch {
		case c == '(' && flags&FlagBoolean != 0:
			toks = append(toks, qtoken{kind: tkLParen, field: pendingField})
			pendingField = ""
			i++
			continue
		case c == ')' && flags&FlagBoolean != 0:
			toks = append(toks, qtoken{kind: tkRParen})
			i++
			continue
		case c == '"':
			j := strings.IndexByte(s[i+1:], '"')
			var text string
			if j < 0 {
				text, i = s[i+1:], len(s)
			} else {
				text, i = s[i+1:i+1+j], i+2+j
			}
			toks = append(toks, qp.quoted(text, pendingField))
			pendingField = ""
			continue
		case (c == '+' || c == '-') && flags&FlagLoveHate != 0 && i+1 < len(s) && !isSpaceByte(s, i+1):
			kind := tkLove
			if c == '-' {
				kind = tkHate
			}
			toks = append(toks, qtoken{kind: kind})
			i++
			continue
		case c == '~' && flags&FlagSynonym != 0 && i+1 < len(s) && !isSpaceByte(s, i+1):
			toks = append(toks, qtoken{kind: tkSynonym})
			i++
			continue
		}

		j := i
		for j < len(s) && !isSpaceByte(s, j) && s[j] != '"' &&
			!(flags&FlagBoolean != 0 && (s[j] == '(' || s[j] == ')')) {
			_, size := utf8.DecodeRuneInString(s[j:])
			j += size
		}
		chunk := s[i:j]
		i = j
		var next byte
		if i < len(s) {
			next = s[i]
		}
		tok, field, ok := qp.lexChunk(chunk, next, flags)
		if field != "" {
			pendingField = field
			continue
		}
		pendingField = ""
		if ok {
			toks = append(toks, tok)
		}
	}
	return toks
}

// quoted builds the token for "text", optionally after field:.
func (qp *QueryParser) quoted(text, field string) qtoken {
	if rules := qp.fields[field]; field != "" && len(rules) > 0 {
		if rules[0].boolean {
			return qtoken{kind: tkBoolean, field: field, raw: text}
		}
		if rules[0].proc != nil {
			return qtoken{kind: tkFieldProc, field: field, raw: text}
		}
	}
	return qtoken{kind: tkPhrase, field: field, words: splitWords(text)}
}

// lexChunk classifies a run of non-space characters. A non-empty field
// result means the chunk was "field:" introducing a quote or a group.
func (qp *QueryParser) lexChunk(chunk string, next byte, flags ParseFlags) (qtoken, string, bool) {
	field := ""
	if k := strings.IndexByte(chunk, ':'); k > 0 {
		name := chunk[:k]
		if rules := qp.fields[name]; len(rules) > 0 {
			rest := chunk[k+1:]
			switch {
			case rest == "" && next == '"':
				return qtoken{}, name, false
			case rest == "" && next == '(' && flags&FlagBoolean != 0 && !rules[0].boolean && rules[0].proc == nil:
				return qtoken{}, name, false
			case rest == "":
			case rules[0].boolean:
				return qtoken{kind: tkBoolean, field: name, raw: rest}, "", true
			case rules[0].proc != nil:
				return qtoken{kind: tkFieldProc, field: name, raw: rest}, "", true
			default:
				field, chunk = name, rest
			}
		}
	}

	if flags&FlagBoolean != 0 && field == "" {
		op := chunk
		if flags&FlagBooleanAnyCase != 0 {
			op = strings.ToUpper(op)
		}
		switch op {
		case "AND":
			return qtoken{kind: tkAnd}, "", true
		case "OR":
			return qtoken{kind: tkOr}, "", true
		case "NOT":
			return qtoken{kind: tkNot}, "", true
		case "XOR":
			return qtoken{kind: tkXor}, "", true
		}
	}

	if field == "" && len(qp.ranges) > 0 {
		if k := strings.Index(chunk, ".."); k >= 0 {
			return qtoken{kind: tkRange, begin: chunk[:k], end: chunk[k+2:]}, "", true
		}
	}

	if flags&FlagWildcard != 0 && len(chunk) > 1 && strings.HasSuffix(chunk, "*") {
		ws := splitWords(strings.TrimSuffix(chunk, "*"))
		if len(ws) == 1 {
			return qtoken{kind: tkWildcard, field: field, words: ws}, "", true
		}
	}

	ws := splitWords(chunk)
	switch len(ws) {
	case 0:
		return qtoken{}, "", false
	case 1:
		return qtoken{kind: tkWord, field: field, words: ws}, "", true
	default:
		return qtoken{kind: tkPhrase, field: field, words: ws}, "", true
	}
}

type parser struct {
	qp            *QueryParser
	toks          []qtoken
	i             int
	flags         ParseFlags
	defaultPrefix string
	termpos       domain.TermPos
}

func (p *parser) peek() (tokKind, bool) {
	if p.i >= len(p.toks) {
		return 0, false
	}
	return p.toks[p.i].kind, true
}

func (p *parser) at(kind tokKind) bool {
	k, ok := p.peek()
	return ok && k == kind
}

func syntaxError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrQuerySyntax, fmt.Sprintf(format, args...))
}

// binary parses operand (op operand)*. consumed reports whether any token was used.
func (p *parser) binary(field string, op tokKind, qop Op, operand func(string) (*Query, bool, error)) (*Query, bool, error) {
	left, consumed, err := operand(field)
	if err != nil {
		return nil, false, err
	}
	for p.at(op) {
		if !consumed {
			return nil, false, syntaxError("%s without a left operand", op)
		}
		p.i++
		right, ok, err := operand(field)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, syntaxError("%s without a right operand", op)
		}
		left, err = combineOptional(qop, left, right)
		if err != nil {
			return nil, false, err
		}
	}
	return left, consumed, nil
}

func combineOptional(op Op, a, b *Query) (*Query, error) {
	switch {
	case a == nil:
		return b, nil
	case b == nil:
		return a, nil
	}
	return NewQuery(op, a, b)
}

func (p *parser) parseOr(field string) (*Query, bool, error) {
	return p.binary(field, tkOr, OpOr, p.parseXor)
}

func (p *parser) parseXor(field string) (*Query, bool, error) {
	return p.binary(field, tkXor, OpXor, p.parseAnd)
}

func (p *parser) parseAnd(field string) (*Query, bool, error) {
	return p.binary(field, tkAnd, OpAnd, p.parseNot)
}

func (p *parser) parseNot(field string) (*Query, bool, error) {
	left, consumed, err := p.parseSeq(field)
	if err != nil {
		return nil, false, err
	}
	for p.at(tkNot) {
		p.i++
		right, ok, err := p.parseSeq(field)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, syntaxError("NOT without an operand")
		}
		if left == nil {
			if !consumed && p.flags&FlagPureNot == 0 {
				return nil, false, syntaxError("NOT without a left operand")
			}
			left = MatchAll()
		}
		consumed = true
		if right != nil {
			if left, err = NewQuery(OpAndNot, left, right); err != nil {
				return nil, false, err
			}
		}
	}
	return left, consumed, nil
}

// seq accumulates the units of an implicit default-operator sequence.
type seq struct {
	required []*Query
	optional []*Query
	excluded []*Query
	filters  map[string][]*Query
	stopped  []*Query
}

func (s *seq) addFilter(grouping string, q *Query) {
	if s.filters == nil {
		s.filters = make(map[string][]*Query)
	}
	s.filters[grouping] = append(s.filters[grouping], q)
}

func (p *parser) endOfSeq() bool {
	k, ok := p.peek()
	if !ok {
		return true
	}
	switch k {
	case tkAnd, tkOr, tkNot, tkXor, tkRParen:
		return true
	}
	return false
}

func (p *parser) parseSeq(field string) (*Query, bool, error) {
	var s seq
	consumed := false
	mark := len(p.qp.stoplist)
	for !p.endOfSeq() {
		consumed = true
		mod := tkWord
		if p.at(tkLove) || p.at(tkHate) {
			mod = p.toks[p.i].kind
			p.i++
		}
		synonym := false
		if p.at(tkSynonym) {
			synonym = true
			p.i++
		}
		if p.endOfSeq() {
			break
		}
		tok := p.toks[p.i]
		p.i++

		var q *Query
		var err error
		switch tok.kind {
		case tkLParen:
			sub := tok.field
			if sub == "" {
				sub = field
			}
			q, _, err = p.parseOr(sub)
			if err != nil {
				return nil, false, err
			}
			if !p.at(tkRParen) {
				return nil, false, syntaxError("unbalanced '('")
			}
			p.i++
		case tkWord:
			w := tok.words[0]
			f := pick(tok.field, field)
			if mod == tkWord && !synonym {
				stop, err := p.isStop(w.lower)
				if err != nil {
					return nil, false, err
				}
				if stop {
					s.stopped = append(s.stopped, p.wordQuery(w, f, false, false))
					p.qp.stoplist = append(p.qp.stoplist, w.lower)
					continue
				}
			}
			q = p.wordQuery(w, f, false, synonym)
		case tkPhrase:
			q, err = p.phraseQuery(tok.words, pick(tok.field, field))
		case tkWildcard:
			q, err = p.wildcardQuery(tok.words[0], pick(tok.field, field))
		case tkBoolean:
			grouping, bq := p.booleanQuery(tok)
			if mod == tkHate {
				s.excluded = append(s.excluded, bq)
			} else {
				s.addFilter(grouping, bq)
			}
			continue
		case tkFieldProc:
			rule := p.qp.fields[tok.field][0]
			q, err = rule.proc.ProcessField(tok.raw)
			if err != nil {
				return nil, false, err
			}
			if q == nil {
				q = MatchNothing()
			}
			if rule.boolean && mod != tkHate {
				s.addFilter(rule.grouping, q)
				continue
			}
		case tkRange:
			grouping, rq, err := p.rangeQuery(tok.begin, tok.end)
			if err != nil {
				return nil, false, err
			}
			if mod == tkHate {
				s.excluded = append(s.excluded, rq)
			} else {
				s.addFilter(grouping, rq)
			}
			continue
		default:
			return nil, false, syntaxError("unexpected %s", tok.kind)
		}
		if err != nil {
			return nil, false, err
		}
		if q == nil {
			continue
		}
		switch mod {
		case tkLove:
			s.required = append(s.required, q)
		case tkHate:
			s.excluded = append(s.excluded, q)
		default:
			s.optional = append(s.optional, q)
		}
	}
	q, err := p.compose(&s, mark)
	return q, consumed, err
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func (p *parser) isStop(w string) (bool, error) {
	if p.qp.stopper == nil {
		return false, nil
	}
	return p.qp.stopper.IsStopword(w)
}

// compose joins a sequence. A sequence made only of stopwords keeps them.
func (p *parser) compose(s *seq, mark int) (*Query, error) {
	if len(s.required) == 0 && len(s.optional) == 0 && len(s.filters) == 0 && len(s.excluded) == 0 {
		s.optional = s.stopped
		p.qp.stoplist = p.qp.stoplist[:mark]
	}

	var base *Query
	var err error
	switch {
	case p.qp.defaultOp == OpAnd:
		base, err = NewQuery(OpAnd, append(append([]*Query(nil), s.required...), s.optional...)...)
	case len(s.required) > 0 && len(s.optional) > 0:
		var req, opt *Query
		if req, err = NewQuery(OpAnd, s.required...); err != nil {
			return nil, err
		}
		if opt, err = NewQuery(p.qp.defaultOp, s.optional...); err != nil {
			return nil, err
		}
		base, err = NewQuery(OpAndMaybe, req, opt)
	case len(s.required) > 0:
		base, err = NewQuery(OpAnd, s.required...)
	default:
		base, err = NewQuery(p.qp.defaultOp, s.optional...)
	}
	if err != nil {
		return nil, err
	}
	if len(s.required) == 0 && len(s.optional) == 0 {
		base = nil
	}

	if len(s.filters) > 0 {
		groups := make([]string, 0, len(s.filters))
		for g := range s.filters {
			groups = append(groups, g)
		}
		sort.Strings(groups)
		parts := make([]*Query, 0, len(groups))
		for _, g := range groups {
			part, err := NewQuery(OpOr, s.filters[g]...)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		filter, err := NewQuery(OpAnd, parts...)
		if err != nil {
			return nil, err
		}
		if base == nil {
			base = filter
		} else if base, err = NewQuery(OpFilter, base, filter); err != nil {
			return nil, err
		}
	}

	if len(s.excluded) > 0 {
		if base == nil {
			if p.flags&FlagPureNot == 0 {
				return nil, syntaxError("query has only excluded terms")
			}
			base = MatchAll()
		}
		excl, err := NewQuery(OpOr, s.excluded...)
		if err != nil {
			return nil, err
		}
		if base, err = NewQuery(OpAndNot, base, excl); err != nil {
			return nil, err
		}
	}
	return base, nil
}

func (p *parser) prefixes(field string) []string {
	if field == "" {
		return []string{p.defaultPrefix}
	}
	var out []string
	for _, r := range p.qp.fields[field] {
		out = append(out, r.prefix)
	}
	if len(out) == 0 {
		return []string{p.defaultPrefix}
	}
	return out
}

// termFor builds the leaf for one word under one prefix.
func (p *parser) termFor(w word, prefix string, pos domain.TermPos, inPhrase bool) *Query {
	if p.qp.stem.IsNone() || p.qp.strategy == domain.StemNone || startsDigit(w.lower) {
		return NewTermAt(prefix+w.lower, 1, pos)
	}
	switch p.qp.strategy {
	case domain.StemAll:
		return NewTermAt(prefix+p.qp.stem.Stem(w.lower), 1, pos)
	case domain.StemAllZ:
		return NewTermAt("Z"+prefix+p.qp.stem.Stem(w.lower), 1, pos)
	}
	if inPhrase || startsUpper(w.text) {
		return NewTermAt(prefix+w.lower, 1, pos)
	}
	term := "Z" + prefix + p.qp.stem.Stem(w.lower)
	p.qp.unstem[term] = appendUnique(p.qp.unstem[term], w.lower)
	if p.qp.strategy == domain.StemSomeFullPos {
		return NewTermAt(term, 1, pos)
	}
	return NewTermAt(term, 1, 0)
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}

func (p *parser) wordQuery(w word, field string, inPhrase, synonym bool) *Query {
	p.termpos++
	var alts []*Query
	for _, prefix := range p.prefixes(field) {
		q := p.termFor(w, prefix, p.termpos, inPhrase)
		if synonym && p.qp.db != nil {
			syns, err := p.qp.db.Synonyms(w.lower)
			if err == nil && len(syns) > 0 {
				subs := []*Query{q}
				for _, s := range syns {
					subs = append(subs, NewTerm(prefix+s))
				}
				q, _ = NewQuery(OpSynonym, subs...)
			}
		}
		alts = append(alts, q)
	}
	q, _ := NewQuery(OpOr, alts...)
	return q
}

func (p *parser) phraseQuery(words []word, field string) (*Query, error) {
	if len(words) == 0 {
		return nil, nil
	}
	start := p.termpos
	var alts []*Query
	for _, prefix := range p.prefixes(field) {
		terms := make([]*Query, len(words))
		for i, w := range words {
			terms[i] = p.termFor(w, prefix, start+domain.TermPos(i+1), true)
		}
		var q *Query
		var err error
		if p.flags&FlagPhrase != 0 {
			q, err = NewPhrase(0, terms...)
		} else {
			q, err = NewQuery(p.qp.defaultOp, terms...)
		}
		if err != nil {
			return nil, err
		}
		alts = append(alts, q)
	}
	p.termpos = start + domain.TermPos(len(words))
	return NewQuery(OpOr, alts...)
}

func (p *parser) wildcardQuery(w word, field string) (*Query, error) {
	p.termpos++
	var alts []*Query
	for _, prefix := range p.prefixes(field) {
		q, err := NewWildcard(prefix+w.lower+"*", p.qp.maxWildcard, p.qp.wildcardLimit, OpSynonym)
		if err != nil {
			return nil, err
		}
		alts = append(alts, q)
	}
	return NewQuery(OpOr, alts...)
}

func (p *parser) booleanQuery(tok qtoken) (string, *Query) {
	rules := p.qp.fields[tok.field]
	alts := make([]*Query, 0, len(rules))
	for _, r := range rules {
		alts = append(alts, NewTerm(BooleanTerm(r.prefix, tok.raw)))
	}
	q, _ := NewQuery(OpOr, alts...)
	return rules[0].grouping, q
}

func (p *parser) rangeQuery(begin, end string) (string, *Query, error) {
	for _, r := range p.qp.ranges {
		q, err := r.proc.ProcessRange(begin, end)
		if err != nil {
			return "", nil, err
		}
		if q != nil && q.op != OpInvalid {
			return r.grouping, q, nil
		}
	}
	return "", nil, syntaxError("no range processor accepts %s..%s", begin, end)
}
