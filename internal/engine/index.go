package engine

import (
	"slices"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// index is the in-memory inverted index behind a database.
type index struct {
	lastID    domain.DocID
	docs      map[domain.DocID]*Document
	postings  map[string]map[domain.DocID]uint32
	totalLen  uint64
	metadata  map[string]string
	spellings map[string]int
	synonyms  map[string][]string
}

func newIndex() *index {
	return &index{
		docs:      make(map[domain.DocID]*Document),
		postings:  make(map[string]map[domain.DocID]uint32),
		metadata:  make(map[string]string),
		spellings: make(map[string]int),
		synonyms:  make(map[string][]string),
	}
}

func indexFromSnapshot(snap *domain.Snapshot) *index {
	ix := newIndex()
	for _, sd := range snap.Documents {
		ix.add(sd.ID, documentFromStored(sd))
	}
	if snap.LastDocID > ix.lastID {
		ix.lastID = snap.LastDocID
	}
	for k, v := range snap.Metadata {
		ix.metadata[k] = v
	}
	for k, v := range snap.Spellings {
		ix.spellings[k] = v
	}
	for k, v := range snap.Synonyms {
		ix.synonyms[k] = append([]string(nil), v...)
	}
	return ix
}

func (ix *index) clone() *index {
	c := newIndex()
	c.lastID = ix.lastID
	c.totalLen = ix.totalLen
	for id, d := range ix.docs {
		c.docs[id] = d.Clone()
	}
	for t, pl := range ix.postings {
		m := make(map[domain.DocID]uint32, len(pl))
		for id, wdf := range pl {
			m[id] = wdf
		}
		c.postings[t] = m
	}
	for k, v := range ix.metadata {
		c.metadata[k] = v
	}
	for k, v := range ix.spellings {
		c.spellings[k] = v
	}
	for k, v := range ix.synonyms {
		c.synonyms[k] = append([]string(nil), v...)
	}
	return c
}

// add indexes doc under id, replacing any document already there.
// doc must already be owned by the index.
func (ix *index) add(id domain.DocID, doc *Document) {
	ix.remove(id)
	doc.id = id
	doc.source = nil
	doc.termFreqs = nil
	ix.docs[id] = doc
	for t, p := range doc.terms {
		pl := ix.postings[t]
		if pl == nil {
			pl = make(map[domain.DocID]uint32)
			ix.postings[t] = pl
		}
		pl[id] = p.wdf
	}
	ix.totalLen += uint64(doc.Length())
	if id > ix.lastID {
		ix.lastID = id
	}
}

func (ix *index) remove(id domain.DocID) bool {
	doc, ok := ix.docs[id]
	if !ok {
		return false
	}
	for t := range doc.terms {
		if pl := ix.postings[t]; pl != nil {
			delete(pl, id)
			if len(pl) == 0 {
				delete(ix.postings, t)
			}
		}
	}
	ix.totalLen -= uint64(doc.Length())
	delete(ix.docs, id)
	return true
}

// mergeShard adds the contents of src, shard number shard of n, to dst.
// Documents are shared, not copied: indexed documents are never modified.
func mergeShard(dst, src *index, shard, n int) {
	for id, doc := range src.docs {
		cid := shardDocID(id, shard, n)
		dst.docs[cid] = doc.withID(cid)
		for t, p := range doc.terms {
			pl := dst.postings[t]
			if pl == nil {
				pl = make(map[domain.DocID]uint32)
				dst.postings[t] = pl
			}
			pl[cid] = p.wdf
		}
	}
	dst.totalLen += src.totalLen
	if src.lastID > 0 {
		dst.lastID = max(dst.lastID, shardDocID(src.lastID, shard, n))
	}
	for k, v := range src.metadata {
		if _, ok := dst.metadata[k]; !ok {
			dst.metadata[k] = v
		}
	}
	for k, v := range src.spellings {
		dst.spellings[k] += v
	}
	for k, v := range src.synonyms {
		merged := append(dst.synonyms[k], v...)
		sort.Strings(merged)
		dst.synonyms[k] = slices.Compact(merged)
	}
}

// shardDocID interleaves local id of shard (counting from zero) of n.
func shardDocID(id domain.DocID, shard, n int) domain.DocID {
	return (id-1)*domain.DocID(n) + domain.DocID(shard) + 1
}

func (ix *index) termFreq(term string) int {
	return len(ix.postings[term])
}

func (ix *index) collectionFreq(term string) int {
	n := 0
	for _, wdf := range ix.postings[term] {
		n += int(wdf)
	}
	return n
}

func (ix *index) docLength(id domain.DocID) uint32 {
	if d, ok := ix.docs[id]; ok {
		return d.Length()
	}
	return 0
}

func (ix *index) avgLength() float64 {
	if len(ix.docs) == 0 {
		return 0
	}
	return float64(ix.totalLen) / float64(len(ix.docs))
}

func (ix *index) termsWithPrefix(prefix string) []string {
	var terms []string
	for t := range ix.postings {
		if strings.HasPrefix(t, prefix) {
			terms = append(terms, t)
		}
	}
	sort.Strings(terms)
	return terms
}

func (ix *index) sortedDocIDs() []domain.DocID {
	ids := make([]domain.DocID, 0, len(ix.docs))
	for id := range ix.docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// dirtySet records what changed since the last commit.
type dirtySet struct {
	docs      map[domain.DocID]struct{}
	metadata  map[string]struct{}
	spellings map[string]struct{}
	synonyms  map[string]struct{}
}

func newDirtySet() *dirtySet {
	return &dirtySet{
		docs:      make(map[domain.DocID]struct{}),
		metadata:  make(map[string]struct{}),
		spellings: make(map[string]struct{}),
		synonyms:  make(map[string]struct{}),
	}
}

func (d *dirtySet) clone() *dirtySet {
	c := newDirtySet()
	for k := range d.docs {
		c.docs[k] = struct{}{}
	}
	for k := range d.metadata {
		c.metadata[k] = struct{}{}
	}
	for k := range d.spellings {
		c.spellings[k] = struct{}{}
	}
	for k := range d.synonyms {
		c.synonyms[k] = struct{}{}
	}
	return c
}

func (d *dirtySet) empty() bool {
	return len(d.docs) == 0 && len(d.metadata) == 0 && len(d.spellings) == 0 && len(d.synonyms) == 0
}

// changeSet builds the persisted form of everything in d.
func (d *dirtySet) changeSet(ix *index) domain.ChangeSet {
	cs := domain.ChangeSet{LastDocID: ix.lastID}
	for id := range d.docs {
		if doc, ok := ix.docs[id]; ok {
			cs.Upserts = append(cs.Upserts, doc.toStored())
		} else {
			cs.Deletes = append(cs.Deletes, id)
		}
	}
	sort.Slice(cs.Upserts, func(i, j int) bool { return cs.Upserts[i].ID < cs.Upserts[j].ID })
	sort.Slice(cs.Deletes, func(i, j int) bool { return cs.Deletes[i] < cs.Deletes[j] })
	if len(d.metadata) > 0 {
		cs.Metadata = make(map[string]string, len(d.metadata))
		for k := range d.metadata {
			cs.Metadata[k] = ix.metadata[k]
		}
	}
	if len(d.spellings) > 0 {
		cs.Spellings = make(map[string]int, len(d.spellings))
		for k := range d.spellings {
			cs.Spellings[k] = ix.spellings[k]
		}
	}
	if len(d.synonyms) > 0 {
		cs.Synonyms = make(map[string][]string, len(d.synonyms))
		for k := range d.synonyms {
			cs.Synonyms[k] = append([]string(nil), ix.synonyms[k]...)
		}
	}
	return cs
}
