package engine

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-engine/internal/logger"
)

var log = logger.Component("engine")

// DBAction selects how OpenWritable treats an existing or missing index.
type DBAction int

// Open actions.
const (
	// DBCreateOrOpen opens an existing index or creates an empty one.
	DBCreateOrOpen DBAction = iota
	// DBCreateOrOverwrite discards any existing index.
	DBCreateOrOverwrite
	// DBCreate fails with ErrDatabaseExists if an index exists.
	DBCreate
	// DBOpen fails with ErrDatabaseNotFound if no index exists.
	DBOpen
)

// String returns the string representation.
func (a DBAction) String() string {
	switch a {
	case DBCreateOrOpen:
		return "create_or_open"
	case DBCreateOrOverwrite:
		return "create_or_overwrite"
	case DBCreate:
		return "create"
	case DBOpen:
		return "open"
	default:
		return "unknown"
	}
}

// DBFlags tune durability. They are recorded and reported but the in-memory
// index has no sync behaviour of its own to adjust.
type DBFlags uint32

// Database flags.
const (
	DBNoSync     DBFlags = 0x04
	DBFullSync   DBFlags = 0x08
	DBDangerous  DBFlags = 0x10
	DBNoTermlist DBFlags = 0x20
	DBRetryLock  DBFlags = 0x40
)

type txnSnapshot struct {
	ix      *index
	dirty   *dirtySet
	flushed bool
}

// dbState is shared by a WritableDatabase and every read-only view of it.
type dbState struct {
	mu       sync.RWMutex
	uuid     string
	rev      atomic.Uint64
	closed   atomic.Bool
	writable bool
	ix       *index
	store    driven.IndexStore
	flags    DBFlags
	dirty    *dirtySet
	txn      *txnSnapshot
}

func newState(id string, ix *index, store driven.IndexStore, writable bool) *dbState {
	st := &dbState{
		uuid:     id,
		ix:       ix,
		store:    store,
		writable: writable,
		dirty:    newDirtySet(),
	}
	st.rev.Store(1)
	return st
}

// Database is a read-only handle on an index, optionally searching the
// shards of other databases alongside its own.
type Database struct {
	st       *dbState
	view     bool
	released atomic.Bool

	mu     sync.Mutex
	shards []*Database
	gen    uint64
	union  *unionIndex
}

// unionIndex caches the merged index of a sharded handle for one set of
// shard revisions.
type unionIndex struct {
	revs []uint64
	ix   *index
}

// readState is what one read sees: the index, the revision it belongs to
// and an identity used in sequence keys.
type readState struct {
	ix  *index
	rev uint64
	id  string
}

// Open opens the index held by store for reading.
func Open(ctx context.Context, store driven.IndexStore) (*Database, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", store.Path(), err)
	}
	log.Debug("opened %s read-only (%d documents)", store.Path(), len(snap.Documents))
	return &Database{st: newState(snap.UUID, indexFromSnapshot(snap), store, false)}, nil
}

// closedOwn reports whether this handle or its own state is closed,
// ignoring shards.
func (d *Database) closedOwn() bool {
	return d.released.Load() || d.st.closed.Load()
}

// readLock takes the shared lock on the handle's own state, failing if
// the handle is closed.
func (d *Database) readLock() (func(), error) {
	if d.released.Load() {
		return nil, domain.ErrDatabaseClosed
	}
	d.st.mu.RLock()
	if d.st.closed.Load() {
		d.st.mu.RUnlock()
		return nil, domain.ErrDatabaseClosed
	}
	return d.st.mu.RUnlock, nil
}

func (d *Database) shardList() ([]*Database, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shards, d.gen
}

// reader returns the index a read should use and a release func. An
// unsharded handle reads its own index under the shared lock; a sharded
// handle reads a merged index built from each shard in turn.
func (d *Database) reader() (readState, func(), error) {
	shards, gen := d.shardList()
	if len(shards) == 0 {
		unlock, err := d.readLock()
		if err != nil {
			return readState{}, nil, err
		}
		return readState{ix: d.st.ix, rev: d.st.rev.Load(), id: d.st.uuid}, unlock, nil
	}

	all := append([]*Database{d}, shards...)
	revs := make([]uint64, len(all))
	ids := make([]string, len(all))
	for i, s := range all {
		if s.closedOwn() {
			return readState{}, nil, domain.ErrDatabaseClosed
		}
		revs[i] = s.st.rev.Load()
		ids[i] = s.st.uuid
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.union == nil || !slices.Equal(d.union.revs, revs) {
		ix := newIndex()
		for i, s := range all {
			s.st.mu.RLock()
			if s.st.closed.Load() {
				s.st.mu.RUnlock()
				return readState{}, nil, domain.ErrDatabaseClosed
			}
			mergeShard(ix, s.st.ix, i, len(all))
			revs[i] = s.st.rev.Load()
			s.st.mu.RUnlock()
		}
		d.union = &unionIndex{revs: revs, ix: ix}
	}
	rev := gen
	for _, r := range d.union.revs {
		rev += r
	}
	return readState{ix: d.union.ix, rev: rev, id: strings.Join(ids, "+")}, func() {}, nil
}

// AddDatabase searches the index of other, and any shards other already
// holds, alongside this handle's own. Document ids are interleaved: local
// id l of shard s (counting this handle as shard 0) out of n shards
// becomes (l-1)*n + s + 1. The handle stays read-only.
func (d *Database) AddDatabase(other *Database) error {
	if other == nil {
		return fmt.Errorf("%w: nil database", domain.ErrInvalidInput)
	}
	if d.IsClosed() || other.IsClosed() {
		return domain.ErrDatabaseClosed
	}
	added, _ := other.shardList()
	added = append([]*Database{other}, added...)

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range added {
		if a.st == d.st || slices.ContainsFunc(d.shards, func(s *Database) bool { return s.st == a.st }) {
			return fmt.Errorf("%w: database %s is already a shard", domain.ErrInvalidInput, a.st.uuid)
		}
	}
	d.shards = append(d.shards, added...)
	d.gen++
	d.union = nil
	log.Debug("database %s now searches %d shards", d.st.uuid, len(d.shards)+1)
	return nil
}

// ShardCount returns the number of indexes the handle searches.
func (d *Database) ShardCount() int {
	shards, _ := d.shardList()
	return len(shards) + 1
}

// UUID identifies the index.
func (d *Database) UUID() string {
	return d.st.uuid
}

// Revision increases on every modification of the index or of any shard.
func (d *Database) Revision() uint64 {
	shards, gen := d.shardList()
	rev := d.st.rev.Load()
	if len(shards) == 0 {
		return rev
	}
	rev += gen
	for _, s := range shards {
		rev += s.st.rev.Load()
	}
	return rev
}

// IsClosed reports whether this handle, the writable handle it views, or
// any shard is closed.
func (d *Database) IsClosed() bool {
	if d.closedOwn() {
		return true
	}
	shards, _ := d.shardList()
	for _, s := range shards {
		if s.closedOwn() {
			return true
		}
	}
	return false
}

// IsView reports whether this handle is a read-only view of a writable database.
func (d *Database) IsView() bool {
	return d.view
}

// Close releases the handle. Closing a view leaves the writable database
// open; shards are left open. The state of a writable database can only be
// closed through the writable handle.
func (d *Database) Close() error {
	if d.view {
		d.released.Store(true)
		return nil
	}
	if d.st.writable {
		return fmt.Errorf("%w: close the writable database instead", domain.ErrInvalidState)
	}
	d.st.mu.Lock()
	defer d.st.mu.Unlock()
	if d.st.closed.Swap(true) {
		return nil
	}
	d.st.rev.Add(1)
	return nil
}

// DocCount returns the number of documents.
func (d *Database) DocCount() (int, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return 0, err
	}
	defer unlock()
	return len(rs.ix.docs), nil
}

// LastDocID returns the highest id ever assigned.
func (d *Database) LastDocID() (domain.DocID, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return 0, err
	}
	defer unlock()
	return rs.ix.lastID, nil
}

// AvgLength returns the mean document length.
func (d *Database) AvgLength() (float64, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return 0, err
	}
	defer unlock()
	return rs.ix.avgLength(), nil
}

// DocLength returns the length of document id.
func (d *Database) DocLength(id domain.DocID) (uint32, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return 0, err
	}
	defer unlock()
	if _, ok := rs.ix.docs[id]; !ok {
		return 0, fmt.Errorf("%w: %d", domain.ErrDocNotFound, id)
	}
	return rs.ix.docLength(id), nil
}

// TermExists reports whether any document indexes term.
func (d *Database) TermExists(term string) (bool, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return false, err
	}
	defer unlock()
	return rs.ix.termFreq(term) > 0, nil
}

// TermFreq returns the number of documents indexing term.
func (d *Database) TermFreq(term string) (int, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return 0, err
	}
	defer unlock()
	return rs.ix.termFreq(term), nil
}

// CollectionFreq returns the total wdf of term across all documents.
func (d *Database) CollectionFreq(term string) (int, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return 0, err
	}
	defer unlock()
	return rs.ix.collectionFreq(term), nil
}

// Document returns a copy of document id. The copy remembers this handle
// and its revision, so term lists read from it go stale with the database.
func (d *Database) Document(id domain.DocID) (*Document, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return nil, err
	}
	defer unlock()
	doc, ok := rs.ix.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrDocNotFound, id)
	}
	c := doc.Clone()
	c.source = d
	c.sourceRev = rs.rev
	c.sourceKey = sequenceKey("doc", rs.id, rs.rev, id)
	c.termFreqs = make(map[string]int, len(c.terms))
	for t := range c.terms {
		c.termFreqs[t] = rs.ix.termFreq(t)
	}
	return c, nil
}

// PostingList returns the ids of documents indexing term, ascending.
func (d *Database) PostingList(term string) ([]domain.DocID, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return nil, err
	}
	defer unlock()
	pl := rs.ix.postings[term]
	ids := make([]domain.DocID, 0, len(pl))
	for id := range pl {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// AllTerms lists every indexed term starting with prefix. Entries carry
// the term frequency and the collection frequency; Wdf is zero.
func (d *Database) AllTerms(prefix string) (*TermList, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return nil, err
	}
	defer unlock()
	terms := rs.ix.termsWithPrefix(prefix)
	entries := make([]TermEntry, len(terms))
	for i, t := range terms {
		entries[i] = TermEntry{
			Term:           t,
			TermFreq:       rs.ix.termFreq(t),
			CollectionFreq: rs.ix.collectionFreq(t),
		}
	}
	key := sequenceKey("allterms", rs.id, rs.rev, prefix)
	return newTermList(key, entries), nil
}

// Metadata returns the value stored under key, or "".
func (d *Database) Metadata(key string) (string, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return "", err
	}
	defer unlock()
	return rs.ix.metadata[key], nil
}

// MetadataKeys lists metadata keys starting with prefix.
func (d *Database) MetadataKeys(prefix string) ([]string, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return nil, err
	}
	defer unlock()
	var keys []string
	for k := range rs.ix.metadata {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Synonyms returns the synonyms recorded for term.
func (d *Database) Synonyms(term string) ([]string, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return append([]string(nil), rs.ix.synonyms[term]...), nil
}

// SynonymKeys lists terms with synonyms starting with prefix.
func (d *Database) SynonymKeys(prefix string) ([]string, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return nil, err
	}
	defer unlock()
	var keys []string
	for k := range rs.ix.synonyms {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// SpellingSuggestion returns the most frequent known spelling within
// maxEdits edits of word, or "" if word is itself known or nothing is close.
func (d *Database) SpellingSuggestion(word string, maxEdits int) (string, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return "", err
	}
	defer unlock()
	word = strings.ToLower(word)
	if _, ok := rs.ix.spellings[word]; ok {
		return "", nil
	}
	best, bestDist, bestFreq := "", maxEdits+1, 0
	for cand, freq := range rs.ix.spellings {
		dist := editDistance(word, cand, maxEdits)
		if dist > maxEdits {
			continue
		}
		if dist < bestDist || (dist == bestDist && (freq > bestFreq || (freq == bestFreq && cand < best))) {
			best, bestDist, bestFreq = cand, dist, freq
		}
	}
	return best, nil
}

// Reopen reloads a store-backed read-only handle, and every store-backed
// read-only shard, so they see the latest commit. It reports whether
// anything was reloaded. Writable databases and their views always see the
// latest state.
func (d *Database) Reopen(ctx context.Context) (bool, error) {
	if d.IsClosed() {
		return false, domain.ErrDatabaseClosed
	}
	changed, err := d.reopenOwn(ctx)
	if err != nil {
		return false, err
	}
	shards, _ := d.shardList()
	for _, s := range shards {
		c, err := s.reopenOwn(ctx)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	return changed, nil
}

func (d *Database) reopenOwn(ctx context.Context) (bool, error) {
	if d.view || d.st.writable || d.st.store == nil {
		return false, nil
	}
	snap, err := d.st.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("reopen: %w", err)
	}
	d.st.mu.Lock()
	defer d.st.mu.Unlock()
	d.st.ix = indexFromSnapshot(snap)
	d.st.uuid = snap.UUID
	d.st.rev.Add(1)
	log.Debug("reopened %s (%d documents)", d.st.store.Path(), len(snap.Documents))
	return true, nil
}

// Copy returns an independent in-memory snapshot of everything the handle
// searches, under a new UUID. Later changes to either database are not
// visible in the other.
func (d *Database) Copy() (*WritableDatabase, error) {
	rs, unlock, err := d.reader()
	if err != nil {
		return nil, err
	}
	defer unlock()
	st := newState(uuid.NewString(), rs.ix.clone(), nil, true)
	return &WritableDatabase{readHandle: readHandle{st: st}}, nil
}

// readHandle is the read side of a WritableDatabase. It is unexported so
// the only way to narrow a writable database is ReadOnly.
type readHandle = Database

// WritableDatabase is a handle that can modify an index.
type WritableDatabase struct {
	readHandle
}

// NewInMemory creates an empty index that is never persisted.
func NewInMemory() *WritableDatabase {
	st := newState(uuid.NewString(), newIndex(), nil, true)
	return &WritableDatabase{readHandle: readHandle{st: st}}
}

// OpenWritable opens or creates the index held by store according to action.
func OpenWritable(ctx context.Context, store driven.IndexStore, action DBAction, flags DBFlags) (*WritableDatabase, error) {
	exists, err := store.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", store.Path(), err)
	}

	create := false
	switch action {
	case DBCreateOrOpen:
		create = !exists
	case DBCreateOrOverwrite:
		create = true
	case DBCreate:
		if exists {
			return nil, fmt.Errorf("open %s: %w", store.Path(), domain.ErrDatabaseExists)
		}
		create = true
	case DBOpen:
		if !exists {
			return nil, fmt.Errorf("open %s: %w", store.Path(), domain.ErrDatabaseNotFound)
		}
	default:
		return nil, fmt.Errorf("%w: open action %d", domain.ErrInvalidInput, action)
	}

	var st *dbState
	if create {
		id := uuid.NewString()
		if err := store.Reset(ctx, id); err != nil {
			return nil, fmt.Errorf("create %s: %w", store.Path(), err)
		}
		st = newState(id, newIndex(), store, true)
		log.Debug("created index %s at %s", id, store.Path())
	} else {
		snap, err := store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", store.Path(), err)
		}
		st = newState(snap.UUID, indexFromSnapshot(snap), store, true)
		log.Debug("opened index %s at %s (%d documents)", snap.UUID, store.Path(), len(snap.Documents))
	}
	st.flags = flags
	return &WritableDatabase{readHandle: readHandle{st: st}}, nil
}

// AddDatabase is refused on a writable handle, whose writes return ids
// local to its own index. Add shards to a ReadOnly view instead.
func (w *WritableDatabase) AddDatabase(*Database) error {
	return fmt.Errorf("%w: add shards to a read-only view", domain.ErrInvalidState)
}

// ReadOnly returns a zero-copy read-only view sharing this database's state.
// The view fails with ErrDatabaseClosed once the writable database is closed.
func (w *WritableDatabase) ReadOnly() *Database {
	return &Database{st: w.st, view: true}
}

// Flags returns the flags the database was opened with.
func (w *WritableDatabase) Flags() DBFlags {
	return w.st.flags
}

// writeLock takes the exclusive lock, failing if the handle is closed.
func (w *WritableDatabase) writeLock() (func(), error) {
	w.st.mu.Lock()
	if w.st.closed.Load() {
		w.st.mu.Unlock()
		return nil, domain.ErrDatabaseClosed
	}
	return w.st.mu.Unlock, nil
}

func (w *WritableDatabase) modified() {
	w.st.rev.Add(1)
}

// AddDocument indexes a copy of doc under the next free id.
func (w *WritableDatabase) AddDocument(doc *Document) (domain.DocID, error) {
	unlock, err := w.writeLock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	id := w.st.ix.lastID + 1
	w.st.ix.add(id, doc.Clone())
	w.st.dirty.docs[id] = struct{}{}
	w.modified()
	return id, nil
}

// ReplaceDocument indexes a copy of doc under id, replacing any document there.
func (w *WritableDatabase) ReplaceDocument(id domain.DocID, doc *Document) error {
	if id == 0 {
		return fmt.Errorf("%w: document id 0", domain.ErrInvalidInput)
	}
	unlock, err := w.writeLock()
	if err != nil {
		return err
	}
	defer unlock()
	w.st.ix.add(id, doc.Clone())
	w.st.dirty.docs[id] = struct{}{}
	w.modified()
	return nil
}

// ReplaceDocumentByTerm replaces the first document indexing uniqueTerm and
// deletes any others. If none exists, doc is added. Returns doc's id.
func (w *WritableDatabase) ReplaceDocumentByTerm(uniqueTerm string, doc *Document) (domain.DocID, error) {
	unlock, err := w.writeLock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	var ids []domain.DocID
	for id := range w.st.ix.postings[uniqueTerm] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	id := w.st.ix.lastID + 1
	if len(ids) > 0 {
		id = ids[0]
		for _, other := range ids[1:] {
			w.st.ix.remove(other)
			w.st.dirty.docs[other] = struct{}{}
		}
	}
	w.st.ix.add(id, doc.Clone())
	w.st.dirty.docs[id] = struct{}{}
	w.modified()
	return id, nil
}

// DeleteDocument removes document id.
func (w *WritableDatabase) DeleteDocument(id domain.DocID) error {
	unlock, err := w.writeLock()
	if err != nil {
		return err
	}
	defer unlock()
	if !w.st.ix.remove(id) {
		return fmt.Errorf("%w: %d", domain.ErrDocNotFound, id)
	}
	w.st.dirty.docs[id] = struct{}{}
	w.modified()
	return nil
}

// DeleteDocumentByTerm removes every document indexing term and returns how many.
func (w *WritableDatabase) DeleteDocumentByTerm(term string) (int, error) {
	unlock, err := w.writeLock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	var ids []domain.DocID
	for id := range w.st.ix.postings[term] {
		ids = append(ids, id)
	}
	for _, id := range ids {
		w.st.ix.remove(id)
		w.st.dirty.docs[id] = struct{}{}
	}
	if len(ids) > 0 {
		w.modified()
	}
	return len(ids), nil
}

// SetMetadata stores value under key. An empty value deletes the key.
func (w *WritableDatabase) SetMetadata(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty metadata key", domain.ErrInvalidInput)
	}
	unlock, err := w.writeLock()
	if err != nil {
		return err
	}
	defer unlock()
	if value == "" {
		delete(w.st.ix.metadata, key)
	} else {
		w.st.ix.metadata[key] = value
	}
	w.st.dirty.metadata[key] = struct{}{}
	w.modified()
	return nil
}

// AddSpelling raises the frequency of word in the spelling dictionary.
func (w *WritableDatabase) AddSpelling(word string, inc int) error {
	if word == "" || inc <= 0 {
		return nil
	}
	unlock, err := w.writeLock()
	if err != nil {
		return err
	}
	defer unlock()
	w.st.ix.spellings[word] += inc
	w.st.dirty.spellings[word] = struct{}{}
	w.modified()
	return nil
}

// RemoveSpelling lowers the frequency of word, removing it at zero.
func (w *WritableDatabase) RemoveSpelling(word string, dec int) error {
	unlock, err := w.writeLock()
	if err != nil {
		return err
	}
	defer unlock()
	freq, ok := w.st.ix.spellings[word]
	if !ok {
		return nil
	}
	if freq <= dec {
		delete(w.st.ix.spellings, word)
	} else {
		w.st.ix.spellings[word] = freq - dec
	}
	w.st.dirty.spellings[word] = struct{}{}
	w.modified()
	return nil
}

// AddSynonym records synonym as a synonym of term.
func (w *WritableDatabase) AddSynonym(term, synonym string) error {
	unlock, err := w.writeLock()
	if err != nil {
		return err
	}
	defer unlock()
	syns := w.st.ix.synonyms[term]
	i := sort.SearchStrings(syns, synonym)
	if i < len(syns) && syns[i] == synonym {
		return nil
	}
	syns = append(syns, "")
	copy(syns[i+1:], syns[i:])
	syns[i] = synonym
	w.st.ix.synonyms[term] = syns
	w.st.dirty.synonyms[term] = struct{}{}
	w.modified()
	return nil
}

// RemoveSynonym removes one synonym of term.
func (w *WritableDatabase) RemoveSynonym(term, synonym string) error {
	unlock, err := w.writeLock()
	if err != nil {
		return err
	}
	defer unlock()
	syns := w.st.ix.synonyms[term]
	i := sort.SearchStrings(syns, synonym)
	if i == len(syns) || syns[i] != synonym {
		return nil
	}
	syns = append(syns[:i], syns[i+1:]...)
	if len(syns) == 0 {
		delete(w.st.ix.synonyms, term)
	} else {
		w.st.ix.synonyms[term] = syns
	}
	w.st.dirty.synonyms[term] = struct{}{}
	w.modified()
	return nil
}

// ClearSynonyms removes every synonym of term.
func (w *WritableDatabase) ClearSynonyms(term string) error {
	unlock, err := w.writeLock()
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := w.st.ix.synonyms[term]; !ok {
		return nil
	}
	delete(w.st.ix.synonyms, term)
	w.st.dirty.synonyms[term] = struct{}{}
	w.modified()
	return nil
}

// HasPendingChanges reports whether there are uncommitted modifications.
func (w *WritableDatabase) HasPendingChanges() bool {
	w.st.mu.RLock()
	defer w.st.mu.RUnlock()
	return !w.st.dirty.empty()
}

// Commit persists pending modifications. Fails with ErrTransaction inside a transaction.
func (w *WritableDatabase) Commit(ctx context.Context) error {
	unlock, err := w.writeLock()
	if err != nil {
		return err
	}
	defer unlock()
	if w.st.txn != nil {
		return fmt.Errorf("%w: commit inside transaction", domain.ErrTransaction)
	}
	return w.commitLocked(ctx)
}

func (w *WritableDatabase) commitLocked(ctx context.Context) error {
	if w.st.dirty.empty() {
		return nil
	}
	if w.st.store != nil {
		cs := w.st.dirty.changeSet(w.st.ix)
		if err := w.st.store.Apply(ctx, cs); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		log.Debug("committed %d upserts, %d deletes to %s", len(cs.Upserts), len(cs.Deletes), w.st.store.Path())
	}
	w.st.dirty = newDirtySet()
	return nil
}

// BeginTransaction starts a transaction. With flushed set, pending changes
// are committed first and CommitTransaction commits the transaction's changes.
func (w *WritableDatabase) BeginTransaction(ctx context.Context, flushed bool) error {
	unlock, err := w.writeLock()
	if err != nil {
		return err
	}
	defer unlock()
	if w.st.txn != nil {
		return fmt.Errorf("%w: transaction already in progress", domain.ErrTransaction)
	}
	if flushed {
		if err := w.commitLocked(ctx); err != nil {
			return err
		}
	}
	w.st.txn = &txnSnapshot{ix: w.st.ix.clone(), dirty: w.st.dirty.clone(), flushed: flushed}
	return nil
}

// CommitTransaction ends the transaction, keeping its changes.
func (w *WritableDatabase) CommitTransaction(ctx context.Context) error {
	unlock, err := w.writeLock()
	if err != nil {
		return err
	}
	defer unlock()
	if w.st.txn == nil {
		return fmt.Errorf("%w: no transaction in progress", domain.ErrTransaction)
	}
	flushed := w.st.txn.flushed
	w.st.txn = nil
	if flushed {
		return w.commitLocked(ctx)
	}
	return nil
}

// CancelTransaction ends the transaction, discarding its changes.
func (w *WritableDatabase) CancelTransaction() error {
	unlock, err := w.writeLock()
	if err != nil {
		return err
	}
	defer unlock()
	if w.st.txn == nil {
		return fmt.Errorf("%w: no transaction in progress", domain.ErrTransaction)
	}
	w.st.ix = w.st.txn.ix
	w.st.dirty = w.st.txn.dirty
	w.st.txn = nil
	w.modified()
	return nil
}

// InTransaction reports whether a transaction is in progress.
func (w *WritableDatabase) InTransaction() bool {
	w.st.mu.RLock()
	defer w.st.mu.RUnlock()
	return w.st.txn != nil
}

// Close cancels any open transaction, commits pending changes and closes
// the database and every view of it.
func (w *WritableDatabase) Close() error {
	w.st.mu.Lock()
	defer w.st.mu.Unlock()
	if w.st.closed.Load() {
		return nil
	}
	if w.st.txn != nil {
		w.st.ix = w.st.txn.ix
		w.st.dirty = w.st.txn.dirty
		w.st.txn = nil
	}
	err := w.commitLocked(context.Background())
	w.st.closed.Store(true)
	w.st.rev.Add(1)
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
