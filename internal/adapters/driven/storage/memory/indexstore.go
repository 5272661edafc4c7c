package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore. Its
// content lives as long as the process.
type IndexStore struct {
	mu        sync.RWMutex
	exists    bool
	uuid      string
	lastID    domain.DocID
	documents map[domain.DocID]domain.StoredDocument
	metadata  map[string]string
	spellings map[string]int
	synonyms  map[string][]string
	applied   int
}

// NewIndexStore creates an empty in-memory index store.
func NewIndexStore() *IndexStore {
	s := &IndexStore{}
	s.clear()
	return s
}

func (s *IndexStore) clear() {
	s.lastID = 0
	s.documents = make(map[domain.DocID]domain.StoredDocument)
	s.metadata = make(map[string]string)
	s.spellings = make(map[string]int)
	s.synonyms = make(map[string][]string)
}

// Exists reports whether an index has been created.
func (s *IndexStore) Exists(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exists, nil
}

// Load returns a copy of the index.
func (s *IndexStore) Load(_ context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return nil, domain.ErrDatabaseNotFound
	}
	snap := &domain.Snapshot{
		UUID:      s.uuid,
		LastDocID: s.lastID,
		Documents: make([]domain.StoredDocument, 0, len(s.documents)),
		Metadata:  make(map[string]string, len(s.metadata)),
		Spellings: make(map[string]int, len(s.spellings)),
		Synonyms:  make(map[string][]string, len(s.synonyms)),
	}
	for _, doc := range s.documents {
		snap.Documents = append(snap.Documents, copyDocument(doc))
	}
	sort.Slice(snap.Documents, func(i, j int) bool {
		return snap.Documents[i].ID < snap.Documents[j].ID
	})
	for k, v := range s.metadata {
		snap.Metadata[k] = v
	}
	for k, v := range s.spellings {
		snap.Spellings[k] = v
	}
	for k, v := range s.synonyms {
		snap.Synonyms[k] = append([]string(nil), v...)
	}
	return snap, nil
}

// Apply stores a change set.
func (s *IndexStore) Apply(_ context.Context, changes domain.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		return domain.ErrDatabaseNotFound
	}
	s.lastID = max(s.lastID, changes.LastDocID)
	for _, id := range changes.Deletes {
		delete(s.documents, id)
	}
	for _, doc := range changes.Upserts {
		s.documents[doc.ID] = copyDocument(doc)
	}
	for k, v := range changes.Metadata {
		if v == "" {
			delete(s.metadata, k)
		} else {
			s.metadata[k] = v
		}
	}
	for k, v := range changes.Spellings {
		if v <= 0 {
			delete(s.spellings, k)
		} else {
			s.spellings[k] = v
		}
	}
	for k, v := range changes.Synonyms {
		if len(v) == 0 {
			delete(s.synonyms, k)
		} else {
			s.synonyms[k] = append([]string(nil), v...)
		}
	}
	s.applied++
	return nil
}

// Reset discards the index and starts an empty one.
func (s *IndexStore) Reset(_ context.Context, uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.exists = true
	s.uuid = uuid
	return nil
}

// Applied returns the number of change sets stored so far.
func (s *IndexStore) Applied() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied
}

// Path returns the store location.
func (s *IndexStore) Path() string {
	return ":memory:"
}

// Close is a no-op; the content stays available to later handles.
func (s *IndexStore) Close() error {
	return nil
}

func copyDocument(doc domain.StoredDocument) domain.StoredDocument {
	c := domain.StoredDocument{
		ID:   doc.ID,
		Data: append([]byte(nil), doc.Data...),
	}
	if len(doc.Terms) > 0 {
		c.Terms = make([]domain.StoredTerm, len(doc.Terms))
		for i, t := range doc.Terms {
			c.Terms[i] = domain.StoredTerm{
				Term:      t.Term,
				Wdf:       t.Wdf,
				Positions: append([]domain.TermPos(nil), t.Positions...),
			}
		}
	}
	if len(doc.Values) > 0 {
		c.Values = make(map[domain.Slot][]byte, len(doc.Values))
		for slot, v := range doc.Values {
			c.Values[slot] = append([]byte(nil), v...)
		}
	}
	return c
}
