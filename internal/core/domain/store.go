package domain

// StoredTerm is one term of a persisted document.
type StoredTerm struct {
	Term      string
	Wdf       uint32
	Positions []TermPos
}

// StoredDocument is the persisted form of a document.
type StoredDocument struct {
	ID     DocID
	Data   []byte
	Terms  []StoredTerm
	Values map[Slot][]byte
}

// Snapshot is the full persisted content of an index.
type Snapshot struct {
	UUID      string
	LastDocID DocID
	Documents []StoredDocument
	Metadata  map[string]string
	Spellings map[string]int
	Synonyms  map[string][]string
}

// ChangeSet is the set of modifications made since the last commit.
// Empty metadata values, zero spelling frequencies and empty synonym lists
// delete the corresponding entry.
type ChangeSet struct {
	LastDocID DocID
	Upserts   []StoredDocument
	Deletes   []DocID
	Metadata  map[string]string
	Spellings map[string]int
	Synonyms  map[string][]string
}

// IsEmpty reports whether the change set carries no modifications.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Upserts) == 0 && len(c.Deletes) == 0 &&
		len(c.Metadata) == 0 && len(c.Spellings) == 0 && len(c.Synonyms) == 0
}
