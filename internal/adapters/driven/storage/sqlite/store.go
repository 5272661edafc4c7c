package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-engine/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// FileName is the name of the database file inside the data directory.
const FileName = "index.db"

// Store persists one search index in a SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.IndexStore = (*Store)(nil)

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.sercha-engine/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-engine", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, FileName)

	// WAL mode for concurrent readers; pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_index.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// Exists reports whether the store holds an index.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM index_info").Scan(&n); err != nil {
		return false, fmt.Errorf("checking index: %w", err)
	}
	return n > 0, nil
}

// Load reads the whole index.
func (s *Store) Load(ctx context.Context) (*domain.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning read: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // nothing to commit

	snap := &domain.Snapshot{
		Metadata:  make(map[string]string),
		Spellings: make(map[string]int),
		Synonyms:  make(map[string][]string),
	}
	err = tx.QueryRowContext(ctx, "SELECT uuid, last_docid FROM index_info WHERE id = 1").
		Scan(&snap.UUID, &snap.LastDocID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDatabaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading index info: %w", err)
	}

	docs, err := loadDocuments(ctx, tx)
	if err != nil {
		return nil, err
	}
	snap.Documents = docs

	if err := loadPairs(ctx, tx, "SELECT key, value FROM metadata", func(k, v string) {
		snap.Metadata[k] = v
	}); err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	if err := loadPairs(ctx, tx, "SELECT term, synonym FROM synonyms ORDER BY term, synonym", func(k, v string) {
		snap.Synonyms[k] = append(snap.Synonyms[k], v)
	}); err != nil {
		return nil, fmt.Errorf("reading synonyms: %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT word, freq FROM spellings")
	if err != nil {
		return nil, fmt.Errorf("reading spellings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var word string
		var freq int
		if err := rows.Scan(&word, &freq); err != nil {
			return nil, fmt.Errorf("scanning spelling: %w", err)
		}
		snap.Spellings[word] = freq
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading spellings: %w", err)
	}
	return snap, nil
}

func loadDocuments(ctx context.Context, tx *sql.Tx) ([]domain.StoredDocument, error) {
	rows, err := tx.QueryContext(ctx, "SELECT docid, data FROM documents ORDER BY docid")
	if err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	var docs []domain.StoredDocument
	byID := make(map[domain.DocID]int)
	for rows.Next() {
		var d domain.StoredDocument
		if err := rows.Scan(&d.ID, &d.Data); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		byID[d.ID] = len(docs)
		docs = append(docs, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}

	rows, err = tx.QueryContext(ctx, "SELECT docid, term, wdf, positions FROM postings ORDER BY docid, term")
	if err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}
	for rows.Next() {
		var id domain.DocID
		var t domain.StoredTerm
		var positions []byte
		if err := rows.Scan(&id, &t.Term, &t.Wdf, &positions); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		if t.Positions, err = decodePositions(positions); err != nil {
			rows.Close()
			return nil, fmt.Errorf("document %d term %q: %w", id, t.Term, err)
		}
		if i, ok := byID[id]; ok {
			docs[i].Terms = append(docs[i].Terms, t)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}

	rows, err = tx.QueryContext(ctx, "SELECT docid, slot, value FROM doc_values")
	if err != nil {
		return nil, fmt.Errorf("reading values: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id domain.DocID
		var slot domain.Slot
		var value []byte
		if err := rows.Scan(&id, &slot, &value); err != nil {
			return nil, fmt.Errorf("scanning value: %w", err)
		}
		if i, ok := byID[id]; ok {
			if docs[i].Values == nil {
				docs[i].Values = make(map[domain.Slot][]byte)
			}
			docs[i].Values[slot] = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading values: %w", err)
	}
	return docs, nil
}

func loadPairs(ctx context.Context, tx *sql.Tx, query string, fn func(k, v string)) error {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		fn(k, v)
	}
	return rows.Err()
}

// Apply persists a change set in one transaction.
func (s *Store) Apply(ctx context.Context, changes domain.ChangeSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
		UPDATE index_info SET last_docid = MAX(last_docid, ?), updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, changes.LastDocID)
	if err != nil {
		return fmt.Errorf("updating index info: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrDatabaseNotFound
	}

	for _, id := range changes.Deletes {
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE docid = ?", id); err != nil {
			return fmt.Errorf("deleting document %d: %w", id, err)
		}
	}
	for _, doc := range changes.Upserts {
		if err := saveDocument(ctx, tx, doc); err != nil {
			return err
		}
	}
	for k, v := range changes.Metadata {
		if v == "" {
			_, err = tx.ExecContext(ctx, "DELETE FROM metadata WHERE key = ?", k)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO metadata (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, k, v)
		}
		if err != nil {
			return fmt.Errorf("saving metadata %q: %w", k, err)
		}
	}
	for word, freq := range changes.Spellings {
		if freq <= 0 {
			_, err = tx.ExecContext(ctx, "DELETE FROM spellings WHERE word = ?", word)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO spellings (word, freq) VALUES (?, ?)
				ON CONFLICT(word) DO UPDATE SET freq = excluded.freq
			`, word, freq)
		}
		if err != nil {
			return fmt.Errorf("saving spelling %q: %w", word, err)
		}
	}
	for term, syns := range changes.Synonyms {
		if _, err := tx.ExecContext(ctx, "DELETE FROM synonyms WHERE term = ?", term); err != nil {
			return fmt.Errorf("clearing synonyms of %q: %w", term, err)
		}
		for _, syn := range syns {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO synonyms (term, synonym) VALUES (?, ?)", term, syn); err != nil {
				return fmt.Errorf("saving synonym %q: %w", term, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing changes: %w", err)
	}
	return nil
}

func saveDocument(ctx context.Context, tx *sql.Tx, doc domain.StoredDocument) error {
	data := doc.Data
	if data == nil {
		data = []byte{}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (docid, data) VALUES (?, ?)
		ON CONFLICT(docid) DO UPDATE SET data = excluded.data
	`, doc.ID, data); err != nil {
		return fmt.Errorf("saving document %d: %w", doc.ID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM postings WHERE docid = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing postings of %d: %w", doc.ID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM doc_values WHERE docid = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing values of %d: %w", doc.ID, err)
	}
	for _, t := range doc.Terms {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO postings (docid, term, wdf, positions) VALUES (?, ?, ?, ?)",
			doc.ID, t.Term, t.Wdf, encodePositions(t.Positions)); err != nil {
			return fmt.Errorf("saving posting %d/%q: %w", doc.ID, t.Term, err)
		}
	}
	for slot, v := range doc.Values {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO doc_values (docid, slot, value) VALUES (?, ?, ?)", doc.ID, slot, v); err != nil {
			return fmt.Errorf("saving value %d/%d: %w", doc.ID, slot, err)
		}
	}
	return nil
}

// Reset discards the stored index and starts an empty one.
func (s *Store) Reset(ctx context.Context, uuid string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"doc_values", "postings", "documents", "metadata", "spellings", "synonyms", "index_info"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO index_info (id, uuid, last_docid) VALUES (1, ?, 0)", uuid); err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reset: %w", err)
	}
	return nil
}

// encodePositions stores ascending positions as uvarint deltas.
func encodePositions(positions []domain.TermPos) []byte {
	if len(positions) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(positions)*2)
	var prev domain.TermPos
	for _, p := range positions {
		buf = binary.AppendUvarint(buf, uint64(p-prev))
		prev = p
	}
	return buf
}

func decodePositions(data []byte) ([]domain.TermPos, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var positions []domain.TermPos
	var prev domain.TermPos
	for len(data) > 0 {
		delta, n := binary.Uvarint(data)
		if n <= 0 {
			return nil, errors.New("corrupt position list")
		}
		prev += domain.TermPos(delta)
		positions = append(positions, prev)
		data = data[n:]
	}
	return positions, nil
}
