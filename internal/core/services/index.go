package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/sercha-engine/internal/bridge"
	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-engine/internal/engine"
	"github.com/custodia-labs/sercha-engine/internal/logger"
	"github.com/custodia-labs/sercha-engine/internal/metrics"
	"github.com/custodia-labs/sercha-engine/internal/normalisers"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// titleField receives the title extracted from indexed files when a prefix
// is configured for it.
const titleField = "title"

// fieldGap separates the positions of consecutive fields so phrases
// never span them.
const fieldGap = 100

// IndexService builds documents and commits them to a writable database.
type IndexService struct {
	mu       sync.Mutex
	db       *engine.WritableDatabase
	analyzer *analyzer
	location string
	backend  domain.Backend
	workers  int
	formats  *normalisers.Registry
}

// NewIndexService creates an index service over db. location and backend
// are reported by Stats.
func NewIndexService(db *engine.WritableDatabase, settings domain.Settings, location string) (*IndexService, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database", domain.ErrInvalidInput)
	}
	a, err := newAnalyzer(settings.Search)
	if err != nil {
		return nil, err
	}
	return &IndexService{
		db:       db,
		analyzer: a,
		location: location,
		backend:  settings.Database.Backend,
		workers:  runtime.NumCPU(),
		formats:  normalisers.NewRegistry(),
	}, nil
}

// IndexText indexes a single document and commits it.
func (s *IndexService) IndexText(ctx context.Context, req domain.IndexRequest) (domain.DocID, error) {
	doc, err := s.build(req)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store(doc, req.UniqueID)
	if err != nil {
		return 0, err
	}
	if err := s.db.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	metrics.DocumentsIndexed.Inc()
	logger.Debug("Indexed document %d", id)
	return id, nil
}

// IndexFiles indexes each file as one document, keyed by its absolute path.
// Documents are built concurrently and added in argument order inside one
// transaction, so a failure leaves the index unchanged.
func (s *IndexService) IndexFiles(ctx context.Context, paths []string) (int, error) {
	logger.Section("Indexing Files")
	if len(paths) == 0 {
		return 0, nil
	}

	reqs := make([]domain.IndexRequest, len(paths))
	docs := make([]*engine.Document, len(paths))
	errs := make([]error, len(paths))

	pool, err := ants.NewPool(s.workers, ants.WithPanicHandler(func(v any) {
		logger.Error("Document builder panic: %v", v)
	}))
	if err != nil {
		return 0, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}
			reqs[i], errs[i] = s.fileRequest(path)
			if errs[i] == nil {
				docs[i], errs[i] = s.build(reqs[i])
			}
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return 0, fmt.Errorf("index %s: %w", paths[i], err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.BeginTransaction(ctx, true); err != nil {
		return 0, err
	}
	for i, doc := range docs {
		if _, err := s.store(doc, reqs[i].UniqueID); err != nil {
			_ = s.db.CancelTransaction()
			return 0, fmt.Errorf("index %s: %w", paths[i], err)
		}
	}
	if err := s.db.CommitTransaction(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	metrics.DocumentsIndexed.Add(float64(len(docs)))
	logger.Info("Indexed %d files", len(docs))
	return len(docs), nil
}

// Delete removes a document by id.
func (s *IndexService) Delete(ctx context.Context, id domain.DocID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteDocument(id); err != nil {
		return fmt.Errorf("delete %d: %w", id, err)
	}
	return s.db.Commit(ctx)
}

// Stats summarises the index.
func (s *IndexService) Stats(_ context.Context) (*domain.IndexStats, error) {
	view, err := bridge.WritableAsReadOnly(s.db)
	if err != nil {
		return nil, err
	}
	defer view.Close()

	count, err := view.DocCount()
	if err != nil {
		return nil, err
	}
	last, err := view.LastDocID()
	if err != nil {
		return nil, err
	}
	avg, err := view.AvgLength()
	if err != nil {
		return nil, err
	}
	begin, end, err := bridge.AllTerms(view, "")
	if err != nil {
		return nil, err
	}
	terms, err := bridge.CollectTerms(begin, end)
	if err != nil {
		return nil, err
	}
	return &domain.IndexStats{
		UUID:      view.UUID(),
		Path:      s.location,
		Backend:   s.backend,
		DocCount:  count,
		LastDocID: last,
		AvgLength: avg,
		TermCount: len(terms),
		Revision:  view.Revision(),
	}, nil
}

// store adds doc, replacing the document indexed under uniqueID if set.
// Caller must hold s.mu.
func (s *IndexService) store(doc *engine.Document, uniqueID string) (domain.DocID, error) {
	if uniqueID == "" {
		return s.db.AddDocument(doc)
	}
	return s.db.ReplaceDocumentByTerm(uniqueTerm(uniqueID), doc)
}

// build turns req into a document. It only reads shared state, so it is
// safe to call from pool workers.
func (s *IndexService) build(req domain.IndexRequest) (*engine.Document, error) {
	if req.Text == "" && req.Data == "" && len(req.Fields) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidInput)
	}

	scope := bridge.NewScope()
	defer scope.Close()

	doc := engine.NewDocument()
	tg, err := s.analyzer.generator(scope, doc)
	if err != nil {
		return nil, err
	}

	data := req.Data
	if data == "" {
		data = req.Text
	}
	doc.SetData([]byte(data))

	if err := tg.IndexText(req.Text, 1, ""); err != nil {
		return nil, err
	}
	for _, field := range sortedKeys(req.Fields) {
		prefix, ok := s.analyzer.settings.Prefixes[field]
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, field)
		}
		tg.IncreaseTermpos(fieldGap)
		if err := tg.IndexText(req.Fields[field], 1, prefix); err != nil {
			return nil, err
		}
		// Field text is also searchable without the prefix.
		tg.IncreaseTermpos(fieldGap)
		if err := tg.IndexText(req.Fields[field], 1, ""); err != nil {
			return nil, err
		}
	}
	for _, field := range sortedKeys(req.Filters) {
		prefix, ok := s.analyzer.settings.BooleanPrefixes[field]
		if !ok {
			return nil, fmt.Errorf("%w: unknown filter %q", domain.ErrInvalidInput, field)
		}
		doc.AddBooleanTerm(engine.BooleanTerm(prefix, req.Filters[field]))
	}

	slots := make([]domain.Slot, 0, len(req.Values))
	for slot := range req.Values {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	for _, slot := range slots {
		v, err := s.analyzer.encodeValue(slot, req.Values[slot])
		if err != nil {
			return nil, err
		}
		doc.AddValue(slot, v)
	}

	if req.UniqueID != "" {
		doc.AddBooleanTerm(uniqueTerm(req.UniqueID))
	}
	return doc, nil
}

// uniqueTerm hashes id so arbitrarily long ids give fixed-size terms.
func uniqueTerm(id string) string {
	return fmt.Sprintf("%s%016x", uniquePrefix, xxhash.Sum64String(id))
}

func (s *IndexService) fileRequest(path string) (domain.IndexRequest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.IndexRequest{}, err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return domain.IndexRequest{}, err
	}
	text := s.formats.Normalise(abs, content)
	req := domain.IndexRequest{
		UniqueID: abs,
		Data:     abs + "\n" + string(content),
		Text:     text.Body,
	}
	if _, ok := s.analyzer.settings.Prefixes[titleField]; ok && text.Title != "" {
		req.Fields = map[string]string{titleField: text.Title}
	}
	return req, nil
}
