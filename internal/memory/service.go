package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures orchestrator behavior
type Options struct {
	// ConfidenceFloor drops extraction candidates below this value
	// before any further processing. Defaults to ConfidenceFloor.
	ConfidenceFloor float64

	// UpdatePreservesID makes Update reuse the old record's id instead
	// of minting a fresh one. Fresh ids keep a clean audit trail;
	// preserving the id keeps external references valid.
	UpdatePreservesID bool

	// SearchLimit is the default result cap for Search. Defaults to 10.
	SearchLimit int
}

// Service is the memory orchestrator facade. It sequences extraction,
// classification, policy, conflict resolution and durable writes, with
// best-effort vector indexing layered on top. The metadata store is the
// source of truth throughout: nothing that happens after a successful
// insert can fail a write.
type Service struct {
	store     Store
	engine    *Engine
	extractor Extractor
	embedder  Embedder
	index     VectorIndex
	logger    *zap.Logger
	opts      Options

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewService wires the orchestrator from its collaborators. All
// dependencies are explicitly owned; there is no ambient state.
func NewService(store Store, extractor Extractor, embedder Embedder, index VectorIndex, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ConfidenceFloor <= 0 {
		opts.ConfidenceFloor = ConfidenceFloor
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 10
	}
	engine := NewEngine(store, logger)
	engine.floor = opts.ConfidenceFloor
	return &Service{
		store:     store,
		engine:    engine,
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		logger:    logger,
		opts:      opts,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing write operations for a user.
// Slot conflict resolution is find-archive-insert and only safe under
// single-writer-per-user discipline.
func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// AddResult is the write path's result payload. Indexing failures are
// invisible here; every durably inserted record is reported.
type AddResult struct {
	Results []*Record `json:"results"`
}

// Add extracts facts from the messages and persists them as governed
// records for the user. Candidates below the confidence floor are
// dropped. Vector indexing of the inserted records is best-effort and
// per-record: an embedding or index failure is logged and skipped.
func (s *Service) Add(ctx context.Context, userID string, messages []ChatMessage, sourceTurnID string) (*AddResult, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	s.engine.Sweep(ctx, userID)

	facts, err := s.extractor.Extract(ctx, messages)
	if err != nil {
		// Extraction failures are absorbed: no candidates, no write.
		s.logger.Warn("fact extraction failed",
			zap.String("user_id", userID),
			zap.String("operation", "add"),
			zap.Error(err),
		)
		return &AddResult{Results: []*Record{}}, nil
	}
	if len(facts) == 0 {
		return &AddResult{Results: []*Record{}}, nil
	}

	records, err := s.engine.ProcessWriteBatch(ctx, facts, userID, sourceTurnID)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if err := s.store.Insert(ctx, rec); err != nil {
			return nil, fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
	}

	for _, rec := range records {
		if rec.Status != StatusActive {
			continue
		}
		s.indexRecord(ctx, rec)
	}

	return &AddResult{Results: records}, nil
}

// indexRecord embeds and upserts one record, best-effort
func (s *Service) indexRecord(ctx context.Context, rec *Record) bool {
	vector, err := s.embedder.Embed(ctx, rec.Text)
	if err != nil {
		s.logger.Warn("embedding failed, record not indexed",
			zap.String("user_id", rec.UserID),
			zap.String("record_id", rec.ID),
			zap.String("operation", "index"),
			zap.Error(err),
		)
		return false
	}
	if err := s.index.Upsert(ctx, rec, vector); err != nil {
		s.logger.Warn("vector upsert failed, record not indexed",
			zap.String("user_id", rec.UserID),
			zap.String("record_id", rec.ID),
			zap.String("operation", "index"),
			zap.Error(err),
		)
		return false
	}
	return true
}

// List returns the user's records with the given status, most recent
// first. An empty status defaults to active.
func (s *Service) List(ctx context.Context, userID string, status Status) ([]*Record, error) {
	s.engine.Sweep(ctx, userID)
	if status == "" {
		status = StatusActive
	}
	return s.store.ListByUser(ctx, userID, status)
}

// Search embeds the query, runs a similarity search scoped to the user
// and returns records ranked by the temporally adjusted score. Any
// failure on the vector path degrades to an empty result; it never
// propagates. Records whose store-side status diverges from the
// requested one are dropped, guarding against a stale index.
func (s *Service) Search(ctx context.Context, userID, query string, limit int, filters map[string]string) ([]Ranked, error) {
	s.engine.Sweep(ctx, userID)

	if limit <= 0 {
		limit = s.opts.SearchLimit
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed",
			zap.String("user_id", userID),
			zap.String("operation", "search"),
			zap.Error(err),
		)
		return []Ranked{}, nil
	}

	merged := map[string]string{"status": string(StatusActive)}
	for k, v := range filters {
		merged[k] = v
	}
	wantStatus := Status(merged["status"])

	hits, err := s.index.Search(ctx, vector, userID, limit, merged)
	if err != nil {
		s.logger.Warn("vector search failed",
			zap.String("user_id", userID),
			zap.String("operation", "search"),
			zap.Error(err),
		)
		return []Ranked{}, nil
	}
	if len(hits) == 0 {
		return []Ranked{}, nil
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ID)
	}
	fetched, err := s.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch records for search: %w", err)
	}
	byID := make(map[string]*Record, len(fetched))
	for _, rec := range fetched {
		byID[rec.ID] = rec
	}

	now := time.Now().UTC()
	results := make([]Ranked, 0, len(hits))
	for _, hit := range hits {
		rec, ok := byID[hit.ID]
		if !ok || rec.Status != wantStatus {
			// Index and store have diverged; the store wins.
			continue
		}
		if wantStatus == StatusActive && rec.Expired(now) {
			// The sweep can degrade to a no-op on store failure; a
			// record past its validity window is excluded regardless.
			continue
		}
		results = append(results, Ranked{Record: rec, Score: Rank(hit.Score, rec, now)})
	}

	SortRanked(results)
	return results, nil
}

// Update archives the existing record and inserts a replacement with
// the new text, carrying forward type, slot, validity, confidence and
// provenance. Returns nil when the id is unknown. Whether the new
// record reuses the old id is governed by Options.UpdatePreservesID.
func (s *Service) Update(ctx context.Context, id, newText string) (*Record, error) {
	old, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if old == nil {
		s.logger.Info("update of unknown record ignored",
			zap.String("record_id", id),
			zap.String("operation", "update"),
		)
		return nil, nil
	}

	lock := s.userLock(old.UserID)
	lock.Lock()
	defer lock.Unlock()

	s.engine.Sweep(ctx, old.UserID)

	newID := uuid.NewString()
	if s.opts.UpdatePreservesID {
		newID = old.ID
	} else {
		if err := s.store.UpdateStatus(ctx, old.ID, StatusArchived); err != nil {
			return nil, fmt.Errorf("archive record %s: %w", old.ID, err)
		}
	}

	rec := &Record{
		ID:                newID,
		UserID:            old.UserID,
		Text:              newText,
		Type:              old.Type,
		Slot:              old.Slot,
		Status:            StatusActive,
		CreatedAt:         time.Now().UTC(),
		ValidUntil:        old.ValidUntil,
		DecayHalfLifeDays: old.DecayHalfLifeDays,
		Confidence:        old.Confidence,
		Supersedes:        []string{old.ID},
		SourceTurnID:      old.SourceTurnID,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert replacement for %s: %w", old.ID, err)
	}

	s.indexRecord(ctx, rec)
	return rec, nil
}

// Delete marks the record deleted and best-effort removes it from the
// vector index. Unknown ids are a no-op. Deletion is a terminal status,
// not row removal.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		s.logger.Info("delete of unknown record ignored",
			zap.String("record_id", id),
			zap.String("operation", "delete"),
		)
		return nil
	}

	lock := s.userLock(rec.UserID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.UpdateStatus(ctx, rec.ID, StatusDeleted); err != nil {
		return fmt.Errorf("delete record %s: %w", rec.ID, err)
	}

	if err := s.index.Delete(ctx, rec.ID); err != nil {
		s.logger.Warn("vector delete failed",
			zap.String("user_id", rec.UserID),
			zap.String("record_id", rec.ID),
			zap.String("operation", "delete"),
			zap.Error(err),
		)
	}
	return nil
}

// ReindexStats reports a maintenance reindex outcome
type ReindexStats struct {
	Total   int `json:"total"`
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

// Reindex recomputes embeddings and upserts for all the user's records
// with the given status (default active). Individual failures are
// counted, never fatal.
func (s *Service) Reindex(ctx context.Context, userID string, status Status) (ReindexStats, error) {
	s.engine.Sweep(ctx, userID)
	if status == "" {
		status = StatusActive
	}

	records, err := s.store.ListByUser(ctx, userID, status)
	if err != nil {
		return ReindexStats{}, err
	}

	stats := ReindexStats{Total: len(records)}
	for _, rec := range records {
		if s.indexRecord(ctx, rec) {
			stats.Indexed++
		} else {
			stats.Failed++
		}
	}

	s.logger.Info("reindex complete",
		zap.String("user_id", userID),
		zap.String("status", string(status)),
		zap.Int("total", stats.Total),
		zap.Int("indexed", stats.Indexed),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}
