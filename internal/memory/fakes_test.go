package memory

import (
	"context"
	"errors"
	"sort"
	"time"
)

// fakeStore is an in-memory Store used by engine and service tests
type fakeStore struct {
	records map[string]*Record
	order   []string

	failExpire bool
	failInsert bool
	failSlot   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*Record)}
}

func (s *fakeStore) Insert(_ context.Context, rec *Record) error {
	if s.failInsert {
		return errors.New("store unavailable")
	}
	clone := *rec
	if _, exists := s.records[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = &clone
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (s *fakeStore) GetByIDs(_ context.Context, ids []string) ([]*Record, error) {
	var out []*Record
	for _, id := range ids {
		if rec, ok := s.records[id]; ok {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id string, status Status) error {
	rec, ok := s.records[id]
	if !ok {
		return errors.New("record not found")
	}
	rec.Status = status
	return nil
}

func (s *fakeStore) GetActiveBySlot(_ context.Context, userID, slot string) ([]*Record, error) {
	if s.failSlot {
		return nil, errors.New("store unavailable")
	}
	var out []*Record
	for _, id := range s.order {
		rec := s.records[id]
		if rec.UserID == userID && rec.Slot == slot && rec.Status == StatusActive {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *fakeStore) ListByUser(_ context.Context, userID string, status Status) ([]*Record, error) {
	var out []*Record
	for _, id := range s.order {
		rec := s.records[id]
		if rec.UserID == userID && rec.Status == status {
			clone := *rec
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *fakeStore) ExpireUserMemories(_ context.Context, userID string) (int64, error) {
	if s.failExpire {
		return 0, errors.New("store unavailable")
	}
	now := time.Now().UTC()
	var count int64
	for _, rec := range s.records {
		if rec.UserID == userID && rec.Status == StatusActive && rec.Expired(now) {
			rec.Status = StatusExpired
			count++
		}
	}
	return count, nil
}

// status reads a record's live status directly
func (s *fakeStore) status(id string) Status {
	return s.records[id].Status
}

// fakeExtractor returns canned candidates
type fakeExtractor struct {
	facts []FactCandidate
	err   error
}

func (e *fakeExtractor) Extract(context.Context, []ChatMessage) ([]FactCandidate, error) {
	return e.facts, e.err
}

// fakeEmbedder hands out a fixed vector, with optional per-text failures
type fakeEmbedder struct {
	err     error
	failFor map[string]bool
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.failFor[text] {
		return nil, errors.New("embedding backend down")
	}
	return []float32{1, 0, 0}, nil
}

func (e *fakeEmbedder) Dimensions() int { return 3 }

// fakeIndex records upserts and deletes and returns canned search hits
type fakeIndex struct {
	upserts     map[string]*Record
	deleted     []string
	hits        []SearchHit
	searchErr   error
	failUpsert  map[string]bool // keyed by record text
	lastFilters map[string]string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{upserts: make(map[string]*Record)}
}

func (x *fakeIndex) Upsert(_ context.Context, rec *Record, _ []float32) error {
	if x.failUpsert[rec.Text] {
		return errors.New("vector index down")
	}
	clone := *rec
	x.upserts[rec.ID] = &clone
	return nil
}

func (x *fakeIndex) Delete(_ context.Context, id string) error {
	x.deleted = append(x.deleted, id)
	delete(x.upserts, id)
	return nil
}

func (x *fakeIndex) Search(_ context.Context, _ []float32, _ string, _ int, filters map[string]string) ([]SearchHit, error) {
	x.lastFilters = filters
	if x.searchErr != nil {
		return nil, x.searchErr
	}
	return x.hits, nil
}
