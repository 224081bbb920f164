package memory

import (
	"context"
)

// Extractor converts raw conversational input into fact candidates.
// Implementations live outside the core; an empty result is normal and
// extraction failures are absorbed by the orchestrator, never surfaced
// to callers as write failures.
type Extractor interface {
	Extract(ctx context.Context, messages []ChatMessage) ([]FactCandidate, error)
}

// Embedder maps text to a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Store is the persistent metadata store. It is the durability source
// of truth; records are insert-only and only status is ever updated.
type Store interface {
	// Insert persists a record. Inserting an existing id replaces the
	// row; this is only exercised by the preserve-id update mode.
	Insert(ctx context.Context, rec *Record) error

	// GetByID returns the record or nil when absent
	GetByID(ctx context.Context, id string) (*Record, error)

	// GetByIDs returns the records found for the given ids, in no
	// particular order. Missing ids are silently omitted.
	GetByIDs(ctx context.Context, ids []string) ([]*Record, error)

	// UpdateStatus transitions a record's status
	UpdateStatus(ctx context.Context, id string, status Status) error

	// GetActiveBySlot returns the active records for (user, slot) in
	// insertion order
	GetActiveBySlot(ctx context.Context, userID, slot string) ([]*Record, error)

	// ListByUser returns a user's records with the given status,
	// most recent first
	ListByUser(ctx context.Context, userID string, status Status) ([]*Record, error)

	// ExpireUserMemories transitions the user's active records whose
	// valid_until has passed to expired, returning the count
	ExpireUserMemories(ctx context.Context, userID string) (int64, error)
}

// SearchHit is a single similarity result from the vector index
type SearchHit struct {
	ID    string
	Score float64
}

// VectorIndex is the similarity search service. Indexing is best-effort
// throughout: the orchestrator tolerates any of these calls failing.
type VectorIndex interface {
	Upsert(ctx context.Context, rec *Record, vector []float32) error
	Delete(ctx context.Context, id string) error

	// Search returns hits scoped to the user, ordered by descending
	// similarity. Filters are exact-match constraints on indexed
	// payload fields (status, type, slot).
	Search(ctx context.Context, vector []float32, userID string, limit int, filters map[string]string) ([]SearchHit, error)
}
