// Package vector adapts chromem-go, an embedded pure-Go vector
// database, to the engine's vector index interface.
package vector

import (
	"context"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/a-marczewski/temporalmem/internal/memory"
)

// ChromemIndex stores record embeddings in a single chromem collection,
// scoping queries per user through metadata filters.
//
// Payload metadata (user_id, status, type, slot) is written at upsert
// time and not maintained afterwards; the orchestrator re-checks status
// against the metadata store, which is the source of truth.
type ChromemIndex struct {
	db  *chromem.DB
	col *chromem.Collection
}

// NewChromemIndex opens a chromem index. An empty path keeps the index
// in memory; otherwise it is persisted under path.
func NewChromemIndex(path, collection string) (*ChromemIndex, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open vector database: %w", err)
		}
	}

	if collection == "" {
		collection = "memories"
	}
	// Embeddings are always supplied by the caller, so no embedding
	// function is registered.
	col, err := db.GetOrCreateCollection(collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", collection, err)
	}

	return &ChromemIndex{db: db, col: col}, nil
}

// Upsert writes the record's embedding and payload. Re-adding an id
// overwrites the stored document.
func (x *ChromemIndex) Upsert(ctx context.Context, rec *memory.Record, vector []float32) error {
	doc := chromem.Document{
		ID:        rec.ID,
		Content:   rec.Text,
		Embedding: vector,
		Metadata: map[string]string{
			"user_id": rec.UserID,
			"status":  string(rec.Status),
			"type":    string(rec.Type),
			"slot":    rec.Slot,
		},
	}
	if err := x.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document %s: %w", rec.ID, err)
	}
	return nil
}

// Delete removes a document by id
func (x *ChromemIndex) Delete(ctx context.Context, id string) error {
	return x.col.Delete(ctx, nil, nil, id)
}

// Search runs a similarity query scoped to the user. Filters are merged
// into the metadata where clause. chromem rejects result counts larger
// than the (filtered) collection, so the limit is clamped and shrunk
// until the query succeeds.
func (x *ChromemIndex) Search(ctx context.Context, vector []float32, userID string, limit int, filters map[string]string) ([]memory.SearchHit, error) {
	where := map[string]string{"user_id": userID}
	for k, v := range filters {
		where[k] = v
	}

	n := limit
	if count := x.col.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	var (
		results []chromem.Result
		err     error
	)
	for ; n >= 1; n-- {
		results, err = x.col.QueryEmbedding(ctx, vector, n, where, nil)
		if err == nil {
			break
		}
		if !strings.Contains(err.Error(), "nResults") {
			return nil, fmt.Errorf("query embedding: %w", err)
		}
	}
	if err != nil {
		// Nothing matched the filters.
		return nil, nil
	}

	hits := make([]memory.SearchHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, memory.SearchHit{ID: res.ID, Score: float64(res.Similarity)})
	}
	return hits, nil
}
