package vector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-marczewski/temporalmem/internal/memory"
)

func newTestIndex(t *testing.T) *ChromemIndex {
	t.Helper()
	idx, err := NewChromemIndex("", "")
	require.NoError(t, err)
	return idx
}

func activeRecord(id, userID, text string) *memory.Record {
	return &memory.Record{
		ID:        id,
		UserID:    userID,
		Text:      text,
		Type:      memory.Other,
		Status:    memory.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, activeRecord("m1", "u1", "close match"), []float32{1, 0, 0}))
	require.NoError(t, idx.Upsert(ctx, activeRecord("m2", "u1", "far match"), []float32{0, 1, 0}))
	require.NoError(t, idx.Upsert(ctx, activeRecord("m3", "u1", "middling match"), []float32{0.7, 0.7, 0}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, "u1", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "m1", hits[0].ID)
	assert.Equal(t, "m3", hits[1].ID)
	assert.Equal(t, "m2", hits[2].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.Greater(t, hits[1].Score, hits[2].Score)
}

func TestSearchScopedToUser(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, activeRecord("m1", "u1", "mine"), []float32{1, 0, 0}))
	require.NoError(t, idx.Upsert(ctx, activeRecord("m2", "u2", "theirs"), []float32{1, 0, 0}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, "u1", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "m1", hits[0].ID)
}

func TestSearchMetadataFilters(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	pref := activeRecord("m1", "u1", "prefers tea")
	pref.Type = memory.Preference
	archived := activeRecord("m2", "u1", "old address")
	archived.Status = memory.StatusArchived

	require.NoError(t, idx.Upsert(ctx, pref, []float32{1, 0, 0}))
	require.NoError(t, idx.Upsert(ctx, archived, []float32{1, 0, 0}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, "u1", 10, map[string]string{
		"status": string(memory.StatusActive),
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "m1", hits[0].ID)

	hits, err = idx.Search(ctx, []float32{1, 0, 0}, "u1", 10, map[string]string{
		"type": string(memory.Preference),
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "m1", hits[0].ID)
}

func TestSearchLimitLargerThanCollection(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, activeRecord("m1", "u1", "only one"), []float32{1, 0, 0}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, "u1", 50, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := newTestIndex(t)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, "u1", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestUpsertOverwritesExisting(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	rec := activeRecord("m1", "u1", "first version")
	require.NoError(t, idx.Upsert(ctx, rec, []float32{1, 0, 0}))

	rec.Status = memory.StatusArchived
	require.NoError(t, idx.Upsert(ctx, rec, []float32{1, 0, 0}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, "u1", 10, map[string]string{
		"status": string(memory.StatusActive),
	})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Upsert(ctx, activeRecord("m1", "u1", "gone soon"), []float32{1, 0, 0}))
	require.NoError(t, idx.Delete(ctx, "m1"))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, "u1", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
