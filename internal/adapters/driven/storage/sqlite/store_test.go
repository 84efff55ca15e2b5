package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raildock/raildoc/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleArtifact(id string, category domain.Category, createdAt time.Time) *domain.BatchArtifact {
	return &domain.BatchArtifact{
		ID:           id,
		Category:     category,
		CategoryName: category.DisplayName(),
		CreatedAt:    createdAt,
		TotalCount:   1,
		RunMetadata:  map[string]any{"site": "depot-3"},
		Items: []domain.ArtifactItem{
			{
				Index:        1,
				SourceFile:   "0001.json",
				RawDocument:  "[Component]\nrail clip\n",
				ParsedFields: map[string]string{"component": "rail clip"},
			},
		},
	}
}

func TestSaveAndGetArtifact(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	saved := sampleArtifact("RPT-20260825-AAAAAA", domain.CategoryRail, created)
	require.NoError(t, store.SaveArtifact(ctx, saved))

	got, err := store.GetArtifact(ctx, saved.ID)
	require.NoError(t, err)

	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, domain.CategoryRail, got.Category)
	assert.Equal(t, "rail_inspection_report", got.CategoryName)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, "depot-3", got.RunMetadata["site"])
	require.Len(t, got.Items, 1)
	assert.Equal(t, "rail clip", got.Items[0].ParsedFields["component"])
}

func TestGetArtifact_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetArtifact(context.Background(), "RPT-00000000-000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveArtifact_ReplacesExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := time.Now().UTC()

	artifact := sampleArtifact("RPT-20260825-BBBBBB", domain.CategoryNest, created)
	require.NoError(t, store.SaveArtifact(ctx, artifact))

	artifact.TotalCount = 5
	require.NoError(t, store.SaveArtifact(ctx, artifact))

	got, err := store.GetArtifact(ctx, artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TotalCount)
}

func TestListArtifacts_NewestFirstAndFiltered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveArtifact(ctx, sampleArtifact("RPT-A", domain.CategoryRail, base)))
	require.NoError(t, store.SaveArtifact(ctx, sampleArtifact("RPT-B", domain.CategoryRail, base.Add(time.Hour))))
	require.NoError(t, store.SaveArtifact(ctx, sampleArtifact("RPT-C", domain.CategoryNest, base.Add(2*time.Hour))))

	rail, err := store.ListArtifacts(ctx, domain.CategoryRail)
	require.NoError(t, err)
	require.Len(t, rail, 2)
	assert.Equal(t, "RPT-B", rail[0].ID)
	assert.Equal(t, "RPT-A", rail[1].ID)

	all, err := store.ListArtifacts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSaveArtifact_NoRunMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	artifact := sampleArtifact("RPT-D", domain.CategoryInsulator, time.Now().UTC())
	artifact.RunMetadata = nil
	require.NoError(t, store.SaveArtifact(ctx, artifact))

	got, err := store.GetArtifact(ctx, "RPT-D")
	require.NoError(t, err)
	assert.Nil(t, got.RunMetadata)
}
