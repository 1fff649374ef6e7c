package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

func TestRunRepo_RecordAndRecent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	first := model.RunRecord{
		Published:     2,
		PublishFailed: 1,
		Deleted:       1,
		StartedAt:     started,
		FinishedAt:    started.Add(4 * time.Second),
	}
	second := model.RunRecord{
		Published:  5,
		StartedAt:  started.Add(time.Hour),
		FinishedAt: started.Add(time.Hour + time.Second),
	}

	id1, err := repo.Record(ctx, first)
	require.NoError(t, err)
	id2, err := repo.Record(ctx, second)
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	runs, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, id2, runs[0].ID)
	assert.Equal(t, 5, runs[0].Published)

	got := runs[1]
	assert.Equal(t, id1, got.ID)
	assert.Equal(t, 2, got.Published)
	assert.Equal(t, 1, got.PublishFailed)
	assert.Equal(t, 1, got.Deleted)
	assert.Equal(t, 0, got.DeleteFailed)
	assert.True(t, got.StartedAt.Equal(first.StartedAt))
	assert.True(t, got.FinishedAt.Equal(first.FinishedAt))
}

func TestRunRepo_RecentLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)
	ctx := context.Background()

	now := time.Now().UTC()
	for range 4 {
		_, err := repo.Record(ctx, model.RunRecord{StartedAt: now, FinishedAt: now})
		require.NoError(t, err)
	}

	runs, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
