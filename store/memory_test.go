package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbank/models"
)

func seed(t *testing.T, m *Memory, q models.Question) models.Question {
	t.Helper()
	require.NoError(t, m.Create(context.Background(), &q))
	return q
}

func TestMemorySlugUniqueness(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	a := seed(t, m, models.Question{CategoryID: "cat", Text: "a", Slug: "shared"})
	b := seed(t, m, models.Question{CategoryID: "cat", Text: "b"})
	seed(t, m, models.Question{CategoryID: "other", Text: "c", Slug: "shared"})

	owner, err := m.SlugOwner(ctx, "cat", "shared")
	require.NoError(t, err)
	assert.Equal(t, a.ID, owner)

	assert.ErrorIs(t, m.UpdateSlug(ctx, b.ID, "shared"), ErrSlugConflict)
	assert.NoError(t, m.UpdateSlug(ctx, a.ID, "shared"), "re-assigning own slug is allowed")
	assert.ErrorIs(t, m.Create(ctx, &models.Question{CategoryID: "cat", Slug: "shared"}), ErrSlugConflict)
	assert.ErrorIs(t, m.UpdateSlug(ctx, "missing", "x"), ErrNotFound)
}

func TestMemoryNeighborsOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := seed(t, m, models.Question{ID: "000000000000000000000001", CategoryID: "cat", CreatedAt: base})
	tieLow := seed(t, m, models.Question{ID: "000000000000000000000002", CategoryID: "cat", CreatedAt: base.Add(time.Minute)})
	tieHigh := seed(t, m, models.Question{ID: "000000000000000000000003", CategoryID: "cat", CreatedAt: base.Add(time.Minute)})
	seed(t, m, models.Question{ID: "000000000000000000000004", CategoryID: "elsewhere", CreatedAt: base.Add(time.Second)})

	prev, next, err := m.Neighbors(ctx, &tieLow)
	require.NoError(t, err)
	assert.Equal(t, first.ID, prev)
	assert.Equal(t, tieHigh.ID, next)

	prev, next, err = m.Neighbors(ctx, &first)
	require.NoError(t, err)
	assert.Empty(t, prev)
	assert.Equal(t, tieLow.ID, next)

	prev, next, err = m.Neighbors(ctx, &tieHigh)
	require.NoError(t, err)
	assert.Equal(t, tieLow.ID, prev)
	assert.Empty(t, next)
}

func TestMemoryQueries(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	q := seed(t, m, models.Question{ID: "abc123450000000000000000", CategoryID: "cat", Text: "Photosynthesis happens in Chloroplasts"})
	seed(t, m, models.Question{ID: "fff000000000000000000000", CategoryID: "cat", Text: "Mitochondria"})

	got, err := m.FindByIDPrefix(ctx, "cat", "abc12345")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, q.ID, got[0].ID)

	got, err = m.FindByAnyWord(ctx, "cat", []string{"CHLOROPLASTS", "nucleus"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, q.ID, got[0].ID)

	_, err = m.FindByID(ctx, "other", q.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	missing, err := m.ListWithoutSlug(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, missing, 2)

	require.NoError(t, m.CreateCategory(ctx, &models.Category{Name: "General Knowledge"}))
	c, err := m.FindCategoryByName(ctx, "general KNOWLEDGE")
	require.NoError(t, err)
	assert.Equal(t, "General Knowledge", c.Name)
	_, err = m.FindCategoryByName(ctx, "general")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.ErrorIs(t, m.CreateCategory(ctx, &models.Category{Name: "GENERAL knowledge"}), ErrCategoryExists)
}
