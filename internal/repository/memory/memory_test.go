package memory

import (
	"context"
	"testing"
	"time"

	"retention-service/internal/domain/customer"
	"retention-service/internal/domain/history"
	"retention-service/internal/domain/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchHistory_MovesToFrontAndTrims(t *testing.T) {
	repo := NewSearchHistoryRepository()
	ctx := context.Background()

	for _, term := range []string{"a", "b", "c", "a"} {
		require.NoError(t, repo.Add(ctx, &history.Entry{Agency: "Gasme", Term: term}, 3))
	}
	require.NoError(t, repo.Add(ctx, &history.Entry{Agency: "Gasme", Term: "d"}, 3))

	list, err := repo.List(ctx, "Gasme", 10)
	require.NoError(t, err)
	terms := make([]string, len(list))
	for i, e := range list {
		terms[i] = e.Term
	}
	assert.Equal(t, []string{"d", "a", "c"}, terms)

	other, err := repo.List(ctx, "Sierra", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSearchHistory_Remove(t *testing.T) {
	repo := NewSearchHistoryRepository()
	ctx := context.Background()
	for _, term := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Add(ctx, &history.Entry{Agency: "Gasme", Term: term}, 10))
	}

	require.NoError(t, repo.Remove(ctx, "Gasme", "b"))
	list, _ := repo.List(ctx, "Gasme", 10)
	assert.Len(t, list, 2)

	require.NoError(t, repo.Remove(ctx, "Gasme"))
	list, _ = repo.List(ctx, "Gasme", 10)
	assert.Empty(t, list)
}

func TestViewRepository_SaveGetDelete(t *testing.T) {
	repo := NewViewRepository(0, time.Hour)
	ctx := context.Background()

	v := &view.View{
		ID:     "01HZX",
		Agency: "Gasme",
		State:  customer.NewFilterState(customer.Metadata{Models: []string{"Aveo", "Onix"}}),
		Page:   2,
	}
	v.State.Models.Toggle("Aveo")
	require.NoError(t, repo.Save(ctx, v))

	got, err := repo.Get(ctx, "01HZX")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, []string{"Onix"}, got.State.Models.Selected())

	// Mutating the copy does not touch the stored view.
	got.Page = 9
	again, err := repo.Get(ctx, "01HZX")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Page)

	require.NoError(t, repo.Delete(ctx, "01HZX"))
	_, err = repo.Get(ctx, "01HZX")
	assert.ErrorIs(t, err, view.ErrViewNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "01HZX"), view.ErrViewNotFound)
}
