package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeeve/playersync/internal/model"
)

func newTestRepo(t *testing.T) *PlayerRepo {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "players.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPlayerRepo(db)
}

func testPlayer(id, name, sport string) model.Player {
	return model.Player{
		ID:    id,
		Name:  name,
		Sport: sport,
		Team:  "Team " + name,
		Age:   30,
		Stats: model.Stats{Matches: 10, RunsOrGoals: 5, Average: 0.5},
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}

func TestCreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, testPlayer("p1", "Alice", "cricket"))
	require.NoError(t, err)
	assert.Equal(t, "p1", created.ID)
	assert.Equal(t, "Alice", created.Name)
	assert.Equal(t, model.Stats{Matches: 10, RunsOrGoals: 5, Average: 0.5}, created.Stats)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.Team, found.Team)
}

func TestFindMissingReturnsNil(t *testing.T) {
	repo := newTestRepo(t)

	p, err := repo.FindByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCreateDuplicateID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, testPlayer("p1", "Alice", "cricket"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testPlayer("p1", "Bob", "cricket"))
	require.Error(t, err)
}

func TestListOrderAndFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, p := range []model.Player{
		testPlayer("b", "Bob", "football"),
		testPlayer("a", "Alice", "cricket"),
		testPlayer("c", "Carol", "football"),
	} {
		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	football, err := repo.List(ctx, "football")
	require.NoError(t, err)
	require.Len(t, football, 2)
	assert.Equal(t, "b", football[0].ID)
	assert.Equal(t, "c", football[1].ID)

	none, err := repo.List(ctx, "tennis")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpdateStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, testPlayer("p1", "Alice", "cricket"))
	require.NoError(t, err)

	updated, err := repo.UpdateStats(ctx, "p1", model.Stats{Matches: 11, RunsOrGoals: 99, Average: 9.9})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 11, updated.Stats.Matches)
	assert.Equal(t, 99, updated.Stats.RunsOrGoals)
	assert.InDelta(t, 9.9, updated.Stats.Average, 1e-9)
	assert.Equal(t, "Alice", updated.Name)

	missing, err := repo.UpdateStats(ctx, "nope", model.Stats{})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteAndCount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, testPlayer("p1", "Alice", "cricket"))
	require.NoError(t, err)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := repo.Delete(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
