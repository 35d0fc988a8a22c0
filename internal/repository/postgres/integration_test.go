//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/freeeve/playersync/internal/model"
	"github.com/freeeve/playersync/internal/testutil"
)

var testDB *sql.DB

func setup(t *testing.T) *PlayerRepo {
	t.Helper()
	if testDB == nil {
		testDB = testutil.SetupDB(t)
	}
	if err := Migrate(context.Background(), testDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	testutil.CleanupDB(t, testDB)
	return NewPlayerRepo(testDB)
}

func createTestPlayer(t *testing.T, repo *PlayerRepo, id, sport string) *model.Player {
	t.Helper()
	p, err := repo.Create(context.Background(), model.Player{
		ID:    id,
		Name:  "Player " + id,
		Sport: sport,
		Team:  "Team " + id,
		Age:   28,
		Stats: model.Stats{Matches: 10, RunsOrGoals: 4, Average: 0.4},
	})
	if err != nil {
		t.Fatalf("create test player: %v", err)
	}
	return p
}

func TestPlayerRepo_CreateAndFind(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	created := createTestPlayer(t, repo, "p1", "cricket")
	if created.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	found, err := repo.FindByID(ctx, "p1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil || found.Name != "Player p1" || found.Stats.RunsOrGoals != 4 {
		t.Errorf("unexpected player: %+v", found)
	}

	missing, err := repo.FindByID(ctx, "nope")
	if err != nil {
		t.Fatalf("FindByID missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing player, got %+v", missing)
	}
}

func TestPlayerRepo_ListFiltersAndOrders(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	createTestPlayer(t, repo, "a", "cricket")
	createTestPlayer(t, repo, "b", "football")
	createTestPlayer(t, repo, "c", "cricket")

	all, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[2].ID != "c" {
		t.Errorf("expected insertion order a,b,c; got %+v", all)
	}

	cricket, err := repo.List(ctx, "cricket")
	if err != nil {
		t.Fatalf("List cricket: %v", err)
	}
	if len(cricket) != 2 {
		t.Errorf("expected 2 cricket players, got %d", len(cricket))
	}

	none, err := repo.List(ctx, "tennis")
	if err != nil {
		t.Fatalf("List tennis: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", none)
	}
}

func TestPlayerRepo_UpdateStatsAndDelete(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	createTestPlayer(t, repo, "p1", "football")

	updated, err := repo.UpdateStats(ctx, "p1", model.Stats{Matches: 11, RunsOrGoals: 5, Average: 0.45})
	if err != nil {
		t.Fatalf("UpdateStats: %v", err)
	}
	if updated == nil || updated.Stats.Matches != 11 || updated.Name != "Player p1" {
		t.Errorf("unexpected updated player: %+v", updated)
	}

	none, err := repo.UpdateStats(ctx, "nope", model.Stats{})
	if err != nil || none != nil {
		t.Errorf("expected nil, nil for missing player; got %+v, %v", none, err)
	}

	deleted, err := repo.Delete(ctx, "p1")
	if err != nil || !deleted {
		t.Fatalf("Delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = repo.Delete(ctx, "p1")
	if err != nil || deleted {
		t.Errorf("second delete should report false; deleted=%v err=%v", deleted, err)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 0 {
		t.Errorf("expected empty table, got %d (%v)", n, err)
	}
}

func TestPlayerRepo_ListOrdersTiedTimestampsByInsertion(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	// One transaction gives every row the same now(); ids sort opposite to
	// insertion order.
	tx, err := testDB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, id := range []string{"zz", "mm", "aa"} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO players (id, name, sport) VALUES ($1, $2, 'cricket')`, id, "Player "+id); err != nil {
			tx.Rollback()
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	players, err := repo.List(ctx, "cricket")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var got []string
	for _, p := range players {
		got = append(got, p.ID)
	}
	want := []string{"zz", "mm", "aa"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("expected insertion order %v, got %v", want, got)
	}
	if !players[0].CreatedAt.Equal(players[2].CreatedAt) {
		t.Errorf("rows should share created_at, got %v and %v", players[0].CreatedAt, players[2].CreatedAt)
	}
}
