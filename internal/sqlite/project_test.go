package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rpggio/autovote/internal/domain/project"
	"github.com/rpggio/autovote/internal/repository"
	"github.com/stretchr/testify/require"
)

func newProject(id string) *project.Project {
	return &project.Project{
		ID:       id,
		Name:     "Server " + id,
		Username: "steve",
		URL:      "https://minecraft-mp.com/server/" + id + "/vote/",
		Interval: 24 * time.Hour,
		Enabled:  true,
	}
}

func TestProjectRepository_CreateGet(t *testing.T) {
	repo := NewProjectRepository(NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newProject("p1")))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Server p1", got.Name)
	require.Equal(t, 24*time.Hour, got.Interval)
	require.True(t, got.Enabled)
	require.Nil(t, got.LastVote)
	require.Zero(t, got.VoteCount)
}

func TestProjectRepository_CreateDuplicate(t *testing.T) {
	repo := NewProjectRepository(NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newProject("p1")))
	err := repo.Create(ctx, newProject("p1"))
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestProjectRepository_GetNotFound(t *testing.T) {
	repo := NewProjectRepository(NewTestDB(t))

	_, err := repo.Get(context.Background(), "nope")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_ListKeepsOrder(t *testing.T) {
	repo := NewProjectRepository(NewTestDB(t))
	ctx := context.Background()

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, empty)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Create(ctx, newProject(id)))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "c", list[0].ID)
	require.Equal(t, "a", list[1].ID)
	require.Equal(t, "b", list[2].ID)
}

func TestProjectRepository_Update(t *testing.T) {
	repo := NewProjectRepository(NewTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newProject("p1")))

	p, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	p.Enabled = false
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.False(t, got.Enabled)

	err = repo.Update(ctx, newProject("missing"))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_Delete(t *testing.T) {
	repo := NewProjectRepository(NewTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newProject("p1")))
	require.NoError(t, repo.Create(ctx, newProject("p2")))

	require.NoError(t, repo.Delete(ctx, "p1"))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "p2", list[0].ID)

	err = repo.Delete(ctx, "p1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_RecordVote(t *testing.T) {
	repo := NewProjectRepository(NewTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newProject("p1")))

	at := time.UnixMilli(1_700_000_000_000)
	got, err := repo.RecordVote(ctx, "p1", at)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.VoteCount)
	require.NotNil(t, got.LastVote)
	require.True(t, got.LastVote.Equal(at))

	got, err = repo.RecordVote(ctx, "p1", at.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(2), got.VoteCount)

	_, err = repo.RecordVote(ctx, "missing", at)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_StoredFormat(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newProject("p1")))
	_, err := repo.RecordVote(ctx, "p1", time.UnixMilli(1000))
	require.NoError(t, err)

	values, err := NewKVStore(db).Get(ctx, KeyProjects)
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(values[KeyProjects], &docs))
	require.Len(t, docs, 1)
	require.EqualValues(t, 86_400_000, docs[0]["interval"])
	require.EqualValues(t, 1000, docs[0]["lastVote"])
	require.EqualValues(t, 1, docs[0]["voteCount"])
}

func TestProjectRepository_CorruptDocument(t *testing.T) {
	db := NewTestDB(t)
	_, err := db.Exec(`INSERT INTO kv (key, value) VALUES ('projects', '{"not":"a list"}')`)
	require.NoError(t, err)

	_, err = NewProjectRepository(db).List(context.Background())
	require.ErrorIs(t, err, repository.ErrCorrupt)
}
