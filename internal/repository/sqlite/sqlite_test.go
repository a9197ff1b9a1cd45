package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"organigram/internal/domain"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

func strPtr(s string) *string {
	return &s
}

func testSnapshot() *domain.Snapshot {
	snap := domain.NewSnapshot()
	snap.AddContainer(domain.ContainerRecord{
		DN:         "ou=Sales,dc=corp",
		Name:       "Sales",
		Manager:    strPtr("uid=boss,ou=Sales,dc=corp"),
		Attributes: map[string]string{"level": "2", "site": "Paris"},
	})
	snap.AddContainer(domain.ContainerRecord{DN: "ou=Lab,dc=other", Manager: strPtr("")})
	snap.AddContainer(domain.ContainerRecord{DN: "ou=Ops,dc=corp"})
	snap.AddAgent(domain.AgentRecord{
		DN:         "uid=boss,ou=Sales,dc=corp",
		ID:         7,
		LastName:   "Boss",
		FirstName:  "Ada",
		Email:      "ada@corp",
		Status:     domain.StatusTrainee,
		OtherPosts: []string{"uid=b2,ou=Lab,dc=other"},
	})
	snap.AddAgent(domain.AgentRecord{DN: "uid=x,ou=Sales,dc=corp", LastName: "Xu", Manager: "uid=boss,ou=Sales,dc=corp", Replaces: "uid=y"})
	snap.AddAgent(domain.AgentRecord{DN: "uid=b2,ou=Lab,dc=other", LastName: "Boss"})
	return snap
}

func TestImportAndSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	snap := testSnapshot()

	require.NoError(t, repo.ImportSnapshot(ctx, snap))

	got, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	agents, containers, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, agents)
	assert.Equal(t, 3, containers)
}

func TestImportReplacesExistingData(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.ImportSnapshot(ctx, testSnapshot()))

	next := domain.NewSnapshot()
	next.AddAgent(domain.AgentRecord{DN: "uid=solo", LastName: "Solo"})
	next.AddAgent(domain.AgentRecord{DN: "UID=solo", LastName: "Again"})
	require.NoError(t, repo.ImportSnapshot(ctx, next))

	agents, containers, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, agents)
	assert.Equal(t, 0, containers)

	e, err := repo.Lookup(ctx, "uid=solo")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Solo", e.LastName)
}

func TestDirectoryQueries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.ImportSnapshot(ctx, testSnapshot()))

	t.Run("feeds are scoped to base", func(t *testing.T) {
		agents, err := repo.Agents(ctx, "DC=corp")
		require.NoError(t, err)
		require.Len(t, agents, 2)
		assert.Equal(t, "uid=boss,ou=Sales,dc=corp", agents[0].DN)
		assert.Equal(t, "uid=x,ou=Sales,dc=corp", agents[1].DN)

		containers, err := repo.Containers(ctx, "dc=corp")
		require.NoError(t, err)
		require.Len(t, containers, 2)
		assert.Equal(t, "Paris", containers[0].Attributes["site"])
		assert.Nil(t, containers[1].Manager)
	})

	t.Run("lookup sees the whole directory", func(t *testing.T) {
		e, err := repo.Lookup(ctx, "uid=b2, ou=lab, dc=other")
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Equal(t, "Boss", e.LastName)
	})

	t.Run("lookup of unknown path", func(t *testing.T) {
		e, err := repo.Lookup(ctx, "uid=nobody")
		assert.NoError(t, err)
		assert.Nil(t, e)
	})

	t.Run("manager tri-state survives storage", func(t *testing.T) {
		containers, err := repo.Containers(ctx, "")
		require.NoError(t, err)
		require.Len(t, containers, 3)
		require.NotNil(t, containers[1].Manager)
		assert.Equal(t, "", *containers[1].Manager)
	})

	assert.Equal(t, "sqlite::memory:", repo.Name())
}
