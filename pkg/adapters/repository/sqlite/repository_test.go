package sqlite

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-link-registry/pkg/adapters/repository/repositorytest"
	"github.com/wadjakorntonsri/go-link-registry/pkg/ports"
)

func newTestRepo(t *testing.T) ports.LinkRepository {
	t.Helper()
	repo, err := NewSQLiteRepository("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	repositorytest.Run(t, newTestRepo)
}

func TestSQLiteRepositoryFile(t *testing.T) {
	repositorytest.Run(t, func(t *testing.T) ports.LinkRepository {
		repo, err := NewSQLiteRepository("file:" + t.TempDir() + "/links.sqlite")
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	repo, err := NewSQLiteRepository("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, migrate(repo.db))
}

func TestIsRemoteURL(t *testing.T) {
	assert.True(t, IsRemoteURL("libsql://links-example.turso.io"))
	assert.True(t, IsRemoteURL("wss://links-example.turso.io"))
	assert.False(t, IsRemoteURL("file:db.sqlite"))
	assert.False(t, IsRemoteURL(":memory:"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(assert.AnError))
}
