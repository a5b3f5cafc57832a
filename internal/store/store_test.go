package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaderboard/internal/config"
	"leaderboard/internal/student"
)

func TestOpenMemory(t *testing.T) {
	b, err := Open(context.Background(), config.App{DBBackend: "memory"})
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "memory", b.Name)
	assert.True(t, b.Healthy(context.Background()))
	require.NoError(t, b.Migrate(context.Background()))
}

func TestOpenSQLiteFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "leaderboard.db")
	b, err := Open(ctx, config.App{DBBackend: "sqlite", SQLitePath: path})
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Migrate(ctx))
	_, err = b.Students.Create(ctx, student.Record{StudentID: "A1", Department: "CSE"})
	require.NoError(t, err)
	rec, err := b.Students.FetchByID(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "CSE", rec.Department)
	assert.True(t, b.Healthy(ctx))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.App{DBBackend: "cassandra"})
	assert.ErrorContains(t, err, "cassandra")
}

func TestRedisHealthyWithoutServer(t *testing.T) {
	var r *Redis
	assert.False(t, r.Healthy(context.Background()))
	assert.NoError(t, r.Close())
}
