package database

import (
	"context"
	"io/fs"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "postgres scheme", in: "postgres://u:p@h:5432/db?sslmode=disable", want: "pgx5://u:p@h:5432/db?sslmode=disable"},
		{name: "postgresql scheme", in: "postgresql://u@h/db", want: "pgx5://u@h/db"},
		{name: "already pgx5", in: "pgx5://u@h/db", want: "pgx5://u@h/db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, migrationURL(tt.in))
		})
	}
}

func TestMigrations_Embedded(t *testing.T) {
	ups, err := fs.Glob(migrations, "migrations/*.up.sql")
	require.NoError(t, err)

	downs, err := fs.Glob(migrations, "migrations/*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestLockKey(t *testing.T) {
	id := uuid.New()

	assert.Equal(t, LockKey("sync", id), LockKey("sync", id))
	assert.NotEqual(t, LockKey("sync", id), LockKey("import", id))
	assert.NotEqual(t, LockKey("sync", id), LockKey("sync", uuid.New()))
}

func TestNew_RejectsSingleConnectionPool(t *testing.T) {
	_, err := New(context.Background(), "postgres://unused", Pool{MaxOpen: 1})
	assert.ErrorContains(t, err, "at least 2 connections")
}
