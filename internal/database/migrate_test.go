package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, names, "migrations/000001_init.up.sql")
	assert.Contains(t, names, "migrations/000001_init.down.sql")
}

func TestMigrateDownRejectsNonPositiveSteps(t *testing.T) {
	err := MigrateDown("postgres://unused", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps must be > 0")
}
