package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/and161185/academy-client/migrations"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)
	for _, n := range names {
		b, err := fs.ReadFile(migrations.FS, n)
		require.NoError(t, err)
		require.True(t, strings.Contains(string(b), "-- +goose Up"), n)
		require.True(t, strings.Contains(string(b), "-- +goose Down"), n)
	}
}

func TestVersionTableIsPrefixed(t *testing.T) {
	t.Parallel()
	require.True(t, strings.HasPrefix(VersionTable, "academy_client_"))
	require.NotEqual(t, "goose_db_version", VersionTable)
}

func TestSlotTableMigration(t *testing.T) {
	t.Parallel()
	b, err := fs.ReadFile(migrations.FS, "00001_credential_slots.sql")
	require.NoError(t, err)
	require.Contains(t, string(b), "CREATE TABLE")
	require.Contains(t, string(b), "credential_slots")
}
