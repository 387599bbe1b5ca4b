package migration

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// repoMigrations is the checked-in migrations directory
var repoMigrations = filepath.Join("..", "..", "..", "migrations")

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrator_SQLiteUpDown(t *testing.T) {
	db := openSQLite(t)
	m, err := New(db, DriverSQLite, repoMigrations, zap.NewNop())
	require.NoError(t, err)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	require.NoError(t, m.Up())

	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	_, err = db.Exec(`INSERT INTO kv_entries (entry_key, entry_value, updated_at) VALUES ('admins', '[]', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	require.NoError(t, m.Down())
	_, err = db.Exec(`SELECT 1 FROM kv_entries`)
	assert.Error(t, err)
}

func TestMigrator_Steps(t *testing.T) {
	m, err := New(openSQLite(t), DriverSQLite, repoMigrations, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Steps(1))
	version, _, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, m.Steps(-1))
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(nil, "mysql", repoMigrations, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported migration driver")
}

func TestRepoMigrationsArePaired(t *testing.T) {
	names, err := ListMigrations(repoMigrations)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	for _, name := range names {
		_, err := os.Stat(filepath.Join(repoMigrations, name+".down.sql"))
		assert.NoError(t, err, name)
	}
}
