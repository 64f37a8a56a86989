package migration

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/crm/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const repoMigrationsPath = "../../../migrations"

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "crm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	require.NoError(t, err)
	return count == 1
}

func TestMigrator_SQLiteUpDown(t *testing.T) {
	db := openSQLite(t)
	path, err := filepath.Abs(repoMigrationsPath)
	require.NoError(t, err)

	m, err := New(db, "sqlite", path, zap.NewNop())
	require.NoError(t, err)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	for _, table := range []string{"crm_companies", "crm_documents", "crm_document_items"} {
		assert.True(t, tableExists(t, db, table), table)
	}

	version, dirty, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// applying again is a no-op
	require.NoError(t, m.Up())

	require.NoError(t, m.Down())
	assert.False(t, tableExists(t, db, "crm_documents"))

	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestMigrator_SQLiteSteps(t *testing.T) {
	db := openSQLite(t)
	path, err := filepath.Abs(repoMigrationsPath)
	require.NoError(t, err)

	m, err := New(db, "sqlite", path, nil)
	require.NoError(t, err)

	require.NoError(t, m.Steps(1))
	assert.True(t, tableExists(t, db, "crm_document_items"))
	require.NoError(t, m.Steps(-1))
	assert.False(t, tableExists(t, db, "crm_document_items"))
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(nil, "mysql", repoMigrationsPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported migration driver")
}

func TestNewFromFS_EmbeddedMigrations(t *testing.T) {
	db := openSQLite(t)

	m, err := NewFromFS(db, "sqlite", migrations.FS, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Up())
	assert.True(t, tableExists(t, db, "crm_documents"))

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, m.GoTo(1), "already at target")
	require.NoError(t, m.Force(1))
}

func TestListMigrationsFS_MatchesDirectory(t *testing.T) {
	embedded, err := ListMigrationsFS(migrations.FS)
	require.NoError(t, err)
	onDisk, err := ListMigrations(repoMigrationsPath)
	require.NoError(t, err)

	assert.NotEmpty(t, embedded)
	assert.Equal(t, onDisk, embedded)
	assert.Contains(t, embedded, "000001_create_crm_documents")
}
