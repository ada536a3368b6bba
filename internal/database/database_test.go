package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mediamanager/internal/entities"
)

func TestNewDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "media.db")

	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Ping())
	for _, table := range []any{&entities.MediaFile{}, &entities.MediaVariant{}, &entities.AuditEvent{}, &entities.OAuthToken{}} {
		assert.True(t, db.DB.Migrator().HasTable(table))
	}
}

func TestNewDatabase_InMemory(t *testing.T) {
	db, err := NewDatabase(":memory:")
	require.NoError(t, err)
	defer db.Close()

	file := &entities.MediaFile{Path: "images/a.png", Name: "a.png"}
	require.NoError(t, db.DB.Create(file).Error)
	assert.NotZero(t, file.ID)
}

func TestClose(t *testing.T) {
	db, err := NewDatabase(":memory:")
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping())
}
