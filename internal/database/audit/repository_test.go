package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/mediamanager/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	return db
}

func TestRepository_LogEvent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventUpload,
		Action:      "upload",
		Description: "Uploaded images/cat.png",
		Status:      entities.AuditStatusSuccess,
	}

	err := repo.LogEvent(event)
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_GetEvents(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	for i := 0; i < 15; i++ {
		err := repo.LogEvent(&entities.AuditEvent{
			EventType: entities.AuditEventUpload,
			Action:    "upload",
			Status:    entities.AuditStatusSuccess,
			CreatedAt: time.Now().Add(time.Duration(-i) * time.Hour),
		})
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		err := repo.LogEvent(&entities.AuditEvent{
			EventType: entities.AuditEventDelete,
			Action:    "media_delete",
			Status:    entities.AuditStatusSuccess,
		})
		require.NoError(t, err)
	}

	t.Run("get all events", func(t *testing.T) {
		events, total, err := repo.GetEvents("", 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(20), total)
		assert.Len(t, events, 20)
	})

	t.Run("filter by type", func(t *testing.T) {
		events, total, err := repo.GetEvents(entities.AuditEventDelete, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, events, 5)
	})

	t.Run("pagination", func(t *testing.T) {
		events, total, err := repo.GetEvents(entities.AuditEventUpload, 10, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(15), total)
		assert.Len(t, events, 5)
	})

	t.Run("default limit", func(t *testing.T) {
		events, _, err := repo.GetEvents("", 0, -5)
		require.NoError(t, err)
		assert.Len(t, events, 20)
	})
}

func TestRepository_GetEntityEvents(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	id := uint(7)
	other := uint(8)

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{EventType: entities.AuditEventUpload, EntityType: "media", EntityID: &id}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{EventType: entities.AuditEventResponsive, EntityType: "media", EntityID: &id}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{EventType: entities.AuditEventUpload, EntityType: "media", EntityID: &other}))

	events, err := repo.GetEntityEvents("media", id)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, entities.AuditEventResponsive, events[0].EventType)
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{EventType: entities.AuditEventSweep, CreatedAt: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{EventType: entities.AuditEventSweep}))

	deleted, err := repo.DeleteOldEvents(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err := repo.GetEvents("", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
