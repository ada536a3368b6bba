package audit

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	auditRepo "github.com/mrlokans/mediamanager/internal/database/audit"
	"github.com/mrlokans/mediamanager/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	repo := auditRepo.NewRepository(db)
	svc := NewService(repo)

	return svc, db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventUpload,
		Action:      "test_upload",
		Description: "Test upload event",
		Status:      entities.AuditStatusSuccess,
	}

	err := svc.Log(event)
	require.NoError(t, err)

	var saved entities.AuditEvent
	err = db.First(&saved, event.ID).Error
	require.NoError(t, err)
	assert.Equal(t, "test_upload", saved.Action)
}

func TestService_LogUpload(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("accepted upload", func(t *testing.T) {
		id := uint(3)
		svc.LogUpload("cat.png", &id, "10.0.0.1", nil)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "upload").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, "Uploaded cat.png", event.Description)
		require.NotNil(t, event.EntityID)
		assert.Equal(t, uint(3), *event.EntityID)
		assert.Equal(t, "10.0.0.1", event.IPAddress)
	})

	t.Run("rejected upload", func(t *testing.T) {
		svc.LogUpload("evil.php", nil, "10.0.0.1", errors.New("file type not permitted"))
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "upload_rejected").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
		assert.Equal(t, "Rejected evil.php", event.Description)
		assert.Contains(t, event.ErrorMsg, "not permitted")
		assert.Nil(t, event.EntityID)
	})
}

func TestService_LogResponsive(t *testing.T) {
	svc, _ := setupTestService(t)

	svc.LogResponsive(5, "images/cat.png", true, []string{"images/responsive/cat_400x200.png"}, nil)
	svc.LogResponsive(5, "images/cat.png", false, nil, errors.New("disk full"))
	svc.Wait()

	events, err := svc.MediaHistory(5)
	require.NoError(t, err)
	require.Len(t, events, 2)

	actions := []string{events[0].Action, events[1].Action}
	assert.ElementsMatch(t, []string{"variants_created", "variants_deleted"}, actions)
	for _, e := range events {
		if e.Action == "variants_created" {
			assert.Contains(t, e.Metadata, "cat_400x200.png")
			assert.Equal(t, entities.AuditStatusSuccess, e.Status)
		} else {
			assert.Equal(t, entities.AuditStatusFailed, e.Status)
		}
	}
}

func TestService_OtherEvents(t *testing.T) {
	svc, _ := setupTestService(t)

	svc.LogDelete(1, "images/a.png", 3)
	svc.LogTransform(1, "images/a.png", "rotate", nil)
	svc.LogOAuth("default", "connect", "127.0.0.1", nil)
	svc.LogSweep([]string{"images/responsive/old_10x10.png"}, nil)
	svc.Wait()

	all, total, err := svc.GetEvents("", 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 4)

	sweeps, _, err := svc.GetEvents(entities.AuditEventSweep, 50, 0)
	require.NoError(t, err)
	require.Len(t, sweeps, 1)
	assert.Contains(t, sweeps[0].Metadata, "old_10x10.png")

	deletes, _, err := svc.GetEvents(entities.AuditEventDelete, 50, 0)
	require.NoError(t, err)
	require.Len(t, deletes, 1)
	assert.JSONEq(t, `{"variants":3}`, deletes[0].Metadata)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, _ := setupTestService(t)

	require.NoError(t, svc.Log(&entities.AuditEvent{EventType: entities.AuditEventSweep, CreatedAt: time.Now().Add(-72 * time.Hour)}))
	require.NoError(t, svc.Log(&entities.AuditEvent{EventType: entities.AuditEventSweep}))

	deleted, err := svc.DeleteOldEvents(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := strings.Repeat("a", 20)
	assert.Equal(t, "aaaaaaa...", truncate(long, 10))
}
