package audit

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/database/audit"
	"github.com/mrlokans/mediamanager/internal/entities"
)

const entityMedia = "media"

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Error().Err(err).Str("action", event.Action).Msg("failed to log audit event")
		}
	}()
}

// Wait blocks until every LogAsync call has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogUpload records an accepted or rejected upload. mediaID is nil for rejections.
func (s *Service) LogUpload(name string, mediaID *uint, ipAddr string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventUpload,
		Action:      "upload",
		Description: "Uploaded " + name,
		EntityType:  entityMedia,
		EntityID:    mediaID,
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	}
	fail(event, err, "upload_rejected", "Rejected "+name)
	s.LogAsync(event)
}

// LogDelete records a media deletion.
func (s *Service) LogDelete(mediaID uint, path string, variants int) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventDelete,
		Action:      "media_delete",
		Description: "Deleted " + path,
		EntityType:  entityMedia,
		EntityID:    &mediaID,
		Metadata:    metadata(map[string]any{"variants": variants}),
		Status:      entities.AuditStatusSuccess,
	}
	s.LogAsync(event)
}

// LogResponsive records creation (created=true) or removal of size variants.
func (s *Service) LogResponsive(mediaID uint, path string, created bool, files []string, err error) {
	action, verb := "variants_created", "Created"
	if !created {
		action, verb = "variants_deleted", "Deleted"
	}

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventResponsive,
		Action:      action,
		Description: verb + " responsive images for " + path,
		EntityType:  entityMedia,
		EntityID:    &mediaID,
		Metadata:    metadata(map[string]any{"files": files}),
		Status:      entities.AuditStatusSuccess,
	}
	fail(event, err, "", "")
	s.LogAsync(event)
}

// LogTransform records an image operation applied to a stored file.
func (s *Service) LogTransform(mediaID uint, path, operation string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventTransform,
		Action:      operation,
		Description: "Applied " + operation + " to " + path,
		EntityType:  entityMedia,
		EntityID:    &mediaID,
		Status:      entities.AuditStatusSuccess,
	}
	fail(event, err, "", "")
	s.LogAsync(event)
}

// LogOAuth records a step of the OAuth1 flow.
func (s *Service) LogOAuth(provider, action, ipAddr string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventOAuth,
		Action:      action,
		Description: "OAuth1 " + action + " for " + provider,
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	}
	fail(event, err, "", "")
	s.LogAsync(event)
}

// LogSweep records a run of the orphan variant sweep.
func (s *Service) LogSweep(removed []string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventSweep,
		Action:      "orphan_sweep",
		Description: "Removed orphaned responsive images",
		Metadata:    metadata(map[string]any{"removed": removed}),
		Status:      entities.AuditStatusSuccess,
	}
	fail(event, err, "", "")
	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events, optionally of one type.
func (s *Service) GetEvents(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(eventType, limit, offset)
}

// MediaHistory returns the audit trail of one media file.
func (s *Service) MediaHistory(mediaID uint) ([]entities.AuditEvent, error) {
	return s.repo.GetEntityEvents(entityMedia, mediaID)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// fail marks event as failed when err is set, optionally renaming it.
func fail(event *entities.AuditEvent, err error, action, description string) {
	if err == nil {
		return
	}
	event.Status = entities.AuditStatusFailed
	event.ErrorMsg = truncate(err.Error(), 500)
	if action != "" {
		event.Action = action
	}
	if description != "" {
		event.Description = description
	}
}

func metadata(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
