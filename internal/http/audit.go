package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mediamanager/internal/audit"
	"github.com/mrlokans/mediamanager/internal/entities"
)

type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

func (ac *AuditController) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/audit", ac.GetAuditEvents)
	r.GET("/api/media/:id/history", ac.MediaHistory)
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/audit?type=upload&page=1&limit=25
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}
	offset := (page - 1) * limit

	events, total, err := ac.auditService.GetEvents(entities.AuditEventType(c.Query("type")), limit, offset)
	if err != nil {
		respondInternalError(c, err, "audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}

// MediaHistory returns the audit trail of one media file.
// GET /api/media/:id/history
func (ac *AuditController) MediaHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	events, err := ac.auditService.MediaHistory(id)
	if err != nil {
		respondInternalError(c, err, "media history")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"media_id": id, "events": events})
}
