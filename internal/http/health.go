package http

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mediamanager/internal/readonly"
)

// Pinger is satisfied by *database.Database.
type Pinger interface {
	Ping() error
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Time     string            `json:"time"`
	Version  string            `json:"version,omitempty"`
	ReadOnly bool              `json:"read_only"`
	Checks   map[string]string `json:"checks"`
}

type HealthController struct {
	db        Pinger
	mediaRoot string
	version   string
}

func NewHealthController(db Pinger, mediaRoot, version string) *HealthController {
	return &HealthController{
		db:        db,
		mediaRoot: mediaRoot,
		version:   version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	if h.mediaRoot != "" {
		if info, err := os.Stat(h.mediaRoot); err != nil {
			checks["media_root"] = "error: " + err.Error()
			status = "unhealthy"
		} else if !info.IsDir() {
			checks["media_root"] = "error: not a directory"
			status = "unhealthy"
		} else {
			checks["media_root"] = "ok"
		}
	}

	health := HealthResponse{
		Status:   status,
		Time:     time.Now().Format(time.RFC3339),
		Version:  h.version,
		ReadOnly: readonly.Enabled(c),
		Checks:   checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
