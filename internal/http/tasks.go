package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/mediamanager/internal/auth"
	"github.com/mrlokans/mediamanager/internal/tasks"
)

// TaskQueue is the part of tasks.Client used by the API.
type TaskQueue interface {
	Add(items ...backlite.Task) *backlite.TaskAddOp
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	client             TaskQueue
	auditRetentionDays int
}

// NewTasksController creates a new TasksController.
func NewTasksController(client TaskQueue, auditRetentionDays int) *TasksController {
	return &TasksController{client: client, auditRetentionDays: auditRetentionDays}
}

func (tc *TasksController) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/tasks/types", tc.ListTaskTypes)
	r.GET("/api/tasks/:id", tc.GetTaskStatus)
	r.POST("/api/tasks/:type/run", auth.RequireManage(), tc.RunTask)
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        "generate_responsive",
			Description: "Create the responsive variants of an image",
			Queue:       tasks.GenerateResponsiveTask{}.Config().Name,
		},
		{
			Type:        "delete_responsive",
			Description: "Remove the responsive variants of an image",
			Queue:       tasks.DeleteResponsiveTask{}.Config().Name,
		},
		{
			Type:        "cleanup_audit_events",
			Description: "Delete audit events past the retention period",
			Queue:       tasks.CleanupAuditEventsTask{}.Config().Name,
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"task_types": types,
	})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	name := tasks.StatusName(status)
	code := http.StatusOK
	if name == "not_found" {
		code = http.StatusNotFound
	}
	c.JSON(code, gin.H{
		"id":     taskID,
		"status": name,
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	MediaID       uint     `json:"media_id,omitempty" form:"media_id"`
	Sizes         []string `json:"sizes,omitempty" form:"sizes"`
	Method        string   `json:"method,omitempty" form:"method"`
	Thumbs        bool     `json:"thumbs,omitempty" form:"thumbs"`
	RetentionDays int      `json:"retention_days,omitempty" form:"retention_days"`
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	var task backlite.Task
	switch taskType {
	case "generate_responsive":
		if req.MediaID == 0 {
			respondBadRequest(c, "media_id is required for generate_responsive task")
			return
		}
		task = tasks.GenerateResponsiveTask{MediaID: req.MediaID, Sizes: req.Sizes, Method: req.Method, Thumbs: req.Thumbs}

	case "delete_responsive":
		if req.MediaID == 0 {
			respondBadRequest(c, "media_id is required for delete_responsive task")
			return
		}
		task = tasks.DeleteResponsiveTask{MediaID: req.MediaID}

	case "cleanup_audit_events":
		days := req.RetentionDays
		if days <= 0 {
			days = tc.auditRetentionDays
		}
		task = tasks.CleanupAuditEventsTask{RetentionDays: days}

	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	ids, err := tc.client.Add(task).Ctx(c.Request.Context()).Save()
	if err != nil {
		respondInternalError(c, err, "enqueue task")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": ids[0],
		"type":    taskType,
		"message": "task enqueued",
	})
}
