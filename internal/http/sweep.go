package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mediamanager/internal/auth"
	"github.com/mrlokans/mediamanager/internal/scheduler"
)

// SweepRunner is implemented by scheduler.SweepScheduler.
type SweepRunner interface {
	RunNow() *scheduler.SweepResult
	LastResult() *scheduler.SweepResult
	NextRun() *time.Time
	IsRunning() bool
	IsSweeping() bool
}

// SweepController triggers and reports the orphaned variant sweep.
type SweepController struct {
	runner SweepRunner
}

func NewSweepController(runner SweepRunner) *SweepController {
	return &SweepController{runner: runner}
}

func (sc *SweepController) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/sweep", sc.Status)
	r.POST("/api/sweep", auth.RequireManage(), sc.Run)
}

// Status handles GET /api/sweep
func (sc *SweepController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scheduled": sc.runner.IsRunning(),
		"sweeping":  sc.runner.IsSweeping(),
		"next_run":  sc.runner.NextRun(),
		"last":      sc.runner.LastResult(),
	})
}

// Run handles POST /api/sweep; it waits for the sweep to finish.
func (sc *SweepController) Run(c *gin.Context) {
	if sc.runner.IsSweeping() {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "sweep already running", Code: "sweep_running"})
		return
	}
	result := sc.runner.RunNow()
	if result != nil && result.Error != "" {
		c.JSON(http.StatusInternalServerError, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
