package http

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mediamanager/internal/entities"
	"github.com/mrlokans/mediamanager/internal/scheduler"
	"github.com/mrlokans/mediamanager/internal/tasks"
)

type noopGenerator struct{}

func (noopGenerator) GenerateResponsive(context.Context, uint, []string, string, bool) ([]entities.MediaVariant, error) {
	return nil, nil
}

func (noopGenerator) DeleteResponsive(context.Context, uint) ([]string, error) { return nil, nil }

type noopCleaner struct{}

func (noopCleaner) DeleteOldEvents(time.Duration) (int64, error) { return 0, nil }

// setupTasksRouter returns a router over a client that is never started, so
// queued tasks stay pending.
func setupTasksRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client, err := tasks.NewClient(filepath.Join(t.TempDir(), "main.db"), tasks.Config{Workers: 1})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	client.Register(
		tasks.NewGenerateResponsiveQueue(noopGenerator{}),
		tasks.NewDeleteResponsiveQueue(noopGenerator{}),
		tasks.NewCleanupAuditEventsQueue(noopCleaner{}),
	)

	return NewRouter(RouterConfig{TaskClient: client, AuditRetentionDays: 14})
}

func TestTasksController_ListTaskTypes(t *testing.T) {
	router := setupTasksRouter(t)

	w := doRequest(router, http.MethodGet, "/api/tasks/types", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[map[string][]TaskTypeInfo](t, w)
	var queues []string
	for _, info := range resp["task_types"] {
		queues = append(queues, info.Queue)
	}
	assert.Equal(t, []string{"generate_responsive", "delete_responsive", "cleanup_audit_events"}, queues)
}

func TestTasksController_RunTask(t *testing.T) {
	router := setupTasksRouter(t)

	t.Run("enqueues and reports status", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/tasks/generate_responsive/run", `{"media_id":3,"sizes":["20x10"]}`, nil)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
		taskID := decode[map[string]string](t, w)["task_id"]
		require.NotEmpty(t, taskID)

		w = doRequest(router, http.MethodGet, "/api/tasks/"+taskID, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pending", decode[map[string]string](t, w)["status"])
	})

	t.Run("cleanup uses configured retention", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/tasks/cleanup_audit_events/run", "", nil)
		assert.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	})

	t.Run("requires media id", func(t *testing.T) {
		for _, taskType := range []string{"generate_responsive", "delete_responsive"} {
			w := doJSON(router, http.MethodPost, "/api/tasks/"+taskType+"/run", `{}`, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, taskType)
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/tasks/rebuild_index/run", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unknown task type")
	})
}

type fakeSweepRunner struct {
	last     *scheduler.SweepResult
	sweeping bool
	runs     int
}

func (f *fakeSweepRunner) RunNow() *scheduler.SweepResult {
	f.runs++
	f.last = &scheduler.SweepResult{At: time.Now(), Removed: 2}
	return f.last
}

func (f *fakeSweepRunner) LastResult() *scheduler.SweepResult { return f.last }
func (f *fakeSweepRunner) NextRun() *time.Time                { return nil }
func (f *fakeSweepRunner) IsRunning() bool                    { return false }
func (f *fakeSweepRunner) IsSweeping() bool                   { return f.sweeping }

func TestSweepController(t *testing.T) {
	gin.SetMode(gin.TestMode)
	runner := &fakeSweepRunner{}
	router := NewRouter(RouterConfig{Sweeper: runner})

	w := doRequest(router, http.MethodGet, "/api/sweep", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"scheduled":false,"sweeping":false,"next_run":null,"last":null}`, w.Body.String())

	w = doRequest(router, http.MethodPost, "/api/sweep", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[scheduler.SweepResult](t, w).Removed)
	assert.Equal(t, 1, runner.runs)

	runner.sweeping = true
	w = doRequest(router, http.MethodPost, "/api/sweep", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, runner.runs)
}
