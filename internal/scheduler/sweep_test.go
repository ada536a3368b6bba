package scheduler

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mediamanager/internal/tasks"
)

type countingSweeper struct {
	calls   atomic.Int32
	removed []string
	err     error
}

func (c *countingSweeper) Sweep(context.Context) ([]string, error) {
	c.calls.Add(1)
	return c.removed, c.err
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("30 3 * * *"))
	assert.NoError(t, ValidateSchedule("*/5 * * * *"))
	assert.Error(t, ValidateSchedule("every day"))
	assert.Error(t, ValidateSchedule("0 30 3 * * *"), "seconds field is not accepted")
}

func TestStart_Disabled(t *testing.T) {
	s := NewSweepScheduler(&countingSweeper{}, SweepConfig{Schedule: "bad"}, nil)
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRun())
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewSweepScheduler(&countingSweeper{}, SweepConfig{Enabled: true, Schedule: "bad"}, nil)
	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestStartStop(t *testing.T) {
	s := NewSweepScheduler(&countingSweeper{}, SweepConfig{Enabled: true, Schedule: "30 3 * * *"}, nil)
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next := s.NextRun()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 30, next.Minute())

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestStop_OnContextCancel(t *testing.T) {
	s := NewSweepScheduler(&countingSweeper{}, SweepConfig{Enabled: true, Schedule: "* * * * *"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestRunNow(t *testing.T) {
	sweeper := &countingSweeper{removed: []string{"a_10x10.png", "b_10x10.png"}}
	s := NewSweepScheduler(sweeper, SweepConfig{}, nil)

	assert.Nil(t, s.LastResult())
	res := s.RunNow()
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Removed)
	assert.Empty(t, res.Error)
	assert.Equal(t, int32(1), sweeper.calls.Load())
	assert.False(t, s.IsSweeping())

	sweeper.err = errors.New("disk gone")
	res = s.RunNow()
	assert.Equal(t, "disk gone", res.Error)
}

func TestRunNow_QueuesAuditCleanup(t *testing.T) {
	client, err := tasks.NewClient(filepath.Join(t.TempDir(), "main.db"), tasks.Config{Workers: 1})
	require.NoError(t, err)
	defer client.Close()

	cleaned := make(chan time.Duration, 1)
	client.Register(tasks.NewCleanupAuditEventsQueue(cleanerFunc(func(d time.Duration) (int64, error) {
		cleaned <- d
		return 0, nil
	})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		client.Stop(stopCtx)
	}()

	s := NewSweepScheduler(&countingSweeper{}, SweepConfig{AuditRetentionDays: 3}, client)
	s.RunNow()

	select {
	case d := <-cleaned:
		assert.Equal(t, 72*time.Hour, d)
	case <-time.After(5 * time.Second):
		t.Fatal("audit cleanup was not executed")
	}
}

type cleanerFunc func(time.Duration) (int64, error)

func (f cleanerFunc) DeleteOldEvents(d time.Duration) (int64, error) { return f(d) }
