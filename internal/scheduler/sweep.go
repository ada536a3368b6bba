package scheduler

import (
	"context"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/tasks"
)

// sweepTimeout bounds one sweep run.
const sweepTimeout = 30 * time.Minute

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Sweeper removes variant files whose source image is gone.
type Sweeper interface {
	Sweep(ctx context.Context) ([]string, error)
}

// TaskQueue enqueues background work.
type TaskQueue interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// SweepConfig configures SweepScheduler.
type SweepConfig struct {
	Enabled  bool
	Schedule string // five-field cron expression
	// AuditRetentionDays is passed to the audit cleanup queued after each
	// sweep. Zero or less skips the cleanup.
	AuditRetentionDays int
}

// SweepResult describes the last finished sweep.
type SweepResult struct {
	At      time.Time `json:"at"`
	Removed int       `json:"removed"`
	Error   string    `json:"error,omitempty"`
}

// SweepScheduler runs the orphaned variant sweep on a cron schedule.
type SweepScheduler struct {
	sweeper Sweeper
	queue   TaskQueue
	cfg     SweepConfig

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSweeping bool
	last       *SweepResult
	cancelFunc context.CancelFunc
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// NewSweepScheduler creates a scheduler. queue may be nil.
func NewSweepScheduler(sweeper Sweeper, cfg SweepConfig, queue TaskQueue) *SweepScheduler {
	return &SweepScheduler{
		sweeper: sweeper,
		queue:   queue,
		cfg:     cfg,
		cron:    cron.New(cron.WithParser(parser)),
	}
}

// Start schedules the sweep when enabled. The scheduler stops when ctx is done.
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.cfg.Enabled {
		log.Info().Msg("sweep scheduler disabled")
		return nil
	}

	if err := ValidateSchedule(s.cfg.Schedule); err != nil {
		return errors.Wrapf(err, "invalid cron schedule %q", s.cfg.Schedule)
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, s.run)
	if err != nil {
		return errors.Wrap(err, "failed to schedule sweep")
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Info().Str("schedule", s.cfg.Schedule).Time("next_run", s.cron.Entry(entryID).Next).
		Msg("sweep scheduler started")

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running sweep and stops the schedule.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	if cancel != nil {
		cancel()
	}
	log.Info().Msg("sweep scheduler stopped")
}

// RunNow sweeps immediately and waits for the result.
func (s *SweepScheduler) RunNow() *SweepResult {
	s.run()
	return s.LastResult()
}

func (s *SweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *SweepScheduler) IsSweeping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSweeping
}

// NextRun returns when the next sweep is due, or nil when not scheduled.
func (s *SweepScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

// LastResult returns the outcome of the last sweep, or nil before the first.
func (s *SweepScheduler) LastResult() *SweepResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	res := *s.last
	return &res
}

func (s *SweepScheduler) run() {
	s.mu.Lock()
	if s.isSweeping {
		s.mu.Unlock()
		log.Info().Msg("sweep skipped, already running")
		return
	}
	s.isSweeping = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	removed, err := s.sweeper.Sweep(ctx)

	result := &SweepResult{At: start, Removed: len(removed)}
	if err != nil {
		result.Error = err.Error()
		log.Error().Err(err).Msg("sweep failed")
	} else {
		log.Info().Int("removed", len(removed)).Dur("took", time.Since(start)).Msg("sweep finished")
	}

	if s.queue != nil && s.cfg.AuditRetentionDays > 0 {
		if _, err := s.queue.Add(tasks.CleanupAuditEventsTask{RetentionDays: s.cfg.AuditRetentionDays}).Save(); err != nil {
			log.Error().Err(err).Msg("failed to queue audit cleanup")
		}
	}

	s.mu.Lock()
	s.isSweeping = false
	s.last = result
	s.mu.Unlock()
}
