package tasks

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client runs background work on backlite with its own SQLite database.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config

	mu      sync.RWMutex
	started bool
}

// TasksDBPath returns the queue database used next to mainDBPath:
// "data/media.db" -> "data/media-tasks.db".
func TasksDBPath(mainDBPath string) string {
	if mainDBPath == "" || mainDBPath == ":memory:" {
		return "mediamanager-tasks.db"
	}
	dir := filepath.Dir(mainDBPath)
	base := filepath.Base(mainDBPath)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+"-tasks"+ext)
}

// NewClient opens the queue database next to mainDBPath and installs the
// backlite schema.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	path := TasksDBPath(mainDBPath)

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open tasks database")
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          newLogger(log.Logger),
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create backlite client")
	}

	if err := client.Install(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to install backlite schema")
	}

	return &Client{
		client: client,
		db:     db,
		config: cfg,
	}, nil
}

// Register adds queues. Call before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start begins processing. It does not block.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Info().Int("workers", c.config.Workers).Msg("task queue started")
	c.client.Start(ctx)
}

// Stop waits for running tasks. It reports whether they all finished
// before ctx expired.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started {
		return true
	}

	log.Info().Msg("stopping task queue")
	ok := c.client.Stop(ctx)
	if ok {
		log.Info().Msg("task queue stopped gracefully")
	} else {
		log.Warn().Msg("task queue stopped with timeout, some tasks may not have completed")
	}
	return ok
}

// Close releases the database. Call after Stop.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Add starts an operation enqueueing tasks; finish it with Save.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

// Status returns the status of a task by ID.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.client.Status(ctx, taskID)
}

// DB returns the queue database, e.g. for the backlite UI.
func (c *Client) DB() *sql.DB {
	return c.db
}

// StatusName names a backlite task status for API responses.
func StatusName(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// logger adapts zerolog to backlite.Logger.
type logger struct {
	log zerolog.Logger
}

func newLogger(l zerolog.Logger) *logger {
	return &logger{log: l.With().Str("component", "tasks").Logger()}
}

func (l *logger) Info(message string, params ...any) {
	l.log.Info().Fields(params).Msg(message)
}

func (l *logger) Error(message string, params ...any) {
	l.log.Error().Fields(params).Msg(message)
}
