package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"emperror.dev/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/audit"
	"github.com/mrlokans/mediamanager/internal/auth"
	"github.com/mrlokans/mediamanager/internal/config"
	"github.com/mrlokans/mediamanager/internal/database"
	auditrepo "github.com/mrlokans/mediamanager/internal/database/audit"
	mediarepo "github.com/mrlokans/mediamanager/internal/database/media"
	http_controllers "github.com/mrlokans/mediamanager/internal/http"
	"github.com/mrlokans/mediamanager/internal/imaging"
	"github.com/mrlokans/mediamanager/internal/media"
	"github.com/mrlokans/mediamanager/internal/scheduler"
	"github.com/mrlokans/mediamanager/internal/services"
	"github.com/mrlokans/mediamanager/internal/tasks"
	"github.com/mrlokans/mediamanager/internal/tokenstore"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the wired service.
type App struct {
	Config   *config.Config
	DB       *database.Database
	Auditor  *audit.Service
	Media    *services.MediaService
	Tokens   *tokenstore.TokenStore
	Tasks    *tasks.Client // nil when the task queue is disabled
	Sweep    *scheduler.SweepScheduler
	Sessions *auth.SessionManager
	Limiter  *auth.RateLimiter
	Router   *gin.Engine

	cancel context.CancelFunc
}

// NewMediaService builds the media service from cfg. queue and auditor may be nil.
func NewMediaService(cfg *config.Config, store services.MediaStore, queue services.TaskQueue, auditor services.Auditor) (*services.MediaService, error) {
	dirs, err := media.ParseLocalDirectories(cfg.Media.LocalDirectories)
	if err != nil {
		return nil, err
	}

	method := imaging.ScaleInside
	if cfg.Media.CreationMethod != "" {
		if method, err = imaging.ParseScaleMethod(cfg.Media.CreationMethod); err != nil {
			return nil, errors.Wrap(err, "MEDIA_CREATION_METHOD")
		}
	}
	for _, size := range cfg.Media.ResponsiveSizes {
		if _, _, err := imaging.ParseSize(size); err != nil {
			return nil, errors.Wrap(err, "MEDIA_RESPONSIVE_SIZES")
		}
	}

	imaging.SetMaxPixels(cfg.Upload.MaxPixels)

	return services.NewMediaService(store, media.NewHelper(cfg.Upload.UploadOptions()), services.MediaConfig{
		Root:        cfg.Media.Root,
		BaseURL:     cfg.Media.BaseURL,
		Directories: dirs,
		Sizes:       cfg.Media.ResponsiveSizes,
		Method:      method,
		Thumbs:      cfg.Media.Thumbs,
		BestQuality: cfg.Media.BestQuality,
	}, queue, auditor), nil
}

// prepareMediaRoot creates the media root and its upload directories and
// checks the root is writable.
func prepareMediaRoot(cfg *config.Config) error {
	dirs, err := media.ParseLocalDirectories(cfg.Media.LocalDirectories)
	if err != nil {
		return err
	}
	for _, dir := range append([]string{""}, dirs...) {
		if err := os.MkdirAll(filepath.Join(cfg.Media.Root, dir), 0o755); err != nil {
			return errors.Wrapf(err, "failed to create media directory %q", dir)
		}
	}

	marker := filepath.Join(cfg.Media.Root, ".mediamanager")
	f, err := os.Create(marker)
	if err != nil {
		return errors.Wrapf(err, "media root %s is not writable", cfg.Media.Root)
	}
	f.Close()
	return os.Remove(marker)
}

func csrfSecret(configured string) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		// not hex, use as raw bytes
		return []byte(configured), nil
	}

	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate CSRF secret")
	}
	log.Info().Msg("generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(secret)
}

// NewApp opens the databases and wires every component. Background work
// starts with Start.
func NewApp(cfg *config.Config, version string) (app *App, err error) {
	app = &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
			app = nil
		}
	}()

	if err := prepareMediaRoot(cfg); err != nil {
		return app, err
	}

	if app.DB, err = database.NewDatabase(cfg.Database.Path); err != nil {
		return app, err
	}
	sqlDB, err := app.DB.DB.DB()
	if err != nil {
		return app, errors.Wrap(err, "failed to get SQL DB for sessions")
	}

	app.Auditor = audit.NewService(auditrepo.NewRepository(app.DB.DB))

	app.Tokens, err = tokenstore.New(app.DB.DB, tokenstore.Config{
		EncryptionKey: cfg.Tokens.EncryptionKey,
		KeyFilePath:   cfg.Tokens.KeyFile,
	})
	if err != nil {
		return app, err
	}

	var queue services.TaskQueue
	if cfg.Tasks.Enabled {
		app.Tasks, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		})
		if err != nil {
			return app, errors.Wrap(err, "failed to initialize task queue")
		}
		queue = app.Tasks
	}

	app.Media, err = NewMediaService(cfg, mediarepo.NewRepository(app.DB.DB), queue, app.Auditor)
	if err != nil {
		return app, err
	}

	var sweepQueue scheduler.TaskQueue
	if app.Tasks != nil {
		app.Tasks.Register(
			tasks.NewGenerateResponsiveQueue(app.Media),
			tasks.NewDeleteResponsiveQueue(app.Media),
			tasks.NewCleanupAuditEventsQueue(app.Auditor),
		)
		sweepQueue = app.Tasks
	}
	app.Sweep = scheduler.NewSweepScheduler(app.Media, scheduler.SweepConfig{
		Enabled:            cfg.Sweep.Enabled,
		Schedule:           cfg.Sweep.Schedule,
		AuditRetentionDays: cfg.Audit.RetentionDays,
	}, sweepQueue)

	if app.Sessions, err = auth.NewSessionManager(sqlDB, cfg.Auth); err != nil {
		return app, errors.Wrap(err, "failed to initialize session manager")
	}
	secret, err := csrfSecret(cfg.Auth.SessionSecret)
	if err != nil {
		return app, err
	}

	if cfg.Auth.ManageKeyHash == "" {
		log.Warn().Msg("AUTH_MANAGE_KEY_HASH is not set, every client may manage media")
	} else {
		app.Limiter = auth.NewRateLimiter(auth.RateLimitConfig{
			MaxAttempts:     cfg.Auth.MaxKeyAttempts,
			WindowDuration:  cfg.Auth.RateLimitWindow,
			LockoutDuration: cfg.Auth.LockoutDuration,
		})
	}
	middleware := auth.NewMiddleware(cfg.Auth.ManageKeyHash, app.Sessions, app.Limiter)

	var maxMemory int64
	if cfg.Upload.MaxMemory != "" {
		if maxMemory, err = media.ToBytes(cfg.Upload.MaxMemory); err != nil {
			return app, errors.Wrap(err, "UPLOAD_MAX_MEMORY")
		}
	}

	var taskQueue http_controllers.TaskQueue
	if app.Tasks != nil {
		taskQueue = app.Tasks
	}
	if cfg.OAuth1.Enabled() {
		log.Info().Str("provider", cfg.OAuth1.Provider).Msg("OAuth1 provider configured")
	}

	app.Router = http_controllers.NewRouter(http_controllers.RouterConfig{
		MediaService:       app.Media,
		Database:           app.DB,
		Auditor:            app.Auditor,
		TaskClient:         taskQueue,
		Sweeper:            app.Sweep,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		Sessions:           app.Sessions,
		AuthMiddleware:     middleware,
		CSRFSecret:         secret,
		SecureCookies:      cfg.Auth.SecureCookies,
		ReadOnly:           cfg.Global.ReadOnly,
		OAuth1:             cfg.OAuth1,
		TokenStore:         app.Tokens,
		MediaRoot:          cfg.Media.Root,
		MediaBaseURL:       cfg.Media.BaseURL,
		Thumbs:             cfg.Media.Thumbs,
		MaxMemory:          maxMemory,
		Version:            version,
	})

	return app, nil
}

// Start launches the task workers and the sweep schedule.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	if err := a.Sweep.Start(ctx); err != nil {
		return err
	}
	if a.Tasks != nil {
		a.Tasks.Start(ctx)
	}
	return nil
}

// Shutdown stops background work, waiting at most until ctx expires.
func (a *App) Shutdown(ctx context.Context) {
	if a.Sweep != nil {
		a.Sweep.Stop()
	}
	if a.Tasks != nil {
		a.Tasks.Stop(ctx)
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.Auditor != nil {
		a.Auditor.Wait()
	}
}

// Close releases the databases. Call after Shutdown.
func (a *App) Close() {
	if a.Limiter != nil {
		a.Limiter.Stop()
	}
	if a.Tasks != nil {
		if err := a.Tasks.Close(); err != nil {
			log.Error().Err(err).Msg("error closing task client")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Error().Err(err).Msg("error closing database")
		}
	}
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 SIGINT; SIGKILL can't be caught
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return errors.Wrap(err, "listen")
	case <-quit:
	}
	log.Info().Dur("timeout", timeout).Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server shutdown")
	}

	log.Info().Msg("server exiting")
	return nil
}

func Run(cfg *config.Config, version string) error {
	log.Info().Str("version", version).Msg("starting mediamanager")

	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := NewApp(cfg, version)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Start(context.Background()); err != nil {
		app.Shutdown(context.Background())
		return err
	}

	return Serve(app.Router, cfg, app.Shutdown)
}
