package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/mrlokans/mediamanager/internal/media"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Media
		Upload
		Tasks
		Sweep
		Audit
		Auth
		OAuth1
		Tokens
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
		ReadOnly                 bool // Reject API writes, see internal/readonly
	}
	Database struct {
		Path string
	}
	Media struct {
		Root             string
		BaseURL          string   // Public prefix of the media root, e.g. "/media"
		ResponsiveSizes  []string // "WxH" entries generated after each upload
		CreationMethod   string   // Scale method name or number
		BestQuality      bool
		Thumbs           bool
		LocalDirectories string // JSON list of {"directory": "..."} objects
	}
	Upload struct {
		AllowedExtensions  []string
		IgnoredExtensions  []string
		ImageExtensions    []string
		AllowedMIME        []string
		CheckMIME          bool
		RestrictUploads    bool
		MaxSizeMB          float64
		MaxPixels          int64 // Largest width*height accepted for images, 0 disables
		AllowedExecutables []string
		MaxMemory          string // Multipart memory limit, e.g. "32M"
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Sweep struct {
		Enabled  bool
		Schedule string // Cron format: "30 3 * * *" = daily at 03:30
	}
	Audit struct {
		RetentionDays int
	}
	Auth struct {
		// ManageKeyHash is a bcrypt hash of the key granting core.manage.
		// Empty disables privileged uploads.
		ManageKeyHash   string
		SessionSecret   string
		SessionLifetime time.Duration
		SecureCookies   bool

		MaxKeyAttempts  int
		RateLimitWindow time.Duration
		LockoutDuration time.Duration
	}
	OAuth1 struct {
		Provider        string
		ConsumerKey     string
		ConsumerSecret  string
		RequestTokenURL string
		AuthoriseURL    string
		AccessTokenURL  string
		Callback        string
		Version         string
		Scope           []string
	}
	Tokens struct {
		EncryptionKey string
		KeyFile       string
	}
	Log struct {
		Level  string
		Pretty bool
	}
)

// Enabled reports whether an OAuth1 provider is configured.
func (o OAuth1) Enabled() bool {
	return o.ConsumerKey != "" && o.RequestTokenURL != "" && o.AccessTokenURL != ""
}

// UploadOptions converts the upload group into validation options.
func (u Upload) UploadOptions() media.Options {
	return media.Options{
		AllowedExtensions:  u.AllowedExtensions,
		IgnoredExtensions:  u.IgnoredExtensions,
		ImageExtensions:    u.ImageExtensions,
		AllowedMIME:        u.AllowedMIME,
		CheckMIME:          u.CheckMIME,
		RestrictUploads:    u.RestrictUploads,
		MaxSizeMB:          u.MaxSizeMB,
		MaxPixels:          u.MaxPixels,
		AllowedExecutables: u.AllowedExecutables,
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()

	defaults := media.DefaultOptions()

	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("read_only", false)
	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("media_root", DefaultMediaRoot)
	v.SetDefault("media_base_url", "/media")
	v.SetDefault("media_responsive_sizes", "800x600,600x400,400x200")
	v.SetDefault("media_creation_method", "inside")
	v.SetDefault("media_best_quality", true)
	v.SetDefault("media_thumbs", false)
	v.SetDefault("media_local_directories", `[{"directory":"images"}]`)

	v.SetDefault("upload_allowed_extensions", strings.Join(defaults.AllowedExtensions, ","))
	v.SetDefault("upload_ignored_extensions", "")
	v.SetDefault("upload_image_extensions", strings.Join(defaults.ImageExtensions, ","))
	v.SetDefault("upload_allowed_mime", strings.Join(defaults.AllowedMIME, ","))
	v.SetDefault("upload_check_mime", true)
	v.SetDefault("upload_restrict_uploads", true)
	v.SetDefault("upload_max_size_mb", 10)
	v.SetDefault("upload_max_pixels", defaults.MaxPixels)
	v.SetDefault("upload_allowed_executables", "")
	v.SetDefault("upload_max_memory", "32M")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("sweep_enabled", true)
	v.SetDefault("sweep_schedule", "30 3 * * *") // Daily at 03:30
	v.SetDefault("audit_retention_days", 30)

	// Auth defaults
	v.SetDefault("auth_manage_key_hash", "")
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "1h")   // Only carries the OAuth1 handshake
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_key_attempts", 5)      // Max failed manage key attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	v.SetDefault("oauth1_provider", "default")
	v.SetDefault("oauth1_version", "1.0a")
	v.SetDefault("oauth1_scope", "")

	v.SetDefault("token_encryption_key", "")
	v.SetDefault("token_key_file", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)

	if file := v.GetString("MEDIA_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Warn().Err(err).Str("file", file).Msg("failed to read config file, using environment only")
		}
	}

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			ReadOnly:                 v.GetBool("READ_ONLY"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Media: Media{
			Root:             v.GetString("MEDIA_ROOT"),
			BaseURL:          strings.TrimRight(v.GetString("MEDIA_BASE_URL"), "/"),
			ResponsiveSizes:  media.SplitList(v.GetString("MEDIA_RESPONSIVE_SIZES")),
			CreationMethod:   v.GetString("MEDIA_CREATION_METHOD"),
			BestQuality:      v.GetBool("MEDIA_BEST_QUALITY"),
			Thumbs:           v.GetBool("MEDIA_THUMBS"),
			LocalDirectories: v.GetString("MEDIA_LOCAL_DIRECTORIES"),
		},
		Upload: Upload{
			AllowedExtensions:  media.SplitList(v.GetString("UPLOAD_ALLOWED_EXTENSIONS")),
			IgnoredExtensions:  media.SplitList(v.GetString("UPLOAD_IGNORED_EXTENSIONS")),
			ImageExtensions:    media.SplitList(v.GetString("UPLOAD_IMAGE_EXTENSIONS")),
			AllowedMIME:        media.SplitList(v.GetString("UPLOAD_ALLOWED_MIME")),
			CheckMIME:          v.GetBool("UPLOAD_CHECK_MIME"),
			RestrictUploads:    v.GetBool("UPLOAD_RESTRICT_UPLOADS"),
			MaxSizeMB:          v.GetFloat64("UPLOAD_MAX_SIZE_MB"),
			MaxPixels:          v.GetInt64("UPLOAD_MAX_PIXELS"),
			AllowedExecutables: media.SplitList(v.GetString("UPLOAD_ALLOWED_EXECUTABLES")),
			MaxMemory:          v.GetString("UPLOAD_MAX_MEMORY"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Sweep: Sweep{
			Enabled:  v.GetBool("SWEEP_ENABLED"),
			Schedule: v.GetString("SWEEP_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Auth: Auth{
			ManageKeyHash:   v.GetString("AUTH_MANAGE_KEY_HASH"),
			SessionSecret:   v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
			MaxKeyAttempts:  v.GetInt("AUTH_MAX_KEY_ATTEMPTS"),
			RateLimitWindow: v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration: v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		OAuth1: OAuth1{
			Provider:        v.GetString("OAUTH1_PROVIDER"),
			ConsumerKey:     v.GetString("OAUTH1_CONSUMER_KEY"),
			ConsumerSecret:  v.GetString("OAUTH1_CONSUMER_SECRET"),
			RequestTokenURL: v.GetString("OAUTH1_REQUEST_TOKEN_URL"),
			AuthoriseURL:    v.GetString("OAUTH1_AUTHORISE_URL"),
			AccessTokenURL:  v.GetString("OAUTH1_ACCESS_TOKEN_URL"),
			Callback:        v.GetString("OAUTH1_CALLBACK"),
			Version:         v.GetString("OAUTH1_VERSION"),
			Scope:           strings.Fields(v.GetString("OAUTH1_SCOPE")),
		},
		Tokens: Tokens{
			EncryptionKey: v.GetString("TOKEN_ENCRYPTION_KEY"),
			KeyFile:       v.GetString("TOKEN_KEY_FILE"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: v.GetBool("LOG_PRETTY"),
		},
	}
}
