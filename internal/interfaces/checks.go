package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/mediamanager/internal/audit"
	"github.com/mrlokans/mediamanager/internal/auth"
	"github.com/mrlokans/mediamanager/internal/database"
	mediarepo "github.com/mrlokans/mediamanager/internal/database/media"
	"github.com/mrlokans/mediamanager/internal/http"
	"github.com/mrlokans/mediamanager/internal/media"
	"github.com/mrlokans/mediamanager/internal/oauth1"
	"github.com/mrlokans/mediamanager/internal/scheduler"
	"github.com/mrlokans/mediamanager/internal/services"
	"github.com/mrlokans/mediamanager/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// MediaStore implementations
var _ services.MediaStore = (*mediarepo.Repository)(nil)

// Pinger implementations
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Auditing
// =============================================================================

var _ services.Auditor = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ http.OAuthAuditor = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

// TaskQueue implementations
var _ services.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.TaskQueue = (*tasks.Client)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)

// Task handlers
var _ tasks.ResponsiveGenerator = (*services.MediaService)(nil)
var _ tasks.ResponsiveRemover = (*services.MediaService)(nil)
var _ scheduler.Sweeper = (*services.MediaService)(nil)

var _ http.SweepRunner = (*scheduler.SweepScheduler)(nil)

// =============================================================================
// Auth
// =============================================================================

var _ oauth1.Session = (*auth.SessionManager)(nil)
var _ media.Authorizer = media.AuthorizerFunc(nil)
