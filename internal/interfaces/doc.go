// Package interfaces documents the core abstractions used throughout the application.
//
// Consumers declare the narrow interface they need next to the code that uses
// it. This package lists them in one place and holds the compile-time checks.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - MediaStore: Media files and their variants (internal/services/interfaces.go)
//   - Pinger: Database liveness for the health endpoint (internal/http/health.go)
//
// ## Auditing Interfaces
//
//   - Auditor: Upload, delete, responsive, transform and sweep events (internal/services/interfaces.go)
//   - OAuthAuditor: OAuth1 flow steps (internal/http/oauth1.go)
//   - AuditEventCleaner: Audit log retention (internal/tasks/cleanup_audit.go)
//
// ## Background Work Interfaces
//
//   - TaskQueue: Enqueue backlite tasks (internal/services, internal/scheduler, internal/http)
//   - ResponsiveGenerator / ResponsiveRemover: Task handlers (internal/tasks/responsive.go)
//   - Sweeper: Orphaned variant cleanup (internal/scheduler/sweep.go)
//   - SweepRunner: Manual sweep trigger and status (internal/http/sweep.go)
//
// ## Auth Interfaces
//
//   - Authorizer: Permission checks during upload validation (internal/media/helper.go)
//   - Session: OAuth1 request token storage (internal/oauth1/client.go)
//
// # Adding a New Background Task
//
//  1. Define the task and its queue in internal/tasks/
//
//     type RotateTask struct {
//     MediaID uint `json:"media_id"`
//     }
//
//     func (t RotateTask) Config() backlite.QueueConfig {
//     return backlite.QueueConfig{Name: "rotate_image", MaxAttempts: 3}
//     }
//
//     func NewRotateQueue(r Rotator) backlite.Queue {
//     return backlite.NewQueue[RotateTask](func(ctx context.Context, t RotateTask) error { ... })
//     }
//
//  2. Register the queue in entrypoint.NewApp
//
//  3. Add a case to TasksController.Run if it may be triggered over HTTP
//
// # Adding a New Image Filter
//
// Filters are looked up by name in internal/imaging:
//
//	imaging.RegisterFilter("sepia", func(img image.Image, opts imaging.FilterOptions) (*image.NRGBA, error) {
//		...
//	})
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
