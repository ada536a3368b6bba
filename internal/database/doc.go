// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── media/           # Media files and their responsive variants
//	└── audit/           # Audit trail of uploads, deletions and jobs
//
// Encrypted OAuth1 tokens live in the same database but are owned by
// internal/tokenstore.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./mediamanager.db")
//
//	mediaRepo := media.NewRepository(db.DB)
//	file, err := mediaRepo.GetByID(42)
//
// Each sub-package provides a Repository with a NewRepository(*gorm.DB)
// constructor; compile-time checks against the consumer interfaces live in
// internal/interfaces.
package database
