package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./mediamanager.db"

	// DefaultMediaRoot is where uploads and their responsive variants live
	DefaultMediaRoot = "./media"
)
