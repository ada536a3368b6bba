package database

import (
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/mediamanager/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (creating if needed) the SQLite database at dbPath and
// migrates the media schema. ":memory:" is accepted for tests.
func NewDatabase(dbPath string) (*Database, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrapf(err, "failed to create database directory %s", dir)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info().Str("path", dbPath).Msg("database initialized")

	return &Database{DB: db}, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.MediaFile{},
		&entities.MediaVariant{},
		&entities.AuditEvent{},
		&entities.OAuthToken{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	return nil
}

// Ping checks the underlying connection.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
