package services

import (
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/mediamanager/internal/entities"
)

// MediaStore persists media files and their variants.
// database/media.Repository is the production implementation.
type MediaStore interface {
	Create(file *entities.MediaFile) error
	Update(file *entities.MediaFile) error
	GetByID(id uint) (*entities.MediaFile, error)
	List(imagesOnly bool, limit, offset int) ([]entities.MediaFile, int64, error)
	Delete(id uint) error
	ReplaceVariants(mediaID uint, variants []entities.MediaVariant) error
	DeleteVariants(mediaID uint) (int64, error)
	DeleteVariantsByPath(paths []string) (int64, error)
	Stats() (entities.MediaStats, error)
}

// TaskQueue enqueues background work. When the service has no queue,
// variant generation runs inline.
type TaskQueue interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// Auditor records what happened to the library.
type Auditor interface {
	LogUpload(name string, mediaID *uint, ipAddr string, err error)
	LogDelete(mediaID uint, path string, variants int)
	LogResponsive(mediaID uint, path string, created bool, files []string, err error)
	LogTransform(mediaID uint, path, operation string, err error)
	LogSweep(removed []string, err error)
}

// FolderCount is the result of media.CountFiles for one media directory.
type FolderCount struct {
	Files   int `json:"files"`
	Folders int `json:"folders"`
}

// LibraryStats combines database totals with what is on disk.
type LibraryStats struct {
	entities.MediaStats
	Directories map[string]FolderCount `json:"directories"`
}
