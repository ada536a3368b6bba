package media

import (
	"emperror.dev/errors"
	"gorm.io/gorm"

	"github.com/mrlokans/mediamanager/internal/entities"
)

// ErrNotFound is returned when no media file matches.
var ErrNotFound = errors.New("media file not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a new media file.
func (r *Repository) Create(file *entities.MediaFile) error {
	return r.db.Create(file).Error
}

// Update saves changed columns of an existing file, not its variants.
func (r *Repository) Update(file *entities.MediaFile) error {
	return r.db.Omit("Variants").Save(file).Error
}

// GetByID returns a media file with its variants.
func (r *Repository) GetByID(id uint) (*entities.MediaFile, error) {
	var file entities.MediaFile
	err := r.db.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("width DESC")
	}).First(&file, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// GetByPath returns the media file stored at a root-relative path.
func (r *Repository) GetByPath(path string) (*entities.MediaFile, error) {
	var file entities.MediaFile
	err := r.db.Where("path = ?", path).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// List returns paginated media files, newest first.
func (r *Repository) List(imagesOnly bool, limit, offset int) ([]entities.MediaFile, int64, error) {
	var files []entities.MediaFile
	var total int64

	query := r.db.Model(&entities.MediaFile{})
	if imagesOnly {
		query = query.Where("is_image = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&files).Error
	return files, total, err
}

// Delete removes a media file and its variant rows permanently.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("media_id = ?", id).Delete(&entities.MediaVariant{}).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Delete(&entities.MediaFile{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ReplaceVariants swaps the variant rows of one media file in a single transaction.
func (r *Repository) ReplaceVariants(mediaID uint, variants []entities.MediaVariant) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("media_id = ?", mediaID).Delete(&entities.MediaVariant{}).Error; err != nil {
			return err
		}
		if len(variants) == 0 {
			return nil
		}
		for i := range variants {
			variants[i].ID = 0
			variants[i].MediaID = mediaID
		}
		return tx.Create(&variants).Error
	})
}

// DeleteVariants removes the variant rows of one media file.
func (r *Repository) DeleteVariants(mediaID uint) (int64, error) {
	result := r.db.Where("media_id = ?", mediaID).Delete(&entities.MediaVariant{})
	return result.RowsAffected, result.Error
}

// DeleteVariantsByPath removes variant rows pointing at the given files.
func (r *Repository) DeleteVariantsByPath(paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	result := r.db.Where("path IN ?", paths).Delete(&entities.MediaVariant{})
	return result.RowsAffected, result.Error
}

// ImagePaths returns the paths of all stored images.
func (r *Repository) ImagePaths() ([]string, error) {
	var paths []string
	err := r.db.Model(&entities.MediaFile{}).Where("is_image = ?", true).Pluck("path", &paths).Error
	return paths, err
}

// Stats counts files, images, variants and stored bytes.
func (r *Repository) Stats() (entities.MediaStats, error) {
	var stats entities.MediaStats

	if err := r.db.Model(&entities.MediaFile{}).Count(&stats.Files).Error; err != nil {
		return stats, err
	}
	if err := r.db.Model(&entities.MediaFile{}).Where("is_image = ?", true).Count(&stats.Images).Error; err != nil {
		return stats, err
	}
	if err := r.db.Model(&entities.MediaVariant{}).Count(&stats.Variants).Error; err != nil {
		return stats, err
	}
	err := r.db.Model(&entities.MediaFile{}).Select("COALESCE(SUM(size), 0)").Scan(&stats.TotalBytes).Error
	return stats, err
}
