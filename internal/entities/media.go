package entities

import (
	"time"

	"gorm.io/gorm"
)

// MediaFile is an upload stored under the media root.
type MediaFile struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Path is relative to the media root and uses forward slashes.
	Path         string `gorm:"uniqueIndex;size:1024;not null" json:"path"`
	Name         string `gorm:"size:255;not null" json:"name"`
	OriginalName string `gorm:"size:255" json:"original_name"`
	MIME         string `gorm:"size:100" json:"mime"`
	Size         int64  `json:"size"`
	IsImage      bool   `gorm:"index" json:"is_image"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Orientation  string `gorm:"size:20" json:"orientation,omitempty"`
	UploadedBy   string `gorm:"size:45" json:"uploaded_by,omitempty"`

	Variants []MediaVariant `gorm:"foreignKey:MediaID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
}

func (MediaFile) TableName() string {
	return "media_files"
}

// MediaVariant is a generated size of an image.
type MediaVariant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	MediaID   uint      `gorm:"index;not null" json:"media_id"`
	Path      string    `gorm:"size:1024;not null" json:"path"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Method    string    `gorm:"size:20" json:"method"`
	Thumbs    bool      `json:"thumbs"`
}

func (MediaVariant) TableName() string {
	return "media_variants"
}

// MediaStats summarises the media library.
type MediaStats struct {
	Files      int64 `json:"files"`
	Images     int64 `json:"images"`
	Variants   int64 `json:"variants"`
	TotalBytes int64 `json:"total_bytes"`
}
