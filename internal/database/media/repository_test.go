package media

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/mediamanager/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "media.db")), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.MediaFile{}, &entities.MediaVariant{})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createFile(t *testing.T, repo *Repository, path string, image bool) *entities.MediaFile {
	file := &entities.MediaFile{Path: path, Name: filepath.Base(path), Size: 100, IsImage: image}
	require.NoError(t, repo.Create(file))
	return file
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	file := createFile(t, repo, "images/cat.png", true)
	assert.NotZero(t, file.ID)

	got, err := repo.GetByID(file.ID)
	require.NoError(t, err)
	assert.Equal(t, "images/cat.png", got.Path)
	assert.Empty(t, got.Variants)

	byPath, err := repo.GetByPath("images/cat.png")
	require.NoError(t, err)
	assert.Equal(t, file.ID, byPath.ID)

	_, err = repo.GetByID(999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByPath("missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_UniquePath(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	createFile(t, repo, "images/cat.png", true)

	err := repo.Create(&entities.MediaFile{Path: "images/cat.png", Name: "cat.png"})
	assert.Error(t, err)
}

func TestRepository_List(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	for i := 0; i < 5; i++ {
		file := &entities.MediaFile{
			Path:      filepath.ToSlash(filepath.Join("images", string(rune('a'+i))+".png")),
			Name:      "x.png",
			IsImage:   i%2 == 0,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(file))
	}

	files, total, err := repo.List(false, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, files, 2)
	assert.Equal(t, "images/e.png", files[0].Path)

	images, total, err := repo.List(true, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, images, 3)
}

func TestRepository_ReplaceVariants(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	file := createFile(t, repo, "images/cat.png", true)

	require.NoError(t, repo.ReplaceVariants(file.ID, []entities.MediaVariant{
		{Path: "images/responsive/cat_400x200.png", Width: 400, Height: 200},
		{Path: "images/responsive/cat_800x400.png", Width: 800, Height: 400},
	}))

	got, err := repo.GetByID(file.ID)
	require.NoError(t, err)
	require.Len(t, got.Variants, 2)
	assert.Equal(t, 800, got.Variants[0].Width)

	require.NoError(t, repo.ReplaceVariants(file.ID, []entities.MediaVariant{
		{Path: "images/responsive/cat_100x50.png", Width: 100, Height: 50},
	}))
	got, err = repo.GetByID(file.ID)
	require.NoError(t, err)
	require.Len(t, got.Variants, 1)
	assert.Equal(t, file.ID, got.Variants[0].MediaID)

	deleted, err := repo.DeleteVariants(file.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestRepository_DeleteVariantsByPath(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	file := createFile(t, repo, "images/cat.png", true)
	require.NoError(t, repo.ReplaceVariants(file.ID, []entities.MediaVariant{
		{Path: "a"}, {Path: "b"}, {Path: "c"},
	}))

	deleted, err := repo.DeleteVariantsByPath([]string{"a", "c", "zzz"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = repo.DeleteVariantsByPath(nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	file := createFile(t, repo, "images/cat.png", true)
	require.NoError(t, repo.ReplaceVariants(file.ID, []entities.MediaVariant{{Path: "v"}}))

	require.NoError(t, repo.Delete(file.ID))
	_, err := repo.GetByID(file.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(file.ID), ErrNotFound)

	// the path can be reused after a delete
	createFile(t, repo, "images/cat.png", true)
}

func TestRepository_ImagePathsAndStats(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	img := createFile(t, repo, "images/cat.png", true)
	createFile(t, repo, "docs/readme.txt", false)
	require.NoError(t, repo.ReplaceVariants(img.ID, []entities.MediaVariant{{Path: "v1"}, {Path: "v2"}}))

	paths, err := repo.ImagePaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"images/cat.png"}, paths)

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, entities.MediaStats{Files: 2, Images: 1, Variants: 2, TotalBytes: 200}, stats)
}

func TestRepository_Update(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	file := createFile(t, repo, "images/cat.png", true)

	file.Width, file.Height = 640, 480
	file.Orientation = "landscape"
	require.NoError(t, repo.Update(file))

	got, err := repo.GetByID(file.ID)
	require.NoError(t, err)
	assert.Equal(t, 640, got.Width)
	assert.Equal(t, "landscape", got.Orientation)
}
