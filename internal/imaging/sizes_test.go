package imaging

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	w, h, err := ParseSize("800x600")
	require.NoError(t, err)
	assert.Equal(t, Px(800), w)
	assert.Equal(t, Px(600), h)

	w, h, err = ParseSize("50%X25%")
	require.NoError(t, err)
	assert.Equal(t, Percent(50), w)
	assert.Equal(t, Percent(25), h)

	w, h, err = ParseSize("800x")
	require.NoError(t, err)
	assert.Equal(t, Px(800), w)
	assert.Equal(t, Px(0), h)

	w, h, err = ParseSize("x25%")
	require.NoError(t, err)
	assert.Equal(t, Px(0), w)
	assert.Equal(t, Percent(25), h)

	for _, bad := range []string{"800", "800x600x400", "axb", "", "x"} {
		_, _, err := ParseSize(bad)
		assert.ErrorIs(t, err, ErrInvalidSize, bad)
	}
}

func TestGenerateMultipleSizes(t *testing.T) {
	src := New(splitImage(200, 100))

	t.Run("resize", func(t *testing.T) {
		out, err := src.GenerateMultipleSizes([]string{"100x100", "50x50"}, ScaleInside)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, 100, out[0].Width())
		assert.Equal(t, 50, out[0].Height())
		assert.Equal(t, 50, out[1].Width())
		assert.Equal(t, 25, out[1].Height())
	})

	t.Run("crop", func(t *testing.T) {
		out, err := src.GenerateMultipleSizes([]string{"40x40"}, Crop)
		require.NoError(t, err)
		assert.Equal(t, 40, out[0].Width())
		assert.Equal(t, 40, out[0].Height())
	})

	t.Run("crop resize", func(t *testing.T) {
		out, err := src.GenerateMultipleSizes([]string{"60x30", "30x60"}, CropResize)
		require.NoError(t, err)
		assert.Equal(t, 60, out[0].Width())
		assert.Equal(t, 30, out[0].Height())
		assert.Equal(t, 30, out[1].Width())
		assert.Equal(t, 60, out[1].Height())
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := src.GenerateMultipleSizes([]string{"100"}, ScaleInside)
		assert.ErrorIs(t, err, ErrInvalidSize)
	})

	t.Run("not loaded", func(t *testing.T) {
		_, err := New(nil).GenerateMultipleSizes([]string{"10x10"}, ScaleInside)
		assert.ErrorIs(t, err, ErrNotLoaded)
	})
}

func TestCreateAndDeleteMultipleSizes(t *testing.T) {
	dir := t.TempDir()
	src, err := Open(writePNG(t, dir, "joomla.png", splitImage(200, 100)))
	require.NoError(t, err)

	created, err := src.CreateMultipleSizes([]string{"800x600", "100x100"}, ScaleInside, false)
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, filepath.Join(dir, "responsive", "joomla_800x400.png"), created[0].Path())
	assert.Equal(t, filepath.Join(dir, "responsive", "joomla_100x50.png"), created[1].Path())
	for _, img := range created {
		props, err := FileProperties(img.Path())
		require.NoError(t, err)
		assert.Equal(t, FormatPNG, props.Type)
	}

	// A file belonging to another image must survive the delete.
	other := writePNG(t, filepath.Join(dir, "responsive"), "other_100x50.png", splitImage(2, 2))

	deleted, err := src.DeleteMultipleSizes(false)
	require.NoError(t, err)
	sort.Strings(deleted)
	assert.Equal(t, []string{"joomla_100x50.png", "joomla_800x400.png"}, deleted)

	_, err = os.Stat(created[0].Path())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(other)
	assert.NoError(t, err)
}

func TestCreateMultipleSizes_Thumbs(t *testing.T) {
	dir := t.TempDir()
	src, err := Open(writeJPEG(t, dir, "photo.jpg", splitImage(100, 100)))
	require.NoError(t, err)

	created, err := src.CreateMultipleSizes([]string{"20x20"}, Crop, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "thumbs", "photo_20x20.jpg"), created[0].Path())

	props, err := FileProperties(created[0].Path())
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, props.Type)
}

func TestCreateMultipleSizes_Errors(t *testing.T) {
	_, err := New(splitImage(10, 10)).CreateMultipleSizes([]string{"5x5"}, ScaleInside, false)
	assert.ErrorIs(t, err, ErrNoPath)

	dir := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, os.Mkdir(dir, 0755))
	src, err := Open(writePNG(t, dir, "a.png", splitImage(10, 10)))
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	_, err = src.CreateMultipleSizes([]string{"5x5"}, ScaleInside, false)
	assert.ErrorIs(t, err, ErrFolderCreate)
}

func TestDeleteMultipleSizes_NoFolder(t *testing.T) {
	dir := t.TempDir()
	src, err := Open(writePNG(t, dir, "a.png", splitImage(10, 10)))
	require.NoError(t, err)

	deleted, err := src.DeleteMultipleSizes(true)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestVariantSource(t *testing.T) {
	tests := map[string]string{
		"joomla_800x600.png":       "joomla.png",
		"joomla_black_800x600.png": "joomla_black.png",
		"joomla.png":               "joomla.png",
		"joomla_8x6.png":           "joomla_8x6.png",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, VariantSource(input), input)
	}
}
