package imaging

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResize(t *testing.T) {
	src := New(splitImage(200, 100))

	tests := []struct {
		name          string
		width, height Dimension
		method        ScaleMethod
		expW, expH    int
	}{
		{"inside", Px(50), Px(50), ScaleInside, 50, 25},
		{"outside", Px(50), Px(50), ScaleOutside, 100, 50},
		{"fill", Px(30), Px(60), ScaleFill, 30, 60},
		{"percent", Percent(50), Percent(50), ScaleInside, 100, 50},
		{"height only", Auto, Px(20), ScaleInside, 20, 10},
		{"fit pads to box", Px(50), Px(50), ScaleFit, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := src.Resize(tt.width, tt.height, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.expW, out.Width())
			assert.Equal(t, tt.expH, out.Height())
		})
	}

	assert.Equal(t, 200, src.Width(), "source must not change")
}

func TestResize_FitIsTransparentAroundImage(t *testing.T) {
	out, err := New(solidImage(200, 100, red)).Resize(Px(50), Px(50), ScaleFit)
	require.NoError(t, err)

	// 50x25 centred vertically at y=13
	assert.Equal(t, uint8(0), nrgbaAt(out, 25, 0).A)
	assert.Equal(t, red, nrgbaAt(out, 25, 25))
	assert.Equal(t, uint8(0), nrgbaAt(out, 25, 49).A)
	assert.True(t, out.IsTransparent())
}

func TestResize_KeepsPath(t *testing.T) {
	dir := t.TempDir()
	src, err := Open(writePNG(t, dir, "a.png", splitImage(20, 20)))
	require.NoError(t, err)

	out, err := src.SetBestQuality(false).Resize(Px(10), Px(10), ScaleInside)
	require.NoError(t, err)
	assert.Equal(t, src.Path(), out.Path())
	assert.Equal(t, FormatPNG, out.Format())
}

func TestResize_Errors(t *testing.T) {
	_, err := New(nil).Resize(Px(10), Px(10), ScaleInside)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = New(splitImage(10, 10)).Resize(Px(10), Px(10), Crop)
	assert.ErrorIs(t, err, ErrInvalidScaleMethod)

	_, err = New(splitImage(10, 10)).Resize(Auto, Auto, ScaleInside)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestCrop(t *testing.T) {
	src := New(splitImage(200, 100))

	t.Run("centred", func(t *testing.T) {
		out, err := src.Crop(Px(100), Px(100), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 100, out.Width())
		assert.Equal(t, 100, out.Height())
		assert.Equal(t, red, nrgbaAt(out, 49, 50))
		assert.Equal(t, blue, nrgbaAt(out, 50, 50))
	})

	t.Run("explicit offsets", func(t *testing.T) {
		out, err := src.Crop(Px(10), Px(10), Offset(0), Offset(0))
		require.NoError(t, err)
		assert.Equal(t, red, nrgbaAt(out, 9, 9))

		out, err = src.Crop(Px(10), Px(10), Offset(190), Offset(90))
		require.NoError(t, err)
		assert.Equal(t, blue, nrgbaAt(out, 0, 0))
	})

	t.Run("outside the image is transparent", func(t *testing.T) {
		out, err := src.Crop(Px(20), Px(20), Offset(190), Offset(90))
		require.NoError(t, err)
		assert.Equal(t, 20, out.Width())
		assert.Equal(t, blue, nrgbaAt(out, 0, 0))
		assert.Equal(t, uint8(0), nrgbaAt(out, 15, 15).A)
	})

	t.Run("percent", func(t *testing.T) {
		out, err := src.Crop(Percent(25), Percent(50), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 50, out.Width())
		assert.Equal(t, 50, out.Height())
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := src.Crop(Px(0), Px(10), nil, nil)
		assert.ErrorIs(t, err, ErrInvalidDimensions)
	})
}

func TestCropResize(t *testing.T) {
	src := New(splitImage(200, 100))

	out, err := src.CropResize(Px(50), Px(50))
	require.NoError(t, err)
	assert.Equal(t, 50, out.Width())
	assert.Equal(t, 50, out.Height())
	assert.Equal(t, red, nrgbaAt(out, 5, 25))
	assert.Equal(t, blue, nrgbaAt(out, 45, 25))

	out, err = src.CropResize(Px(20), Px(80))
	require.NoError(t, err)
	assert.Equal(t, 20, out.Width())
	assert.Equal(t, 80, out.Height())
}

func TestRotate(t *testing.T) {
	src := New(splitImage(200, 100))

	out, err := src.Rotate(90, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, out.Width())
	assert.Equal(t, 200, out.Height())
	// Counter-clockwise: the left (red) half ends up at the bottom.
	assert.Equal(t, blue, nrgbaAt(out, 50, 10))
	assert.Equal(t, red, nrgbaAt(out, 50, 190))

	out, err = src.Rotate(45, color.White)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, nrgbaAt(out, 0, 0))
}

func TestFlip(t *testing.T) {
	src := New(splitImage(200, 100))

	out, err := src.Flip(FlipHorizontal)
	require.NoError(t, err)
	assert.Equal(t, blue, nrgbaAt(out, 0, 0))

	out, err = src.Flip(FlipVertical)
	require.NoError(t, err)
	assert.Equal(t, red, nrgbaAt(out, 0, 0))

	out, err = src.Flip(FlipBoth)
	require.NoError(t, err)
	assert.Equal(t, blue, nrgbaAt(out, 0, 0))

	_, err = src.Flip(FlipMode(9))
	assert.ErrorIs(t, err, ErrInvalidFlipMode)

	assert.Equal(t, red, nrgbaAt(src, 0, 0))
}

func TestWatermark(t *testing.T) {
	src := New(solidImage(200, 100, red))
	mark := New(solidImage(10, 10, green))

	out, err := src.Watermark(mark, 100, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, green, nrgbaAt(out, 199, 99))
	assert.Equal(t, green, nrgbaAt(out, 190, 90))
	assert.Equal(t, red, nrgbaAt(out, 189, 89))

	out, err = src.Watermark(mark, 100, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, red, nrgbaAt(out, 199, 99))
	assert.Equal(t, green, nrgbaAt(out, 194, 94))

	out, err = src.Watermark(mark, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, red, nrgbaAt(out, 199, 99))

	_, err = src.Watermark(New(nil), 50, 0, 0)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestAutoOrient(t *testing.T) {
	src := New(splitImage(200, 100))
	src.exifOrientation = 6

	out, err := src.AutoOrient()
	require.NoError(t, err)
	assert.Equal(t, 100, out.Width())
	assert.Equal(t, 200, out.Height())
	assert.Equal(t, 1, out.exifOrientation)

	src.exifOrientation = 0
	out, err = src.AutoOrient()
	require.NoError(t, err)
	assert.Equal(t, 200, out.Width())
}
