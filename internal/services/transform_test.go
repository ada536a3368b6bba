package services

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mediamanager/internal/entities"
	"github.com/mrlokans/mediamanager/internal/imaging"
	"github.com/mrlokans/mediamanager/internal/media"
)

func intPtr(v int) *int { return &v }

func uploadSolidPNG(t *testing.T, fx *fixture, c color.NRGBA) *entities.MediaFile {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "solid.tmp")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	res, err := fx.svc.Upload(context.Background(), UploadInput{
		File: media.File{Name: "solid.png", Size: info.Size(), TmpPath: path},
	})
	require.NoError(t, err)
	return res.File
}

func TestTransform(t *testing.T) {
	tests := []struct {
		name   string
		req    TransformRequest
		width  int
		height int
	}{
		{"resize percent", TransformRequest{Operation: "resize", Width: "50%", Height: "50%"}, 40, 30},
		{"resize fill", TransformRequest{Operation: "resize", Width: "20", Height: "20", Method: "fill"}, 20, 20},
		{"crop", TransformRequest{Operation: "crop", Width: "10", Height: "10", Left: imaging.Offset(0), Top: imaging.Offset(0)}, 10, 10},
		{"crop resize", TransformRequest{Operation: "crop_resize", Width: "30", Height: "30"}, 30, 30},
		{"rotate", TransformRequest{Operation: "rotate", Angle: 90, Background: "#ffffff"}, 60, 80},
		{"flip", TransformRequest{Operation: "flip", Flip: "horizontal"}, 80, 60},
		{"filter", TransformRequest{Operation: "filter", Filter: "grayscale"}, 80, 60},
		{"auto orient", TransformRequest{Operation: "auto_orient"}, 80, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := setup(t, nil)
			file := uploadPNG(t, fx).File
			variant := fx.svc.FilePath(file.Variants[0].Path)

			out, err := fx.svc.Transform(context.Background(), file.ID, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.width, out.Width)
			assert.Equal(t, tt.height, out.Height)
			assert.Empty(t, out.Variants)
			assert.NoFileExists(t, variant, "stale variants are removed")

			props, err := imaging.FileProperties(fx.svc.FilePath(file.Path))
			require.NoError(t, err)
			assert.Equal(t, tt.width, props.Width)
		})
	}
}

func TestTransform_RemovesUnrecordedVariants(t *testing.T) {
	fx := setup(t, nil)
	file := uploadPNG(t, fx).File
	_, err := fx.svc.DeleteResponsive(context.Background(), file.ID)
	require.NoError(t, err)

	// content rewriting writes variants without recording them
	content := `<p><img src="` + file.Path + `"/></p>`
	_, generated, err := fx.svc.ContentResponsive(content, nil, "", true)
	require.NoError(t, err)
	require.Equal(t, []string{file.Path}, generated)

	srcset, _, err := fx.svc.Srcset(file.ID, nil, "")
	require.NoError(t, err)
	require.NotEmpty(t, srcset)
	variant := fx.svc.FilePath(strings.Fields(srcset)[0])
	require.FileExists(t, variant)

	_, err = fx.svc.Transform(context.Background(), file.ID, TransformRequest{Operation: "flip", Flip: "vertical"})
	require.NoError(t, err)

	assert.NoFileExists(t, variant)
	srcset, _, err = fx.svc.Srcset(file.ID, nil, "")
	require.NoError(t, err)
	assert.Empty(t, srcset)
	deletes := 0
	for _, ev := range fx.audit.events {
		if ev == "responsive.delete" {
			deletes++
		}
	}
	assert.Equal(t, 2, deletes)
}

func TestTransform_Watermark(t *testing.T) {
	tests := []struct {
		name         string
		transparency *int
		want         uint8
	}{
		{"default opacity", nil, 128},
		{"opaque", intPtr(100), 255},
		{"invisible", intPtr(0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := setup(t, nil)
			base := uploadSolidPNG(t, fx, color.NRGBA{A: 255})
			mark := uploadSolidPNG(t, fx, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

			out, err := fx.svc.Transform(context.Background(), base.ID, TransformRequest{
				Operation:    "watermark",
				WatermarkID:  mark.ID,
				Transparency: tt.transparency,
			})
			require.NoError(t, err)
			assert.Equal(t, 20, out.Width)

			img, err := imaging.Open(fx.svc.FilePath(base.Path))
			require.NoError(t, err)
			r, _, _, _ := img.Bitmap().At(10, 10).RGBA()
			assert.InDelta(t, tt.want, uint8(r>>8), 1)
		})
	}
}

func TestTransform_Errors(t *testing.T) {
	fx := setup(t, nil)
	file := uploadPNG(t, fx).File

	_, err := fx.svc.Transform(context.Background(), file.ID, TransformRequest{Operation: "sharpen-ish"})
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, err = fx.svc.Transform(context.Background(), file.ID, TransformRequest{Operation: "flip", Flip: "diagonal"})
	assert.ErrorIs(t, err, imaging.ErrInvalidFlipMode)

	_, err = fx.svc.Transform(context.Background(), file.ID, TransformRequest{Operation: "resize", Width: "wide"})
	assert.ErrorIs(t, err, imaging.ErrInvalidSize)

	_, err = fx.svc.Transform(context.Background(), file.ID, TransformRequest{Operation: "rotate", Background: "#zz"})
	assert.Error(t, err)

	assert.Contains(t, fx.audit.events, "transform.sharpen-ish:failed")
}
