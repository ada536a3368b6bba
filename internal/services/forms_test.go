package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mediarepo "github.com/mrlokans/mediamanager/internal/database/media"
	"github.com/mrlokans/mediamanager/internal/responsive"
)

func TestFormResponsive(t *testing.T) {
	fx := setup(t, nil)
	file := uploadPNG(t, fx).File
	_, err := fx.svc.DeleteResponsive(context.Background(), file.ID)
	require.NoError(t, err)

	images, err := fx.svc.FormResponsive(context.Background(), []FormField{
		{Image: file.Path + "#joomlaImage://local-images/cat.png?width=80&height=60"},
		{Image: file.Path, Custom: true, SizeOptions: []responsive.SizeOption{{Width: 20, Height: 15}}},
		{Image: "images/missing.png"},
	})
	require.NoError(t, err)
	require.Len(t, images, 2)

	variant := strings.TrimSuffix(file.Path, ".png")
	variant = strings.Replace(variant, "images/", "images/responsive/", 1)

	assert.Equal(t, file.Path, images[0].Image)
	assert.Equal(t, []string{"40x30"}, images[0].Sizes, "configured sizes apply")
	assert.Equal(t, variant+"_40x30.png 40w", images[0].Srcset)

	assert.Equal(t, []string{"20x15"}, images[1].Sizes, "field sizes win")
	assert.Equal(t, variant+"_20x15.png 20w", images[1].Srcset)
	assert.FileExists(t, fx.svc.FilePath(variant+"_20x15.png"))
}

func TestFormResponsive_Canceled(t *testing.T) {
	fx := setup(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fx.svc.FormResponsive(ctx, []FormField{{Image: "images/a.png"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImgTag(t *testing.T) {
	fx := setup(t, nil)
	file := uploadPNG(t, fx).File

	html, err := fx.svc.ImgTag(file.ID, ImgTagOptions{Alt: "cat"})
	require.NoError(t, err)
	out := string(html)
	assert.True(t, strings.HasPrefix(out, `<img src="`+file.Path+`" alt="cat"`), out)
	assert.Contains(t, out, `srcset="`+file.Variants[0].Path+` 40w"`)
	assert.Contains(t, out, `sizes="(max-width: 80px) 100vw, 80px"`)

	html, err = fx.svc.ImgTag(file.ID, ImgTagOptions{Alt: "cat", Width: 20, Height: 15, Sizes: []string{"20x15"}})
	require.NoError(t, err)
	out = string(html)
	assert.Contains(t, out, `width="20" height="15"`)
	assert.NotContains(t, out, "srcset", "no 20x15 variant on disk")

	_, err = fx.svc.ImgTag(999, ImgTagOptions{})
	assert.ErrorIs(t, err, mediarepo.ErrNotFound)
}

func TestContentImages(t *testing.T) {
	fx := setup(t, nil)

	images, err := fx.svc.ContentImages(`<p><img src="images/a.png" data-jimage="20x15, 20x15,10x5">` +
		`<img src="images/b.png"><img src="images/a.png"></p>`)
	require.NoError(t, err)
	assert.Equal(t, []ContentImage{
		{Src: "images/a.png", Sizes: []string{"20x15", "10x5"}},
		{Src: "images/b.png"},
	}, images)

	images, err = fx.svc.ContentImages("<p>no images</p>")
	require.NoError(t, err)
	assert.Empty(t, images)
}
