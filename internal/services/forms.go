package services

import (
	"context"
	"html/template"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/responsive"
)

// FormField is an image picked in a form field with the field's size settings.
type FormField struct {
	Image       string                  `json:"image"`
	Custom      bool                    `json:"custom"`
	SizeOptions []responsive.SizeOption `json:"size_options,omitempty"`
}

// FormImage is a form image whose variants were written.
type FormImage struct {
	Image  string   `json:"image"`
	Sizes  []string `json:"sizes"`
	Srcset string   `json:"srcset"`
}

// FormResponsive writes the variants of the images saved with a form. Field
// sizes win when the field is custom, then the configured sizes apply.
// Images that do not exist below the root are skipped.
func (s *MediaService) FormResponsive(ctx context.Context, fields []FormField) ([]FormImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	images := make([]responsive.FormImage, 0, len(fields))
	for _, f := range fields {
		images = append(images, responsive.FormImage{
			Name:   f.Image,
			Sizes:  responsive.Sizes(f.Custom, f.SizeOptions, s.plugin),
			Method: s.cfg.Method,
		})
	}

	generated, err := s.generator.GenerateFormImages(images)
	out := make([]FormImage, 0, len(generated))
	for _, img := range generated {
		srcset, serr := s.generator.Srcset(img.Name, img.Sizes, img.Method)
		if serr != nil {
			log.Warn().Err(serr).Str("image", img.Name).Msg("form image has no srcset")
		}
		out = append(out, FormImage{Image: img.Name, Sizes: img.Sizes, Srcset: srcset})
	}
	if err != nil {
		return out, err
	}

	log.Info().Int("fields", len(fields)).Int("generated", len(out)).Msg("form images processed")
	return out, nil
}

// ImgTagOptions adjust the element rendered by ImgTag.
type ImgTagOptions struct {
	Alt    string
	Width  int
	Height int
	// Sizes replace the configured sizes when set.
	Sizes []string
}

// ImgTag renders an <img> element for a stored image, with srcset and sizes
// listing the variants present on disk.
func (s *MediaService) ImgTag(id uint, opts ImgTagOptions) (template.HTML, error) {
	file, err := s.store.GetByID(id)
	if err != nil {
		return "", err
	}
	if !file.IsImage {
		return "", ErrNotImage
	}

	options := responsive.ParseSizeOptions(opts.Sizes)
	return s.generator.ImgTag(responsive.ImgOptions{
		Src:         file.Path,
		BaseURL:     s.cfg.BaseURL,
		Alt:         opts.Alt,
		Width:       opts.Width,
		Height:      opts.Height,
		Custom:      len(options) > 0,
		SizeOptions: options,
		Plugin:      s.plugin,
		Method:      s.cfg.Method,
	})
}

// ContentImage is an image referenced by an HTML fragment.
type ContentImage struct {
	Src string `json:"src"`
	// Sizes come from the image's data-jimage attribute.
	Sizes []string `json:"sizes,omitempty"`
}

// ContentImages lists the distinct image sources of an HTML fragment and the
// custom sizes each one asks for.
func (s *MediaService) ContentImages(content string) ([]ContentImage, error) {
	sources, err := responsive.ImageSources(content)
	if err != nil {
		return nil, err
	}

	images := make([]ContentImage, 0, len(sources))
	for _, src := range sources {
		sizes, err := responsive.ContentSizes(content, src)
		if err != nil {
			return nil, err
		}
		images = append(images, ContentImage{Src: src, Sizes: sizes})
	}
	return images, nil
}
