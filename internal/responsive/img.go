package responsive

import (
	"html/template"
	"strings"

	"emperror.dev/errors"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/imaging"
)

var imgTemplate = template.Must(template.New("img").Parse(
	`<img src="{{.Src}}" alt="{{.Alt}}"` +
		`{{if .Width}} width="{{.Width}}"{{end}}` +
		`{{if .Height}} height="{{.Height}}"{{end}}` +
		`{{if .Srcset}} srcset="{{.Srcset}}" sizes="{{.Sizes}}"{{end}}>`))

// ImgOptions describe an image block rendered by banner, tag and category views.
type ImgOptions struct {
	// Src is the media field value, possibly carrying a "#joomlaImage://" suffix.
	Src string
	// BaseURL is prepended to local sources.
	BaseURL     string
	Alt         string
	Width       int
	Height      int
	Custom      bool
	SizeOptions []SizeOption
	Plugin      PluginSettings
	Method      imaging.ScaleMethod
}

type imgData struct {
	Src           string
	Alt           string
	Width, Height int
	Srcset, Sizes string
}

// ImgTag renders an <img> element with srcset and sizes for the variants of
// the image. Remote images and images without variants get a plain tag.
func (g *Generator) ImgTag(opts ImgOptions) (template.HTML, error) {
	clean := CleanImageURL(opts.Src)

	data := imgData{
		Src:    clean.URL,
		Alt:    opts.Alt,
		Width:  opts.Width,
		Height: opts.Height,
	}
	if data.Width == 0 && data.Height == 0 {
		data.Width, data.Height = clean.Width, clean.Height
	}

	if !strings.HasPrefix(clean.URL, "http") {
		data.Src = strings.TrimSuffix(opts.BaseURL, "/") + "/" + strings.TrimPrefix(clean.URL, "/")
		if opts.BaseURL == "" {
			data.Src = clean.URL
		}

		if _, ok := g.exists(clean.URL); ok {
			srcset, err := g.FormSrcset(clean.URL, opts.Custom, opts.SizeOptions, opts.Plugin, opts.Method)
			if err != nil {
				log.Warn().Err(err).Str("src", clean.URL).Msg("rendering image without srcset")
			} else if sizes, err := g.SizesAttr(clean.URL); err == nil {
				data.Srcset, data.Sizes = srcset, sizes
			}
		}
	}

	var b strings.Builder
	if err := imgTemplate.Execute(&b, data); err != nil {
		return "", errors.Wrap(err, "failed to render img tag")
	}
	return template.HTML(b.String()), nil
}
