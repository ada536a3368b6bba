package responsive

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/imaging"
)

// ErrOutsideRoot is returned for sources that resolve outside the media root.
var ErrOutsideRoot = errors.New("image source is outside the media root")

// Generator creates and describes responsive variants of images below a root.
type Generator struct {
	root        string
	bestQuality bool
}

func NewGenerator(root string, bestQuality bool) *Generator {
	return &Generator{root: root, bestQuality: bestQuality}
}

func (g *Generator) Root() string { return g.root }

// Resolve maps a source as written in HTML to a file path below the root.
func (g *Generator) Resolve(src string) (string, error) {
	if src == "" || strings.Contains(src, "://") || strings.HasPrefix(src, "//") {
		return "", errors.WithMessagef(ErrOutsideRoot, "%q", src)
	}

	clean := path.Clean("/" + strings.TrimPrefix(src, "/"))
	full := filepath.Join(g.root, filepath.FromSlash(clean))

	rel, err := filepath.Rel(g.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.WithMessagef(ErrOutsideRoot, "%q", src)
	}
	return full, nil
}

// exists reports whether src names a regular file below the root.
func (g *Generator) exists(src string) (string, bool) {
	full, err := g.Resolve(src)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return full, true
}

// Create writes the variants of src and returns their sources relative to the root.
func (g *Generator) Create(src string, sizes []string, method imaging.ScaleMethod) ([]string, error) {
	full, err := g.Resolve(src)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Open(full)
	if err != nil {
		return nil, err
	}
	img.SetBestQuality(g.bestQuality)

	created, err := img.CreateMultipleSizes(sizes, method, false)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(created))
	for _, c := range created {
		out = append(out, g.relative(c.Path()))
	}
	return out, nil
}

// Delete removes the variants of src.
func (g *Generator) Delete(src string) ([]string, error) {
	full, err := g.Resolve(src)
	if err != nil {
		return nil, err
	}
	return imaging.DeleteVariants(full, false)
}

func (g *Generator) relative(full string) string {
	rel, err := filepath.Rel(g.root, full)
	if err != nil {
		return filepath.ToSlash(full)
	}
	return filepath.ToSlash(rel)
}

// FormImage is an image picked in a form field together with its sizes.
type FormImage struct {
	Name   string
	Sizes  []string
	Method imaging.ScaleMethod
}

// GenerateFormImages creates variants for every form image whose file exists
// and returns those images with cleaned names.
func (g *Generator) GenerateFormImages(images []FormImage) ([]FormImage, error) {
	var generated []FormImage
	for _, img := range images {
		img.Name = CleanImageURL(img.Name).URL
		if _, ok := g.exists(img.Name); !ok {
			continue
		}
		if _, err := g.Create(img.Name, img.Sizes, methodOrDefault(img.Method)); err != nil {
			return generated, errors.Wrapf(err, "image %s", img.Name)
		}
		generated = append(generated, img)
	}
	return generated, nil
}

// GenerateContentImages creates variants for every distinct existing image
// referenced by an <img> tag in content. An image's own data-jimage sizes
// take precedence over sizes.
func (g *Generator) GenerateContentImages(content string, sizes []string, method imaging.ScaleMethod) ([]string, error) {
	doc, err := parseFragment(content)
	if err != nil {
		return nil, err
	}

	var generated []string
	for _, src := range imageSources(doc) {
		if _, ok := g.exists(src); !ok {
			continue
		}
		imgSizes := sizes
		if custom := contentSizes(doc, src); custom != nil {
			imgSizes = custom
		}
		if _, err := g.Create(src, imgSizes, methodOrDefault(method)); err != nil {
			return generated, errors.Wrapf(err, "image %s", src)
		}
		generated = append(generated, src)
	}
	return generated, nil
}

// Srcset describes the variants of src as a srcset attribute value:
// "images/responsive/a_800x600.png 800w, images/responsive/a_600x450.png 600w".
// Only variants present below the root are listed. An empty string means
// there is nothing to describe.
func (g *Generator) Srcset(src string, sizes []string, method imaging.ScaleMethod) (string, error) {
	full, err := g.Resolve(src)
	if err != nil {
		return "", err
	}
	props, err := imaging.FileProperties(full)
	if err != nil {
		return "", err
	}

	dir := path.Join(path.Dir(src), imaging.ResponsiveFolder)

	entries := make([]string, 0, len(sizes))
	for _, size := range sizes {
		w, h, err := imaging.OutputSize(props.Width, props.Height, size, methodOrDefault(method))
		if err != nil {
			return "", err
		}
		variant := path.Join(dir, imaging.VariantName(path.Base(src), w, h))
		if _, ok := g.exists(variant); !ok {
			continue
		}
		entries = append(entries, fmt.Sprintf("%s %dw", variant, w))
	}
	return strings.Join(entries, ", "), nil
}

// SizesAttr returns the sizes attribute for src: the image is drawn at its
// natural width and at full viewport width below it.
func (g *Generator) SizesAttr(src string) (string, error) {
	full, err := g.Resolve(src)
	if err != nil {
		return "", err
	}
	props, err := imaging.FileProperties(full)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(max-width: %[1]dpx) 100vw, %[1]dpx", props.Width), nil
}

// FormSrcset is the srcset of a form image, with sizes chosen by Sizes.
func (g *Generator) FormSrcset(src string, custom bool, options []SizeOption, plugin PluginSettings, method imaging.ScaleMethod) (string, error) {
	return g.Srcset(CleanImageURL(src).URL, Sizes(custom, options, plugin), method)
}

// AddContentSrcsetAndSizes sets srcset and sizes on every <img> in content
// whose source exists below the root, replacing earlier values.
func (g *Generator) AddContentSrcsetAndSizes(content string, sizes []string, method imaging.ScaleMethod) (string, error) {
	doc, err := parseFragment(content)
	if err != nil {
		return "", err
	}

	changed := false
	for _, src := range imageSources(doc) {
		if _, ok := g.exists(src); !ok {
			continue
		}

		imgSizes := sizes
		if custom := contentSizes(doc, src); custom != nil {
			imgSizes = custom
		}

		srcset, err := g.Srcset(src, imgSizes, method)
		if err != nil {
			log.Warn().Err(err).Str("src", src).Msg("skipping srcset for content image")
			continue
		}
		if srcset == "" {
			continue
		}
		sizesAttr, err := g.SizesAttr(src)
		if err != nil {
			continue
		}

		doc.Find("img").FilterFunction(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr("src")
			return v == src
		}).SetAttr("srcset", srcset).SetAttr("sizes", sizesAttr)
		changed = true
	}

	if !changed {
		return content, nil
	}
	return renderFragment(doc)
}

func methodOrDefault(m imaging.ScaleMethod) imaging.ScaleMethod {
	if m == 0 {
		return imaging.ScaleInside
	}
	return m
}
