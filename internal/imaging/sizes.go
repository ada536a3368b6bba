package imaging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"emperror.dev/errors"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/utils"
)

const (
	ResponsiveFolder = "responsive"
	ThumbsFolder     = "thumbs"
)

// sizeSuffix matches the "_800x600" part of a generated variant name.
var sizeSuffix = regexp.MustCompile(`_[^_][0-9]+x[0-9]+[^.]*`)

// ParseSize splits a "WIDTHxHEIGHT" string. The separator is case-insensitive
// and each side may be a pixel value or a percentage. An empty side parses as
// 0, so "800x" constrains only the width; at least one side must be set.
func ParseSize(size string) (Dimension, Dimension, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(size)), "x")
	if len(parts) != 2 {
		return Auto, Auto, errors.WithMessagef(ErrInvalidSize, "%q", size)
	}

	dims := [2]Dimension{}
	for n, part := range parts {
		d, err := ParseDimension(part)
		if err != nil {
			return Auto, Auto, errors.WithMessagef(ErrInvalidSize, "%q", size)
		}
		if d.IsAuto() {
			d = Px(0)
		}
		dims[n] = d
	}
	if strings.TrimSpace(parts[0]) == "" && strings.TrimSpace(parts[1]) == "" {
		return Auto, Auto, errors.WithMessagef(ErrInvalidSize, "%q", size)
	}
	return dims[0], dims[1], nil
}

// GenerateMultipleSizes returns one derived image per "WxH" size.
func (i *Image) GenerateMultipleSizes(sizes []string, method ScaleMethod) ([]*Image, error) {
	if err := i.ensureLoaded(); err != nil {
		return nil, err
	}

	generated := make([]*Image, 0, len(sizes))
	for _, size := range sizes {
		w, h, err := ParseSize(size)
		if err != nil {
			return nil, err
		}

		var out *Image
		switch method {
		case Crop:
			out, err = i.Crop(w, h, nil, nil)
		case CropResize:
			out, err = i.CropResize(w, h)
		default:
			out, err = i.Resize(w, h, method)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "size %s", size)
		}
		generated = append(generated, out)
	}
	return generated, nil
}

// VariantFolder is the directory holding generated sizes of the image.
func (i *Image) VariantFolder(thumbs bool) string {
	folder := ResponsiveFolder
	if thumbs {
		folder = ThumbsFolder
	}
	return filepath.Join(filepath.Dir(i.path), folder)
}

// VariantName is the file name used for a width x height variant of source:
// "images/joomla.png" -> "joomla_800x600.png".
func VariantName(source string, width, height int) string {
	return fmt.Sprintf("%s_%dx%d%s", utils.StripExtension(source), width, height, filepath.Ext(source))
}

// CreateMultipleSizes generates the sizes and writes them next to the source
// image, into its responsive (or thumbs) folder. The returned images carry
// the paths they were written to.
func (i *Image) CreateMultipleSizes(sizes []string, method ScaleMethod, thumbs bool) ([]*Image, error) {
	if err := i.ensureLoaded(); err != nil {
		return nil, err
	}
	if i.path == "" {
		return nil, ErrNoPath
	}

	folder := i.VariantFolder(thumbs)
	if err := ensureFolder(folder); err != nil {
		return nil, err
	}

	generated, err := i.GenerateMultipleSizes(sizes, method)
	if err != nil {
		return nil, err
	}

	format := i.format
	if format == FormatUnknown {
		format = FormatFromExtension(i.path)
	}

	for _, img := range generated {
		path := filepath.Join(folder, VariantName(i.path, img.Width(), img.Height()))
		if err := img.ToFile(path, format); err != nil {
			return nil, err
		}
		img.path = path
		log.Debug().Str("source", i.path).Str("variant", path).Msg("image size created")
	}
	return generated, nil
}

// ensureFolder creates folder when its parent exists.
func ensureFolder(folder string) error {
	if info, err := os.Stat(folder); err == nil && info.IsDir() {
		return nil
	}
	if info, err := os.Stat(filepath.Dir(folder)); err != nil || !info.IsDir() {
		return errors.WithMessagef(ErrFolderCreate, "%s", folder)
	}
	if err := os.Mkdir(folder, 0755); err != nil && !os.IsExist(err) {
		return errors.WithMessagef(ErrFolderCreate, "%s: %v", folder, err)
	}
	return nil
}

// DeleteMultipleSizes removes previously generated sizes of the image and
// returns the names of the deleted files.
func (i *Image) DeleteMultipleSizes(thumbs bool) ([]string, error) {
	if err := i.ensureLoaded(); err != nil {
		return nil, err
	}
	return DeleteVariants(i.path, thumbs)
}

// DeleteVariants removes the generated sizes of the image at source. It does
// not need the source image to exist, which lets orphaned variants be cleaned.
func DeleteVariants(source string, thumbs bool) ([]string, error) {
	folder := ResponsiveFolder
	if thumbs {
		folder = ThumbsFolder
	}
	dir := filepath.Join(filepath.Dir(source), folder)
	base := filepath.Base(source)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.Wrapf(err, "failed to read %s", dir)
	}

	deleted := []string{}
	for _, entry := range entries {
		if entry.IsDir() || VariantSource(entry.Name()) != base {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return deleted, errors.Wrapf(err, "failed to delete %s", entry.Name())
		}
		deleted = append(deleted, entry.Name())
	}
	return deleted, nil
}

// VariantSource strips the size segment from a variant file name, giving the
// name of the image it was generated from: "joomla_800x600.png" -> "joomla.png".
func VariantSource(name string) string {
	return sizeSuffix.ReplaceAllString(name, "")
}
