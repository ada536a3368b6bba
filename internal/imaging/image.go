package imaging

import (
	"image"
	"image/color"
	"io"
	"os"
	"sync/atomic"

	// Decoders for formats not in the standard library.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"emperror.dev/errors"
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

// ScaleMethod selects how Resize maps the source onto the requested box.
type ScaleMethod int

const (
	// ScaleFill stretches the image to exactly the requested size.
	ScaleFill ScaleMethod = iota + 1
	// ScaleInside scales so the whole image fits inside the box.
	ScaleInside
	// ScaleOutside scales so the image covers the box.
	ScaleOutside
	// Crop cuts a centred region of the requested size.
	Crop
	// CropResize scales to cover the box and then crops to it.
	CropResize
	// ScaleFit scales inside the box and pads to the box with transparency.
	ScaleFit
)

func (m ScaleMethod) String() string {
	switch m {
	case ScaleFill:
		return "fill"
	case ScaleInside:
		return "inside"
	case ScaleOutside:
		return "outside"
	case Crop:
		return "crop"
	case CropResize:
		return "crop_resize"
	case ScaleFit:
		return "fit"
	}
	return "unknown"
}

// ParseScaleMethod accepts either a method name or its numeric value.
func ParseScaleMethod(s string) (ScaleMethod, error) {
	for m := ScaleFill; m <= ScaleFit; m++ {
		if s == m.String() || s == string(rune('0'+int(m))) {
			return m, nil
		}
	}
	return 0, errors.WithMessagef(ErrInvalidScaleMethod, "%q", s)
}

// Orientation describes the aspect of an image.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
	Square    Orientation = "square"
)

// OrientationOf returns the orientation of a width x height box.
func OrientationOf(width, height int) Orientation {
	switch {
	case width > height:
		return Landscape
	case width < height:
		return Portrait
	}
	return Square
}

// Image is a decoded bitmap plus the file it came from.
type Image struct {
	img             image.Image
	path            string
	format          Format
	exifOrientation int
	bestQuality     bool
}

// New wraps an in-memory image. A nil img yields an unloaded Image.
func New(img image.Image) *Image {
	return &Image{img: img, bestQuality: true}
}

// DefaultMaxPixels is the decode limit used until SetMaxPixels is called.
const DefaultMaxPixels int64 = 100_000_000

var maxPixels atomic.Int64

func init() {
	maxPixels.Store(DefaultMaxPixels)
}

// SetMaxPixels limits the width*height of images Load accepts. A value of 0
// or less disables the check.
func SetMaxPixels(n int64) {
	maxPixels.Store(n)
}

// MaxPixels returns the current decode limit.
func MaxPixels() int64 {
	return maxPixels.Load()
}

// Open loads the image stored at path.
func Open(path string) (*Image, error) {
	i := &Image{bestQuality: true}
	if err := i.Load(path); err != nil {
		return nil, err
	}
	return i, nil
}

// Load replaces the bitmap with the image stored at path.
func (i *Image) Load(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.WithMessagef(ErrFileNotFound, "%s", path)
	}

	props, err := FileProperties(path)
	if err != nil {
		return err
	}
	if !props.Type.Loadable() {
		return errors.WithMessagef(ErrUnsupportedType, "%s (%s)", path, props.MIME)
	}
	if limit := MaxPixels(); limit > 0 && int64(props.Width)*int64(props.Height) > limit {
		return errors.WithMessagef(ErrTooManyPixels, "%s (%dx%d, limit %d)", path, props.Width, props.Height, limit)
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open image %s", path)
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		return errors.WithMessagef(ErrUnparsable, "%s: %v", path, err)
	}

	i.img = img
	i.path = path
	i.format = props.Type
	i.exifOrientation = props.ExifOrientation

	log.Debug().Str("path", path).Str("type", props.Type.String()).
		Int("width", props.Width).Int("height", props.Height).Msg("image loaded")
	return nil
}

func decode(r io.Reader) (image.Image, error) {
	return imaging.Decode(r)
}

// derive returns a copy of the receiver's metadata around a new bitmap.
func (i *Image) derive(img image.Image) *Image {
	return &Image{
		img:             img,
		path:            i.path,
		format:          i.format,
		exifOrientation: i.exifOrientation,
		bestQuality:     i.bestQuality,
	}
}

func (i *Image) IsLoaded() bool { return i != nil && i.img != nil }

// Bitmap exposes the underlying image.
func (i *Image) Bitmap() image.Image { return i.img }

func (i *Image) Path() string { return i.path }

// Format is the format the image was loaded from, FormatUnknown for in-memory images.
func (i *Image) Format() Format { return i.format }

func (i *Image) Width() int {
	if !i.IsLoaded() {
		return 0
	}
	return i.img.Bounds().Dx()
}

func (i *Image) Height() int {
	if !i.IsLoaded() {
		return 0
	}
	return i.img.Bounds().Dy()
}

func (i *Image) Orientation() Orientation {
	return OrientationOf(i.Width(), i.Height())
}

// IsTransparent reports whether any pixel of the image is not fully opaque.
func (i *Image) IsTransparent() bool {
	if !i.IsLoaded() {
		return false
	}
	if o, ok := i.img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := i.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := i.img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// SetBestQuality toggles high quality (Lanczos) resampling. It is on by default.
func (i *Image) SetBestQuality(best bool) *Image {
	i.bestQuality = best
	return i
}

func (i *Image) resampleFilter() imaging.ResampleFilter {
	if i.bestQuality {
		return imaging.Lanczos
	}
	return imaging.NearestNeighbor
}

func (i *Image) ensureLoaded() error {
	if !i.IsLoaded() {
		return ErrNotLoaded
	}
	return nil
}

// transparentCanvas returns an empty fully transparent image.
func transparentCanvas(width, height int) *image.NRGBA {
	return imaging.New(width, height, color.NRGBA{})
}
