package imaging

import (
	"image"
	"image/color"
	"math"

	"emperror.dev/errors"
	"github.com/disintegration/imaging"
)

// FlipMode selects the axis for Flip.
type FlipMode int

const (
	FlipHorizontal FlipMode = iota + 1
	FlipVertical
	FlipBoth
)

// Resize scales the image into a width x height box using method.
// Crop and CropResize are not valid here; use the dedicated operations.
func (i *Image) Resize(width, height Dimension, method ScaleMethod) (*Image, error) {
	if err := i.ensureLoaded(); err != nil {
		return nil, err
	}

	w, h := i.sanitizeDimensions(width, height)
	dw, dh, err := i.prepareDimensions(w, h, method)
	if err != nil {
		return nil, err
	}

	scaled := imaging.Resize(i.img, dw, dh, i.resampleFilter())
	if method != ScaleFit {
		return i.derive(scaled), nil
	}

	cw, ch := w, h
	if cw <= 0 {
		cw = dw
	}
	if ch <= 0 {
		ch = dh
	}
	offset := image.Pt(
		int(math.Round(float64(cw-dw)/2)),
		int(math.Round(float64(ch-dh)/2)),
	)
	return i.derive(imaging.Paste(transparentCanvas(cw, ch), scaled, offset)), nil
}

// Offset is a helper for the optional Crop offsets.
func Offset(v int) *int { return &v }

// Crop cuts a width x height region starting at left/top. A nil offset centres
// the region on that axis. Parts of the region outside the image are transparent.
func (i *Image) Crop(width, height Dimension, left, top *int) (*Image, error) {
	if err := i.ensureLoaded(); err != nil {
		return nil, err
	}

	w, h := i.sanitizeDimensions(width, height)
	if w <= 0 || h <= 0 {
		return nil, errors.WithMessagef(ErrInvalidDimensions, "crop %dx%d", w, h)
	}

	x := int(math.Round(float64(i.Width()-w) / 2))
	if left != nil {
		x = *left
	}
	y := int(math.Round(float64(i.Height()-h) / 2))
	if top != nil {
		y = *top
	}

	b := i.img.Bounds()
	src := image.Pt(b.Min.X+x, b.Min.Y+y)
	if image.Rect(0, 0, w, h).Add(src).In(b) {
		return i.derive(imaging.Crop(i.img, image.Rect(0, 0, w, h).Add(src))), nil
	}

	return i.derive(imaging.Paste(transparentCanvas(w, h), i.img, image.Pt(-x, -y))), nil
}

// CropResize scales the image so it covers width x height and crops the centre.
func (i *Image) CropResize(width, height Dimension) (*Image, error) {
	if err := i.ensureLoaded(); err != nil {
		return nil, err
	}

	w, h := i.sanitizeDimensions(width, height)
	if w <= 0 || h <= 0 {
		return nil, errors.WithMessagef(ErrInvalidDimensions, "crop %dx%d", w, h)
	}

	var (
		scaled *Image
		err    error
	)
	if float64(i.Width())/float64(w) < float64(i.Height())/float64(h) {
		scaled, err = i.Resize(Px(float64(w)), Px(0), ScaleInside)
	} else {
		scaled, err = i.Resize(Px(0), Px(float64(h)), ScaleInside)
	}
	if err != nil {
		return nil, err
	}

	return scaled.Crop(Px(float64(w)), Px(float64(h)), nil, nil)
}

// Rotate turns the image counter-clockwise by angle degrees. Uncovered areas
// are filled with background, or left transparent when background is nil.
func (i *Image) Rotate(angle float64, background color.Color) (*Image, error) {
	if err := i.ensureLoaded(); err != nil {
		return nil, err
	}
	if background == nil {
		background = color.Transparent
	}
	return i.derive(imaging.Rotate(i.img, angle, background)), nil
}

func (i *Image) Flip(mode FlipMode) (*Image, error) {
	if err := i.ensureLoaded(); err != nil {
		return nil, err
	}

	switch mode {
	case FlipHorizontal:
		return i.derive(imaging.FlipH(i.img)), nil
	case FlipVertical:
		return i.derive(imaging.FlipV(i.img)), nil
	case FlipBoth:
		return i.derive(imaging.Rotate180(i.img)), nil
	}
	return nil, errors.WithMessagef(ErrInvalidFlipMode, "mode %d", mode)
}

// Watermark merges mark into the bottom right corner. transparency is the
// opacity of the mark in percent.
func (i *Image) Watermark(mark *Image, transparency, bottomMargin, rightMargin int) (*Image, error) {
	if err := i.ensureLoaded(); err != nil {
		return nil, err
	}
	if !mark.IsLoaded() {
		return nil, errors.WithMessage(ErrNotLoaded, "watermark")
	}

	transparency = min(max(transparency, 0), 100)
	pos := image.Pt(
		i.Width()-mark.Width()-rightMargin,
		i.Height()-mark.Height()-bottomMargin,
	)
	return i.derive(imaging.Overlay(i.img, mark.img, pos, float64(transparency)/100)), nil
}

// AutoOrient applies the EXIF orientation recorded when the image was loaded.
func (i *Image) AutoOrient() (*Image, error) {
	if err := i.ensureLoaded(); err != nil {
		return nil, err
	}

	var img image.Image
	switch i.exifOrientation {
	case 2:
		img = imaging.FlipH(i.img)
	case 3:
		img = imaging.Rotate180(i.img)
	case 4:
		img = imaging.FlipV(i.img)
	case 5:
		img = imaging.Transpose(i.img)
	case 6:
		img = imaging.Rotate270(i.img)
	case 7:
		img = imaging.Transverse(i.img)
	case 8:
		img = imaging.Rotate90(i.img)
	default:
		img = imaging.Clone(i.img)
	}

	out := i.derive(img)
	out.exifOrientation = 1
	return out, nil
}
