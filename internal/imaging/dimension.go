package imaging

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"emperror.dev/errors"
)

var percentPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?%$`)

// Dimension is a requested image side length. It is either a pixel count or a
// percentage of the matching side of the current image. The zero value is Auto.
type Dimension struct {
	value   float64
	percent bool
	set     bool
}

// Auto leaves a side unspecified so it is derived from the other one.
var Auto = Dimension{}

// Px returns a pixel dimension. Fractions are rounded when resolved.
func Px(v float64) Dimension {
	return Dimension{value: v, set: true}
}

// Percent returns a dimension relative to the current image side.
func Percent(p float64) Dimension {
	return Dimension{value: p, percent: true, set: true}
}

// ParseDimension parses "200", "200.5" or "50%". An empty string yields Auto.
func ParseDimension(s string) (Dimension, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Auto, nil
	}
	if percentPattern.MatchString(s) {
		v, _ := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		return Percent(v), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Auto, errors.WithMessagef(ErrInvalidSize, "dimension %q", s)
	}
	return Px(v), nil
}

// IsAuto reports whether the dimension was left unspecified.
func (d Dimension) IsAuto() bool { return !d.set }

// IsPercent reports whether the dimension is relative to the image.
func (d Dimension) IsPercent() bool { return d.percent }

func (d Dimension) String() string {
	switch {
	case !d.set:
		return "auto"
	case d.percent:
		return strconv.FormatFloat(d.value, 'f', -1, 64) + "%"
	}
	return strconv.FormatFloat(d.value, 'f', -1, 64)
}

// resolve converts the dimension to pixels against a side of the given length.
func (d Dimension) resolve(side int) int {
	if d.percent {
		return int(math.Round(float64(side) * d.value / 100))
	}
	return int(math.Round(d.value))
}

// sanitizeDimensions turns requested dimensions into pixel values. A missing
// width takes the requested height; a missing height takes the resolved width.
func sanitizeDimensions(srcW, srcH int, width, height Dimension) (int, int) {
	if width.IsAuto() {
		width = height
	}
	w := width.resolve(srcW)

	h := w
	if !height.IsAuto() {
		h = height.resolve(srcH)
	}
	return w, h
}

func (i *Image) sanitizeDimensions(width, height Dimension) (int, int) {
	return sanitizeDimensions(i.Width(), i.Height(), width, height)
}

func (i *Image) prepareDimensions(width, height int, method ScaleMethod) (int, int, error) {
	return prepareDimensions(i.Width(), i.Height(), width, height, method)
}

// prepareDimensions computes the size of the scaled image for a method.
func prepareDimensions(srcW, srcH, width, height int, method ScaleMethod) (int, int, error) {
	switch method {
	case ScaleFill:
		if width <= 0 || height <= 0 {
			return 0, 0, errors.WithMessagef(ErrInvalidDimensions, "%dx%d", width, height)
		}
		return width, height, nil

	case ScaleInside, ScaleOutside, ScaleFit:
		var rx, ry float64
		if width > 0 {
			rx = float64(srcW) / float64(width)
		}
		if height > 0 {
			ry = float64(srcH) / float64(height)
		}

		var ratio float64
		if method == ScaleOutside {
			ratio = positiveMin(rx, ry)
		} else {
			ratio = math.Max(rx, ry)
		}
		if ratio <= 0 {
			return 0, 0, errors.WithMessagef(ErrInvalidDimensions, "%dx%d", width, height)
		}

		w := int(math.Round(float64(srcW) / ratio))
		h := int(math.Round(float64(srcH) / ratio))
		return max(w, 1), max(h, 1), nil
	}

	return 0, 0, errors.WithMessagef(ErrInvalidScaleMethod, "method %d", method)
}

// positiveMin returns the smaller of the positive values, or 0 if neither is.
func positiveMin(a, b float64) float64 {
	switch {
	case a > 0 && b > 0:
		return math.Min(a, b)
	case a > 0:
		return a
	}
	return b
}

// OutputSize returns the size of the image GenerateMultipleSizes would produce
// for a srcW x srcH source, without touching any pixels.
func OutputSize(srcW, srcH int, size string, method ScaleMethod) (int, int, error) {
	width, height, err := ParseSize(size)
	if err != nil {
		return 0, 0, err
	}

	w, h := sanitizeDimensions(srcW, srcH, width, height)
	switch method {
	case Crop, CropResize:
		if w <= 0 || h <= 0 {
			return 0, 0, errors.WithMessagef(ErrInvalidDimensions, "crop %dx%d", w, h)
		}
		return w, h, nil
	}

	dw, dh, err := prepareDimensions(srcW, srcH, w, h, method)
	if err != nil {
		return 0, 0, err
	}
	if method == ScaleFit {
		if w > 0 {
			dw = w
		}
		if h > 0 {
			dh = h
		}
	}
	return dw, dh, nil
}
