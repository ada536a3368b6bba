package imaging

import (
	"image"
	"sort"
	"strconv"
	"strings"
	"sync"

	"emperror.dev/errors"
	"github.com/disintegration/imaging"

	"github.com/mrlokans/mediamanager/internal/utils"
)

// FilterOptions carries per filter arguments, e.g. {"brightness": 40}.
type FilterOptions map[string]any

// Float returns the option as a number, or def when it is missing or invalid.
func (o FilterOptions) Float(key string, def float64) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

// String returns the option as a string, or def when it is missing.
func (o FilterOptions) String(key, def string) string {
	if v, ok := o[key].(string); ok && v != "" {
		return v
	}
	return def
}

// FilterFunc applies a named filter to img.
type FilterFunc func(img image.Image, opts FilterOptions) (*image.NRGBA, error)

var (
	filtersMu sync.RWMutex
	filters   = map[string]FilterFunc{}
)

// RegisterFilter makes a filter available to Image.Filter under name.
func RegisterFilter(name string, fn FilterFunc) {
	filtersMu.Lock()
	defer filtersMu.Unlock()
	filters[strings.ToLower(name)] = fn
}

// Filters lists the registered filter names.
func Filters() []string {
	filtersMu.RLock()
	defer filtersMu.RUnlock()

	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filter runs the registered filter called name over the image.
func (i *Image) Filter(name string, opts FilterOptions) (*Image, error) {
	if err := i.ensureLoaded(); err != nil {
		return nil, err
	}

	filtersMu.RLock()
	fn, ok := filters[strings.ToLower(name)]
	filtersMu.RUnlock()
	if !ok {
		return nil, errors.WithMessagef(ErrUnknownFilter, "%q", name)
	}

	out, err := fn(i.img, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "filter %s", name)
	}
	return i.derive(out), nil
}

func init() {
	RegisterFilter("brightness", brightnessFilter)
	RegisterFilter("contrast", contrastFilter)
	RegisterFilter("grayscale", func(img image.Image, _ FilterOptions) (*image.NRGBA, error) {
		return imaging.Grayscale(img), nil
	})
	RegisterFilter("negate", func(img image.Image, _ FilterOptions) (*image.NRGBA, error) {
		return imaging.Invert(img), nil
	})
	RegisterFilter("edgedetect", kernelFilter([9]float64{-1, 0, -1, 0, 4, 0, -1, 0, -1}, 127))
	RegisterFilter("emboss", kernelFilter([9]float64{1.5, 0, 0, 0, 0, 0, 0, 0, -1.5}, 127))
	RegisterFilter("sketchy", kernelFilter([9]float64{-1, -1, -1, -1, 9, -1, -1, -1, -1}, 0))
	RegisterFilter("smooth", smoothFilter)
	RegisterFilter("backgroundfill", backgroundFillFilter)
}

// brightnessFilter takes "brightness" in -255..255 channel units.
func brightnessFilter(img image.Image, opts FilterOptions) (*image.NRGBA, error) {
	v, ok := opts["brightness"]
	if !ok || v == nil {
		return nil, errors.New("no valid amount was given, expected brightness")
	}
	return imaging.AdjustBrightness(img, opts.Float("brightness", 0)/255*100), nil
}

// contrastFilter takes "contrast" in -100..100; negative values raise contrast.
func contrastFilter(img image.Image, opts FilterOptions) (*image.NRGBA, error) {
	v, ok := opts["contrast"]
	if !ok || v == nil {
		return nil, errors.New("no valid amount was given, expected contrast")
	}
	return imaging.AdjustContrast(img, -opts.Float("contrast", 0)), nil
}

func kernelFilter(kernel [9]float64, bias int) FilterFunc {
	return func(img image.Image, _ FilterOptions) (*image.NRGBA, error) {
		return imaging.Convolve3x3(img, kernel, &imaging.ConvolveOptions{Bias: bias}), nil
	}
}

// smoothFilter takes "smooth", the weight of the centre pixel.
func smoothFilter(img image.Image, opts FilterOptions) (*image.NRGBA, error) {
	v, ok := opts["smooth"]
	if !ok || v == nil {
		return nil, errors.New("no valid amount was given, expected smooth")
	}
	w := opts.Float("smooth", 0)
	kernel := [9]float64{1, 1, 1, 1, w, 1, 1, 1, 1}
	return imaging.Convolve3x3(img, kernel, &imaging.ConvolveOptions{Normalize: true}), nil
}

// backgroundFillFilter paints transparent areas with "color" (hex).
func backgroundFillFilter(img image.Image, opts FilterOptions) (*image.NRGBA, error) {
	c, err := utils.ParseHexColor(opts.String("color", "#FFFFFF"))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return imaging.Overlay(imaging.New(b.Dx(), b.Dy(), c), img, image.Pt(0, 0), 1), nil
}
