package imaging

import (
	"bufio"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

type encodeConfig struct {
	quality *int
}

// EncodeOption tunes ToFile and Encode.
type EncodeOption func(*encodeConfig)

// WithQuality sets the output quality. For PNG it is the compression level
// 0..9, for JPEG and WebP a quality 0..100.
func WithQuality(q int) EncodeOption {
	return func(c *encodeConfig) { c.quality = &q }
}

func (c encodeConfig) qualityOr(def int) int {
	if c.quality == nil {
		return def
	}
	return *c.quality
}

// Encode writes the image to w. Unknown formats are written as JPEG.
func (i *Image) Encode(w io.Writer, format Format, opts ...EncodeOption) error {
	if err := i.ensureLoaded(); err != nil {
		return err
	}

	var cfg encodeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	switch format {
	case FormatGIF:
		return imaging.Encode(w, i.img, imaging.GIF)
	case FormatPNG:
		return imaging.Encode(w, i.img, imaging.PNG,
			imaging.PNGCompressionLevel(pngCompression(cfg.qualityOr(0))))
	case FormatWebP:
		q := min(max(cfg.qualityOr(100), 0), 100)
		return webp.Encode(w, i.img, &webp.Options{Quality: float32(q)})
	case FormatBMP:
		return imaging.Encode(w, i.img, imaging.BMP)
	case FormatTIFF:
		return imaging.Encode(w, i.img, imaging.TIFF)
	}

	q := min(max(cfg.qualityOr(100), 1), 100)
	return imaging.Encode(w, i.img, imaging.JPEG, imaging.JPEGQuality(q))
}

// pngCompression maps a 0..9 zlib style level onto the levels image/png offers.
func pngCompression(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	}
	return png.BestCompression
}

// ToFile writes the image to path. The file appears atomically.
func (i *Image) ToFile(path string, format Format, opts ...EncodeOption) error {
	if err := i.ensureLoaded(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".image-*.tmp")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file in %s", dir)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err := i.Encode(bw, format, opts...); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to encode %s image", format)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write image")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return errors.Wrap(err, "failed to set image permissions")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, "failed to move image to %s", path)
	}
	tmpPath = ""
	return nil
}
