package imaging

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"emperror.dev/errors"
	"github.com/rwcarlsen/goexif/exif"
)

// Properties describes an image file without decoding its pixels.
type Properties struct {
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	Type            Format      `json:"-"`
	TypeName        string      `json:"type"`
	Attributes      string      `json:"attributes"`
	Bits            int         `json:"bits"`
	Channels        int         `json:"channels"`
	MIME            string      `json:"mime"`
	FileSize        int64       `json:"filesize"`
	Orientation     Orientation `json:"orientation"`
	ExifOrientation int         `json:"exif_orientation,omitempty"`
	CameraMake      string      `json:"camera_make,omitempty"`
	CameraModel     string      `json:"camera_model,omitempty"`
}

// FileProperties reads the header of the image at path.
func FileProperties(path string) (Properties, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Properties{}, errors.WithMessagef(ErrFileNotFound, "%s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return Properties{}, errors.Wrapf(err, "failed to open image %s", path)
	}
	defer f.Close()

	cfg, name, err := image.DecodeConfig(f)
	if err != nil {
		return Properties{}, errors.WithMessagef(ErrUnparsable, "%s", path)
	}

	format := formatFromDecoderName(name)
	bits, channels := colorModelDepth(cfg.ColorModel)

	props := Properties{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Type:        format,
		TypeName:    format.String(),
		Attributes:  fmt.Sprintf(`width="%d" height="%d"`, cfg.Width, cfg.Height),
		Bits:        bits,
		Channels:    channels,
		MIME:        format.MIME(),
		FileSize:    info.Size(),
		Orientation: OrientationOf(cfg.Width, cfg.Height),
	}

	if format == FormatJPEG || format == FormatTIFF {
		if _, err := f.Seek(0, 0); err == nil {
			readExif(f, &props)
		}
	}

	return props, nil
}

// readExif fills in EXIF derived fields. Missing or broken EXIF data is ignored.
func readExif(f *os.File, props *Properties) {
	x, err := exif.Decode(f)
	if err != nil {
		return
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			props.ExifOrientation = v
		}
	}
	if tag, err := x.Get(exif.Make); err == nil {
		props.CameraMake, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.Model); err == nil {
		props.CameraModel, _ = tag.StringVal()
	}
}

// colorModelDepth maps a colour model to bits per channel and channel count.
func colorModelDepth(m color.Model) (bits, channels int) {
	switch m {
	case color.GrayModel:
		return 8, 1
	case color.Gray16Model:
		return 16, 1
	case color.AlphaModel:
		return 8, 1
	case color.Alpha16Model:
		return 16, 1
	case color.YCbCrModel:
		return 8, 3
	case color.NYCbCrAModel, color.CMYKModel, color.RGBAModel, color.NRGBAModel:
		return 8, 4
	case color.RGBA64Model, color.NRGBA64Model:
		return 16, 4
	}
	// Paletted images report three channels.
	return 8, 3
}
