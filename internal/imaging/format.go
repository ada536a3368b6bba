package imaging

import (
	"path/filepath"
	"strings"
)

// Format identifies an image file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatGIF
	FormatJPEG
	FormatPNG
	FormatWebP
	FormatBMP
	FormatTIFF
)

var formatInfo = map[Format]struct {
	name string
	mime string
	ext  string
}{
	FormatGIF:  {"GIF", "image/gif", "gif"},
	FormatJPEG: {"JPEG", "image/jpeg", "jpg"},
	FormatPNG:  {"PNG", "image/png", "png"},
	FormatWebP: {"WebP", "image/webp", "webp"},
	FormatBMP:  {"BMP", "image/bmp", "bmp"},
	FormatTIFF: {"TIFF", "image/tiff", "tiff"},
}

func (f Format) String() string {
	if info, ok := formatInfo[f]; ok {
		return info.name
	}
	return "unknown"
}

// MIME returns the media type of the format, or an empty string.
func (f Format) MIME() string {
	return formatInfo[f].mime
}

// Extension returns the canonical file extension without a leading dot.
func (f Format) Extension() string {
	return formatInfo[f].ext
}

// Loadable reports whether images of this format can be loaded into an Image.
func (f Format) Loadable() bool {
	switch f {
	case FormatGIF, FormatJPEG, FormatPNG, FormatWebP:
		return true
	}
	return false
}

// FormatFromMIME maps a media type such as "image/png" to a Format.
func FormatFromMIME(mime string) Format {
	mime = strings.ToLower(strings.TrimSpace(mime))
	for f, info := range formatInfo {
		if info.mime == mime {
			return f
		}
	}
	return FormatUnknown
}

// FormatFromExtension maps a file name or extension to a Format.
func FormatFromExtension(name string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		ext = strings.ToLower(strings.TrimPrefix(name, "."))
	}
	switch ext {
	case "jpg", "jpeg", "jpe":
		return FormatJPEG
	case "tif", "tiff":
		return FormatTIFF
	}
	for f, info := range formatInfo {
		if info.ext == ext {
			return f
		}
	}
	return FormatUnknown
}

// formatFromDecoderName maps the names registered with image.RegisterFormat.
func formatFromDecoderName(name string) Format {
	switch name {
	case "gif":
		return FormatGIF
	case "jpeg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "webp":
		return FormatWebP
	case "bmp":
		return FormatBMP
	case "tiff":
		return FormatTIFF
	}
	return FormatUnknown
}
