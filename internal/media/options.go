package media

import (
	"strings"

	"github.com/mrlokans/mediamanager/internal/imaging"
)

// ActionManage is the permission required to upload non-image files.
const ActionManage = "core.manage"

// Options configures upload validation.
type Options struct {
	// AllowedExtensions and IgnoredExtensions are matched case-sensitively
	// against the last extension of the name.
	AllowedExtensions []string
	IgnoredExtensions []string
	// ImageExtensions select the image branch of the MIME checks.
	ImageExtensions []string
	AllowedMIME     []string
	CheckMIME       bool
	RestrictUploads bool
	// MaxSizeMB of 0 disables the size check.
	MaxSizeMB float64
	// MaxPixels caps width*height of uploaded images. 0 disables the check.
	MaxPixels int64
	// AllowedExecutables are removed from the executable extension blacklist.
	AllowedExecutables []string
}

// DefaultOptions returns the stock upload settings.
func DefaultOptions() Options {
	return Options{
		AllowedExtensions: SplitList(
			"bmp,csv,doc,gif,ico,jpg,jpeg,odg,odp,ods,odt,pdf,png,ppt,txt,xcf,xls," +
				"BMP,CSV,DOC,GIF,ICO,JPG,JPEG,ODG,ODP,ODS,ODT,PDF,PNG,PPT,TXT,XCF,XLS"),
		ImageExtensions: SplitList("bmp,gif,jpg,jpeg,png,webp"),
		AllowedMIME: SplitList(
			"image/jpeg,image/gif,image/png,image/bmp,application/msword,application/excel," +
				"application/pdf,application/powerpoint,text/plain,application/x-zip"),
		CheckMIME:       true,
		RestrictUploads: true,
		MaxPixels:       imaging.DefaultMaxPixels,
	}
}

// SplitList splits a comma separated setting, trimming and dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
