package responsive

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSizes are used when neither the field nor the plugin settings define sizes.
var DefaultSizes = []string{"800x600", "600x400", "400x200"}

// SizeOption is a single custom size as stored in field and plugin settings.
type SizeOption struct {
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`
}

func (o SizeOption) String() string {
	return fmt.Sprintf("%dx%d", o.Width, o.Height)
}

// PluginSettings are the site wide responsive image settings.
type PluginSettings struct {
	CustomSizes       bool
	CustomSizeOptions []SizeOption
}

// Sizes picks the sizes for a form image. Custom options on the field win;
// otherwise the plugin's custom sizes apply, falling back to DefaultSizes.
func Sizes(custom bool, options []SizeOption, plugin PluginSettings) []string {
	if !custom || len(options) == 0 {
		if !plugin.CustomSizes {
			return append([]string(nil), DefaultSizes...)
		}
		options = plugin.CustomSizeOptions
	}

	sizes := make([]string, 0, len(options))
	for _, opt := range options {
		if opt.Width > 0 && opt.Height > 0 {
			sizes = append(sizes, opt.String())
		}
	}
	return sizes
}

// ParseSizeOptions converts "WxH" pixel sizes into size options. Sizes with a
// percentage or a missing side cannot be stored as options and are skipped.
func ParseSizeOptions(sizes []string) []SizeOption {
	var options []SizeOption
	for _, size := range sizes {
		w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(size)), "x")
		if !ok {
			continue
		}
		width, err := strconv.Atoi(w)
		if err != nil || width <= 0 {
			continue
		}
		height, err := strconv.Atoi(h)
		if err != nil || height <= 0 {
			continue
		}
		options = append(options, SizeOption{Width: width, Height: height})
	}
	return options
}

// PluginSettingsFromSizes uses the configured sizes as the site wide custom
// sizes. Without usable sizes the plugin falls back to DefaultSizes.
func PluginSettingsFromSizes(sizes []string) PluginSettings {
	options := ParseSizeOptions(sizes)
	return PluginSettings{CustomSizes: len(options) > 0, CustomSizeOptions: options}
}

// uniqueSizes splits a comma separated size list and drops duplicates.
func uniqueSizes(list string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
