package responsive

import (
	"net/url"
	"strconv"
	"strings"
)

const mediaFieldScheme = "joomlaImage://"

// ImageURL is a media field value with its adapter suffix removed.
type ImageURL struct {
	URL    string
	Width  int
	Height int
}

// CleanImageURL strips the "#joomlaImage://local-images/...?width=W&height=H"
// suffix media fields append to the image path, keeping the dimensions.
func CleanImageURL(raw string) ImageURL {
	path, fragment, found := strings.Cut(raw, "#")
	if !found || !strings.HasPrefix(fragment, mediaFieldScheme) {
		return ImageURL{URL: raw}
	}

	img := ImageURL{URL: path}
	if _, query, ok := strings.Cut(fragment, "?"); ok {
		params, err := url.ParseQuery(query)
		if err == nil && params.Has("width") && params.Has("height") {
			img.Width, _ = strconv.Atoi(params.Get("width"))
			img.Height, _ = strconv.Atoi(params.Get("height"))
		}
	}
	return img
}
