package utils

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseHexColor converts a CSS style hex colour to an NRGBA value.
// Accepted forms: "#RGB", "#RRGGBB" and "#RRGGBBAA"; the leading '#' is optional.
// Example: "#11223380" -> {0x11, 0x22, 0x33, 0x80}
func ParseHexColor(hex string) (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")

	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", hex)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("failed to parse hex color %q: %w", hex, err)
	}

	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
