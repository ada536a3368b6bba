package media

import (
	"encoding/json"
	"strconv"
	"strings"

	"emperror.dev/errors"
)

// ToBytes converts a size setting such as "8M", "512k" or "1G" to bytes.
// Suffixes are binary multiples. Only the leading integer of a suffixed value
// counts, so "1.5M" is one mebibyte.
func ToBytes(val string) (int64, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, errors.New("empty size value")
	}

	var multiplier int64
	switch val[len(val)-1] {
	case 'K', 'k':
		multiplier = 1 << 10
	case 'M', 'm':
		multiplier = 1 << 20
	case 'G', 'g':
		multiplier = 1 << 30
	default:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid size value %q", val)
		}
		return n, nil
	}

	return leadingInt(val[:len(val)-1]) * multiplier, nil
}

// leadingInt parses the integer prefix of s, returning 0 when there is none.
func leadingInt(s string) int64 {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.ParseInt(s[:end], 10, 64)
	return n
}

// DefaultLocalDirectories is the stock local filesystem adapter setting.
const DefaultLocalDirectories = `[{"directory": "images"}]`

type localDirectory struct {
	Directory string `json:"directory"`
}

// ParseLocalDirectories decodes the JSON list of configured media directories.
func ParseLocalDirectories(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		raw = DefaultLocalDirectories
	}

	var entries []localDirectory
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, errors.Wrap(err, "invalid local directories setting")
	}

	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		dirs = append(dirs, e.Directory)
	}
	return dirs, nil
}

// IsValidLocalDirectory reports whether directory is one of the configured ones.
func IsValidLocalDirectory(directory string, configured []string) bool {
	return contains(configured, directory)
}
