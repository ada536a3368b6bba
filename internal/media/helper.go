package media

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/mediamanager/internal/imaging"
	"github.com/mrlokans/mediamanager/internal/utils"
)

var imageNamePattern = regexp.MustCompile(`(?i)\.(?:xcf|odg|gif|jpg|jpeg|png|bmp)$`)

// executableExtensions must never appear anywhere in an uploaded file name.
var executableExtensions = []string{
	"php", "js", "exe", "phtml", "java", "perl", "py", "asp", "dll", "go", "ade", "adp", "bat", "chm",
	"cmd", "com", "cpl", "hta", "ins", "isp", "jse", "lib", "mde", "msc", "msp", "mst", "pif", "scr",
	"sct", "shb", "sys", "vb", "vbe", "vbs", "vxd", "wsc", "wsf", "wsh", "html", "htm",
}

// htmlTags are looked for as "<tag " or "<tag>" in the head of uploaded files.
var htmlTags = []string{
	"abbr", "acronym", "address", "applet", "area", "audioscope", "base", "basefont", "bdo", "bgsound",
	"big", "blackface", "blink", "blockquote", "body", "bq", "br", "button", "caption", "center", "cite",
	"code", "col", "colgroup", "comment", "custom", "dd", "del", "dfn", "dir", "div", "dl", "dt", "em",
	"embed", "fieldset", "fn", "font", "form", "frame", "frameset", "h1", "h2", "h3", "h4", "h5", "h6",
	"head", "hr", "html", "iframe", "ilayer", "img", "input", "ins", "isindex", "keygen", "kbd", "label",
	"layer", "legend", "li", "limittext", "link", "listing", "map", "marquee", "menu", "meta", "multicol",
	"nobr", "noembed", "noframes", "noscript", "nosmartquotes", "object", "ol", "optgroup", "option",
	"param", "plaintext", "pre", "rt", "ruby", "s", "samp", "script", "select", "server", "shadow",
	"sidebar", "small", "spacer", "span", "strike", "strong", "style", "sub", "sup", "table", "tbody",
	"td", "textarea", "tfoot", "th", "thead", "title", "tr", "tt", "ul", "var", "wbr", "xml", "xmp",
	"!doctype", "!--",
}

// xssScanSize is how much of an upload is searched for HTML.
const xssScanSize = 256

// File describes an upload waiting for validation.
type File struct {
	Name string
	Size int64
	// TmpPath is where the uploaded bytes are stored. Empty when the upload
	// was dropped for exceeding a transport limit.
	TmpPath string
}

// Authorizer grants actions such as ActionManage to the uploading user.
type Authorizer interface {
	Authorise(action string) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(action string) bool

func (f AuthorizerFunc) Authorise(action string) bool { return f(action) }

// Helper validates uploads against Options.
type Helper struct {
	opts Options
}

func NewHelper(opts Options) *Helper {
	return &Helper{opts: opts}
}

func (h *Helper) Options() Options { return h.opts }

// IsImage reports whether the file name has an image extension.
func IsImage(name string) bool {
	return imageNamePattern.MatchString(name)
}

// TypeIcon returns the lower-cased text after the last dot, used to pick an icon.
func TypeIcon(name string) string {
	return strings.ToLower(name[strings.LastIndex(name, ".")+1:])
}

// MimeType detects the media type of the file at path. Images are identified
// from their header first; anything else, or an image that cannot be
// identified, falls back to content sniffing. An empty string means nothing
// could be detected.
func MimeType(path string, isImage bool) string {
	if isImage {
		if props, err := imaging.FileProperties(path); err == nil && props.MIME != "" {
			return props.MIME
		}
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return ""
	}
	mime, _, _ := strings.Cut(mt.String(), ";")
	return strings.TrimSpace(mime)
}

// checkMimeType reports whether mime may be uploaded.
func (h *Helper) checkMimeType(mime string) bool {
	if !h.opts.CheckMIME {
		return true
	}
	return mime != "" && contains(h.opts.AllowedMIME, mime)
}

// CanUpload returns nil when the file may be uploaded and an *UploadError
// describing the first failed check otherwise.
func (h *Helper) CanUpload(file File, auth Authorizer) error {
	if file.Name == "" {
		return uploadError(KeyUploadInput)
	}

	if file.Name != utils.MakeSafe(file.Name) {
		return uploadError(KeyFileName)
	}

	parts := strings.Split(file.Name, ".")
	if len(parts) < 2 {
		return uploadError(KeyFileType)
	}
	parts = parts[1:]

	for _, ext := range parts {
		if contains(executableExtensions, ext) && !contains(h.opts.AllowedExecutables, ext) {
			return uploadError(KeyFileType)
		}
	}

	ext := parts[len(parts)-1]
	ignored := contains(h.opts.IgnoredExtensions, ext)
	if ext == "" || (!contains(h.opts.AllowedExtensions, ext) && !ignored) {
		return uploadError(KeyFileType)
	}

	if limit := int64(h.opts.MaxSizeMB * 1024 * 1024); limit > 0 && file.Size > limit {
		return &UploadError{Key: KeyFileTooLarge, Size: file.Size, Limit: limit}
	}

	if err := h.checkPixels(file, ext); err != nil {
		return err
	}

	if h.opts.RestrictUploads {
		if err := h.checkRestricted(file, ext, ignored, auth); err != nil {
			return err
		}
	}

	if hasHTMLTag(file.TmpPath) {
		log.Warn().Str("file", file.Name).Msg("upload rejected, html found in file head")
		return uploadError(KeyXSS)
	}

	return nil
}

// checkPixels reads the header of an image upload and rejects it when the
// decoded bitmap would exceed MaxPixels. Unreadable headers are left to the
// MIME checks.
func (h *Helper) checkPixels(file File, ext string) error {
	if h.opts.MaxPixels <= 0 || file.TmpPath == "" || !containsFold(h.opts.ImageExtensions, ext) {
		return nil
	}
	props, err := imaging.FileProperties(file.TmpPath)
	if err != nil {
		return nil
	}
	if pixels := int64(props.Width) * int64(props.Height); pixels > h.opts.MaxPixels {
		log.Warn().Str("file", file.Name).Int("width", props.Width).Int("height", props.Height).
			Msg("upload rejected, image has too many pixels")
		return &UploadError{Key: KeyTooManyPixels, Size: pixels, Limit: h.opts.MaxPixels}
	}
	return nil
}

func (h *Helper) checkRestricted(file File, ext string, ignored bool, auth Authorizer) error {
	if containsFold(h.opts.ImageExtensions, ext) {
		if file.TmpPath == "" {
			return uploadError(KeyFileTooLarge)
		}
		mime := MimeType(file.TmpPath, true)
		if mime == "" {
			return uploadError(KeyInvalidImage)
		}
		if !h.checkMimeType(mime) {
			return &UploadError{Key: KeyInvalidMIMEType, MIME: mime}
		}
		return nil
	}

	if ignored {
		return nil
	}

	mime := MimeType(file.TmpPath, false)
	if mime == "" {
		return uploadError(KeyInvalidMIME)
	}
	if !h.checkMimeType(mime) {
		return &UploadError{Key: KeyInvalidMIMEType, MIME: mime}
	}
	if auth == nil || !auth.Authorise(ActionManage) {
		return uploadError(KeyNotAdmin)
	}
	return nil
}

// hasHTMLTag looks for an HTML tag opener in the first bytes of the file.
// Files that cannot be read have nothing to inspect.
func hasHTMLTag(path string) bool {
	if path == "" {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, xssScanSize)
	n, _ := io.ReadFull(f, head)
	head = bytes.ToLower(head[:n])

	for _, tag := range htmlTags {
		if bytes.Contains(head, []byte("<"+tag+" ")) || bytes.Contains(head, []byte("<"+tag+">")) {
			return true
		}
	}
	return false
}

// ImageResize scales width x height so the longer side equals target.
func ImageResize(width, height, target int) (int, int) {
	var percentage float64
	if width > height {
		percentage = float64(target) / float64(width)
	} else {
		percentage = float64(target) / float64(height)
	}
	return int(math.Round(float64(width) * percentage)), int(math.Round(float64(height) * percentage))
}

// CountFiles counts the media files and folders directly inside dir. Hidden
// entries and files that look like HTML or PHP are skipped.
func CountFiles(dir string) (files, dirs int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		switch {
		case info.IsDir():
			dirs++
		case info.Mode().IsRegular() && !strings.Contains(name, ".html") && !strings.Contains(name, ".php"):
			files++
		}
	}
	return files, dirs
}
