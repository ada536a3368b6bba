package media

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/dustin/go-humanize"
)

// Message keys reported by upload validation.
const (
	KeyUploadInput     = "JLIB_MEDIA_ERROR_UPLOAD_INPUT"
	KeyFileName        = "JLIB_MEDIA_ERROR_WARNFILENAME"
	KeyFileType        = "JLIB_MEDIA_ERROR_WARNFILETYPE"
	KeyFileTooLarge    = "JLIB_MEDIA_ERROR_WARNFILETOOLARGE"
	KeyInvalidImage    = "JLIB_MEDIA_ERROR_WARNINVALID_IMG"
	KeyInvalidMIME     = "JLIB_MEDIA_ERROR_WARNINVALID_MIME"
	KeyInvalidMIMEType = "JLIB_MEDIA_ERROR_WARNINVALID_MIMETYPE"
	KeyNotAdmin        = "JLIB_MEDIA_ERROR_WARNNOTADMIN"
	KeyXSS             = "JLIB_MEDIA_ERROR_WARNIEXSS"
	KeyTooManyPixels   = "MEDIA_ERROR_WARNTOOMANYPIXELS"
)

var messages = map[string]string{
	KeyUploadInput:     "Unable to upload file.",
	KeyFileName:        "File name must only contain alphanumeric characters and no spaces.",
	KeyFileType:        "This file type is not supported.",
	KeyFileTooLarge:    "This file is too large to upload.",
	KeyInvalidImage:    "Not a valid image.",
	KeyInvalidMIME:     "Illegal or invalid mime type detected.",
	KeyInvalidMIMEType: "Illegal mime type detected: %s",
	KeyNotAdmin:        "Uploaded file is not an image file and you do not have permission.",
	KeyXSS:             "Possible IE XSS Attack found.",
	KeyTooManyPixels:   "This image has too many pixels to process.",
}

// UploadError is returned when a file must not be uploaded.
type UploadError struct {
	Key  string
	MIME string
	// Size and Limit are set for KeyFileTooLarge when both are known. For
	// KeyTooManyPixels they count pixels.
	Size  int64
	Limit int64
}

func (e *UploadError) Error() string {
	msg, ok := messages[e.Key]
	if !ok {
		return e.Key
	}
	if e.Key == KeyInvalidMIMEType {
		return fmt.Sprintf(msg, e.MIME)
	}
	if e.Key == KeyFileTooLarge && e.Limit > 0 {
		return fmt.Sprintf("%s (%s, limit %s)", msg,
			humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.Limit)))
	}
	if e.Key == KeyTooManyPixels && e.Limit > 0 {
		return fmt.Sprintf("%s (%s pixels, limit %s)", msg,
			humanize.Comma(e.Size), humanize.Comma(e.Limit))
	}
	return msg
}

func uploadError(key string) *UploadError {
	return &UploadError{Key: key}
}

// AsUploadError unwraps err into an *UploadError.
func AsUploadError(err error) (*UploadError, bool) {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
