package imaging

import "emperror.dev/errors"

var (
	ErrNotLoaded          = errors.New("no valid image was loaded")
	ErrFileNotFound       = errors.New("the image file does not exist")
	ErrUnparsable         = errors.New("unable to get properties for the image")
	ErrUnsupportedType    = errors.New("unsupported image type")
	ErrInvalidScaleMethod = errors.New("invalid scale method")
	ErrInvalidSize        = errors.New("invalid image size")
	ErrInvalidDimensions  = errors.New("image dimensions must be positive")
	ErrInvalidFlipMode    = errors.New("invalid flip mode")
	ErrUnknownFilter      = errors.New("image filter is not available")
	ErrNoPath             = errors.New("image has no source path")
	ErrFolderCreate       = errors.New("folder does not exist and cannot be created")
	ErrTooManyPixels      = errors.New("image has too many pixels to decode")
)
