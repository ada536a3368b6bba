package services

import (
	"context"
	"image/color"
	"strings"

	"emperror.dev/errors"

	"github.com/mrlokans/mediamanager/internal/entities"
	"github.com/mrlokans/mediamanager/internal/imaging"
	"github.com/mrlokans/mediamanager/internal/utils"
)

var ErrUnknownOperation = errors.New("unknown image operation")

// DefaultWatermarkTransparency is the watermark opacity used when a request
// does not set one.
const DefaultWatermarkTransparency = 50

// TransformRequest describes one edit applied to a stored image in place.
type TransformRequest struct {
	Operation string `json:"operation"` // resize, crop, crop_resize, rotate, flip, filter, auto_orient, watermark

	Width  string `json:"width,omitempty"`  // pixels or percentage, e.g. "300" or "50%"
	Height string `json:"height,omitempty"` // pixels or percentage
	Method string `json:"method,omitempty"` // scale method for resize
	Left   *int   `json:"left,omitempty"`
	Top    *int   `json:"top,omitempty"`

	Angle      float64 `json:"angle,omitempty"`
	Background string  `json:"background,omitempty"` // hex colour for uncovered areas after rotate

	Flip string `json:"flip,omitempty"` // horizontal, vertical or both

	Filter  string                `json:"filter,omitempty"`
	Options imaging.FilterOptions `json:"options,omitempty"`

	WatermarkID  uint `json:"watermark_id,omitempty"`
	Transparency *int `json:"transparency,omitempty"` // mark opacity in percent, DefaultWatermarkTransparency when unset
	BottomMargin int  `json:"bottom_margin,omitempty"`
	RightMargin  int  `json:"right_margin,omitempty"`

	Quality int `json:"quality,omitempty"`
}

var flipModes = map[string]imaging.FlipMode{
	"horizontal": imaging.FlipHorizontal,
	"vertical":   imaging.FlipVertical,
	"both":       imaging.FlipBoth,
}

// Transform edits an image file in place and updates its record. Variants of
// the old pixels are removed.
func (s *MediaService) Transform(ctx context.Context, id uint, req TransformRequest) (*entities.MediaFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !file.IsImage {
		return nil, ErrNotImage
	}

	full := s.FilePath(file.Path)
	src, err := imaging.Open(full)
	if err != nil {
		return nil, err
	}
	src.SetBestQuality(s.cfg.BestQuality)

	out, err := s.apply(src, req)
	if err == nil {
		var opts []imaging.EncodeOption
		if req.Quality > 0 {
			opts = append(opts, imaging.WithQuality(req.Quality))
		}
		err = out.ToFile(full, src.Format(), opts...)
	}
	if s.audit != nil {
		s.audit.LogTransform(id, file.Path, req.Operation, err)
	}
	if err != nil {
		return nil, err
	}

	// every variant file of the old pixels goes, recorded or not
	removed, err := s.removeVariantFiles(file)
	if len(removed) > 0 && s.audit != nil {
		s.audit.LogResponsive(id, file.Path, false, removed, err)
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.store.DeleteVariants(id); err != nil {
		return nil, errors.Wrap(err, "failed to delete variant records")
	}
	file.Variants = nil

	props, err := imaging.FileProperties(full)
	if err != nil {
		return nil, err
	}
	file.Width = props.Width
	file.Height = props.Height
	file.Orientation = string(props.Orientation)
	file.Size = props.FileSize
	if err := s.store.Update(file); err != nil {
		return nil, errors.Wrap(err, "failed to update media record")
	}
	return file, nil
}

func (s *MediaService) apply(img *imaging.Image, req TransformRequest) (*imaging.Image, error) {
	switch strings.ToLower(req.Operation) {
	case "resize":
		w, h, err := parseBox(req.Width, req.Height)
		if err != nil {
			return nil, err
		}
		method := s.cfg.Method
		if req.Method != "" {
			if method, err = imaging.ParseScaleMethod(req.Method); err != nil {
				return nil, err
			}
		}
		switch method {
		case imaging.Crop:
			return img.Crop(w, h, nil, nil)
		case imaging.CropResize:
			return img.CropResize(w, h)
		}
		return img.Resize(w, h, method)

	case "crop":
		w, h, err := parseBox(req.Width, req.Height)
		if err != nil {
			return nil, err
		}
		return img.Crop(w, h, req.Left, req.Top)

	case "crop_resize", "cropresize":
		w, h, err := parseBox(req.Width, req.Height)
		if err != nil {
			return nil, err
		}
		return img.CropResize(w, h)

	case "rotate":
		var bg color.Color
		if req.Background != "" {
			c, err := utils.ParseHexColor(req.Background)
			if err != nil {
				return nil, err
			}
			bg = c
		}
		return img.Rotate(req.Angle, bg)

	case "flip":
		mode, ok := flipModes[strings.ToLower(req.Flip)]
		if !ok {
			return nil, errors.WithMessagef(imaging.ErrInvalidFlipMode, "%q", req.Flip)
		}
		return img.Flip(mode)

	case "filter":
		return img.Filter(req.Filter, req.Options)

	case "auto_orient", "autoorient":
		return img.AutoOrient()

	case "watermark":
		mark, err := s.store.GetByID(req.WatermarkID)
		if err != nil {
			return nil, errors.Wrap(err, "watermark")
		}
		markImg, err := imaging.Open(s.FilePath(mark.Path))
		if err != nil {
			return nil, err
		}
		transparency := DefaultWatermarkTransparency
		if req.Transparency != nil {
			transparency = *req.Transparency
		}
		return img.Watermark(markImg, transparency, req.BottomMargin, req.RightMargin)
	}
	return nil, errors.WithMessagef(ErrUnknownOperation, "%q", req.Operation)
}

func parseBox(width, height string) (imaging.Dimension, imaging.Dimension, error) {
	w, err := imaging.ParseDimension(width)
	if err != nil {
		return w, imaging.Auto, err
	}
	h, err := imaging.ParseDimension(height)
	return w, h, err
}
