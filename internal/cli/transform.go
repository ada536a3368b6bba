package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/mrlokans/mediamanager/internal/imaging"
)

type transformOptions struct {
	size    string
	method  string
	output  string
	quality int
	left    int
	top     int
	centred bool
}

// outputPath defaults to "<name>_<w>x<h>.<ext>" next to the source.
func (o transformOptions) outputPath(src string, img *imaging.Image) string {
	if o.output != "" {
		return o.output
	}
	return filepath.Join(filepath.Dir(src), imaging.VariantName(src, img.Width(), img.Height()))
}

func (o transformOptions) save(cmd *cobra.Command, src string, img *imaging.Image) error {
	out := o.outputPath(src, img)
	format := imaging.FormatFromExtension(out)
	if format == imaging.FormatUnknown {
		format = img.Format()
	}

	var opts []imaging.EncodeOption
	if o.quality > 0 {
		opts = append(opts, imaging.WithQuality(o.quality))
	}
	if err := img.ToFile(out, format, opts...); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%dx%d %s)\n", out, img.Width(), img.Height(), format)
	return nil
}

func newResizeCommand() *cobra.Command {
	opts := transformOptions{}
	cmd := &cobra.Command{
		Use:     "resize <image>",
		Short:   "Resize an image",
		Example: "mediamanager resize photo.jpg --size 800x600 --method crop_resize",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, height, err := imaging.ParseSize(opts.size)
			if err != nil {
				return err
			}
			method, err := imaging.ParseScaleMethod(opts.method)
			if err != nil {
				return err
			}

			img, err := imaging.Open(args[0])
			if err != nil {
				return err
			}
			resized, err := img.SetBestQuality(true).Resize(width, height, method)
			if err != nil {
				return err
			}
			return opts.save(cmd, args[0], resized)
		},
	}

	cmd.Flags().StringVarP(&opts.size, "size", "s", "", "target size as WxH, either side may be empty or a percentage")
	cmd.Flags().StringVarP(&opts.method, "method", "m", "inside", "scale method: fill, inside, outside, crop, crop_resize, fit")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, defaults to <name>_<w>x<h>.<ext>")
	cmd.Flags().IntVarP(&opts.quality, "quality", "q", 0, "encoder quality (0 keeps the format default)")
	_ = cmd.MarkFlagRequired("size")
	return cmd
}

func newCropCommand() *cobra.Command {
	opts := transformOptions{}
	cmd := &cobra.Command{
		Use:     "crop <image>",
		Short:   "Cut a region out of an image",
		Example: "mediamanager crop photo.png --size 200x200 --left 10 --top 20",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, height, err := imaging.ParseSize(opts.size)
			if err != nil {
				return err
			}

			img, err := imaging.Open(args[0])
			if err != nil {
				return err
			}

			var left, top *int
			if !opts.centred {
				left, top = imaging.Offset(opts.left), imaging.Offset(opts.top)
			}
			cropped, err := img.Crop(width, height, left, top)
			if err != nil {
				return err
			}
			return opts.save(cmd, args[0], cropped)
		},
	}

	cmd.Flags().StringVarP(&opts.size, "size", "s", "", "region size as WxH")
	cmd.Flags().IntVar(&opts.left, "left", 0, "left offset in pixels")
	cmd.Flags().IntVar(&opts.top, "top", 0, "top offset in pixels")
	cmd.Flags().BoolVar(&opts.centred, "center", false, "centre the region, ignoring --left and --top")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, defaults to <name>_<w>x<h>.<ext>")
	cmd.Flags().IntVarP(&opts.quality, "quality", "q", 0, "encoder quality (0 keeps the format default)")
	_ = cmd.MarkFlagRequired("size")
	return cmd
}

// relativeTo returns path relative to root, rejecting paths that escape it.
func relativeTo(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("%s is outside of %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}
