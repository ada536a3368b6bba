package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrlokans/mediamanager/internal/config"
	"github.com/mrlokans/mediamanager/internal/imaging"
	"github.com/mrlokans/mediamanager/internal/media"
	"github.com/mrlokans/mediamanager/internal/responsive"
)

type responsiveOptions struct {
	root   string
	sizes  string
	method string
}

func (o *responsiveOptions) register(cmd *cobra.Command, withSizes bool) {
	cmd.Flags().StringVarP(&o.root, "root", "r", ".", "media root the image paths are relative to")
	if withSizes {
		defaults := config.NewConfig().Media
		cmd.Flags().StringVarP(&o.sizes, "sizes", "s", joinSizes(defaults.ResponsiveSizes), "comma separated WxH sizes")
		cmd.Flags().StringVarP(&o.method, "method", "m", defaults.CreationMethod, "scale method")
	}
}

func (o *responsiveOptions) parse() ([]string, imaging.ScaleMethod, error) {
	sizes := splitSizes(o.sizes)
	for _, s := range sizes {
		if _, _, err := imaging.ParseSize(s); err != nil {
			return nil, 0, err
		}
	}
	method, err := imaging.ParseScaleMethod(o.method)
	if err != nil {
		return nil, 0, err
	}
	return sizes, method, nil
}

func newResponsiveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "responsive",
		Short: "Create or delete responsive variants of images",
	}
	cmd.AddCommand(newResponsiveCreateCommand(), newResponsiveDeleteCommand())
	return cmd
}

func newResponsiveCreateCommand() *cobra.Command {
	opts := &responsiveOptions{}
	cmd := &cobra.Command{
		Use:     "create <image>...",
		Short:   "Write the responsive variants of each image",
		Example: "mediamanager responsive create images/a.png images/b.jpg --root ./media --sizes 800x600,400x300",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sizes, method, err := opts.parse()
			if err != nil {
				return err
			}
			gen := responsive.NewGenerator(opts.root, true)

			for _, arg := range args {
				src, err := relativeTo(opts.root, arg)
				if err != nil {
					return err
				}
				created, err := gen.Create(src, sizes, method)
				if err != nil {
					return err
				}
				for _, c := range created {
					fmt.Fprintln(cmd.OutOrStdout(), c)
				}
			}
			return nil
		},
	}
	opts.register(cmd, true)
	return cmd
}

func newResponsiveDeleteCommand() *cobra.Command {
	opts := &responsiveOptions{}
	cmd := &cobra.Command{
		Use:   "delete <image>...",
		Short: "Remove the responsive variants of each image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := responsive.NewGenerator(opts.root, true)

			for _, arg := range args {
				src, err := relativeTo(opts.root, arg)
				if err != nil {
					return err
				}
				removed, err := gen.Delete(src)
				if err != nil {
					return err
				}
				for _, r := range removed {
					fmt.Fprintln(cmd.OutOrStdout(), r)
				}
			}
			return nil
		},
	}
	opts.register(cmd, false)
	return cmd
}

func newSrcsetCommand() *cobra.Command {
	opts := &responsiveOptions{}
	cmd := &cobra.Command{
		Use:   "srcset <image>",
		Short: "Print the srcset and sizes attributes for an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sizes, method, err := opts.parse()
			if err != nil {
				return err
			}
			src, err := relativeTo(opts.root, args[0])
			if err != nil {
				return err
			}

			gen := responsive.NewGenerator(opts.root, true)
			srcset, err := gen.Srcset(src, sizes, method)
			if err != nil {
				return err
			}
			attr, err := gen.SizesAttr(src)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "srcset=%q\nsizes=%q\n", srcset, attr)
			return nil
		},
	}
	opts.register(cmd, true)
	return cmd
}

func newImgCommand() *cobra.Command {
	opts := &responsiveOptions{}
	var alt, baseURL string
	var width, height int
	cmd := &cobra.Command{
		Use:     "img <image>",
		Short:   "Print an <img> tag with srcset and sizes for an image",
		Example: "mediamanager img images/a.png --root ./media --base-url /media --alt \"A cat\"",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sizes, method, err := opts.parse()
			if err != nil {
				return err
			}
			src, err := relativeTo(opts.root, args[0])
			if err != nil {
				return err
			}

			options := responsive.ParseSizeOptions(sizes)
			tag, err := responsive.NewGenerator(opts.root, true).ImgTag(responsive.ImgOptions{
				Src:         src,
				BaseURL:     baseURL,
				Alt:         alt,
				Width:       width,
				Height:      height,
				Custom:      len(options) > 0,
				SizeOptions: options,
				Method:      method,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tag)
			return nil
		},
	}
	opts.register(cmd, true)
	cmd.Flags().StringVar(&alt, "alt", "", "alternative text")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public prefix of the media root")
	cmd.Flags().IntVar(&width, "width", 0, "width attribute")
	cmd.Flags().IntVar(&height, "height", 0, "height attribute")
	return cmd
}

// splitSizes parses a "800x600, 400x300" flag value.
func splitSizes(s string) []string {
	return media.SplitList(s)
}

func joinSizes(sizes []string) string {
	return strings.Join(sizes, ",")
}
