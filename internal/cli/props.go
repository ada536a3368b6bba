package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mrlokans/mediamanager/internal/imaging"
)

func newPropsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "props <image>...",
		Short: "Show image properties without decoding pixels",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			for _, path := range args {
				props, err := imaging.FileProperties(path)
				if err != nil {
					return err
				}

				fmt.Fprintf(w, "%s\n", path)
				fmt.Fprintf(w, "  type\t%s (%s)\n", props.TypeName, props.MIME)
				fmt.Fprintf(w, "  size\t%dx%d %s\n", props.Width, props.Height, props.Orientation)
				fmt.Fprintf(w, "  file\t%s\n", humanize.IBytes(uint64(props.FileSize)))
				if props.Bits > 0 {
					fmt.Fprintf(w, "  depth\t%d bits, %d channels\n", props.Bits, props.Channels)
				}
				if camera := strings.TrimSpace(props.CameraMake + " " + props.CameraModel); camera != "" {
					fmt.Fprintf(w, "  camera\t%s\n", camera)
				}
				if props.ExifOrientation > 0 {
					fmt.Fprintf(w, "  exif orientation\t%d\n", props.ExifOrientation)
				}
			}
			return nil
		},
	}
}
