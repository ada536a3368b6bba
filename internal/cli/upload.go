package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrlokans/mediamanager/internal/config"
	"github.com/mrlokans/mediamanager/internal/media"
)

func newCheckUploadCommand() *cobra.Command {
	var manage bool
	cmd := &cobra.Command{
		Use:   "check-upload <file>...",
		Short: "Run the upload checks against local files",
		Long: "Run the upload checks against local files using the configured upload settings.\n" +
			"Exits non-zero when any file would be rejected.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			helper := media.NewHelper(config.NewConfig().Upload.UploadOptions())
			authorizer := media.AuthorizerFunc(func(action string) bool {
				return manage && action == media.ActionManage
			})

			rejected := 0
			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}

				err = helper.CanUpload(media.File{
					Name:    filepath.Base(path),
					Size:    info.Size(),
					TmpPath: path,
				}, authorizer)
				if err != nil {
					rejected++
					fmt.Fprintf(cmd.OutOrStdout(), "%s\trejected\t%s\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tok\n", path)
			}

			if rejected > 0 {
				return fmt.Errorf("%d of %d files rejected", rejected, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&manage, "manage", false, "check as a user holding the manage permission")
	return cmd
}
