// Package cli holds the mediamanager command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/mediamanager/internal/config"
	"github.com/mrlokans/mediamanager/internal/logging"
)

// NewRootCommand assembles every subcommand under a single root.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "mediamanager",
		Short:         "Media library server and image tooling",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(config.NewConfig().Log)
		},
	}

	root.AddCommand(
		newServeCommand(version),
		newResizeCommand(),
		newCropCommand(),
		newResponsiveCommand(),
		newSrcsetCommand(),
		newImgCommand(),
		newPropsCommand(),
		newCheckUploadCommand(),
		newHashKeyCommand(),
		newSweepCommand(),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute(version string) error {
	return NewRootCommand(version).Execute()
}
